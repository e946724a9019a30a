package txsigning

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"
	"github.com/stretchr/testify/require"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

func newSignedTransaction(t *testing.T) (*externalapi.DomainTransaction, *secp256k1.SchnorrKeyPair) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	require.NoError(t, err)
	sender, err := AccountKeyFromKeyPair(keyPair)
	require.NoError(t, err)

	tx := &externalapi.DomainTransaction{
		Sender:  sender,
		Nonce:   0,
		Fee:     1,
		Outputs: []*externalapi.TransferOutput{{Recipient: externalapi.AccountKey{7}, Amount: 5}},
	}
	require.NoError(t, Sign(tx, keyPair))
	return tx, keyPair
}

func TestSignAndVerify(t *testing.T) {
	tx, _ := newSignedTransaction(t)
	require.True(t, Verify(tx))
}

func TestVerifyRejectsTampering(t *testing.T) {
	tx, _ := newSignedTransaction(t)
	tx.Outputs[0].Amount++
	require.False(t, Verify(tx))

	tx, _ = newSignedTransaction(t)
	tx.Signature = tx.Signature[:10]
	require.False(t, Verify(tx))
}

func TestSignRequiresSenderKey(t *testing.T) {
	tx, _ := newSignedTransaction(t)
	otherKeyPair, err := secp256k1.GenerateSchnorrKeyPair()
	require.NoError(t, err)
	require.Error(t, Sign(tx, otherKeyPair))
}

func TestKeyPairFromSeedIsDeterministic(t *testing.T) {
	first, err := KeyPairFromSeed([]byte("seed"))
	require.NoError(t, err)
	second, err := KeyPairFromSeed([]byte("seed"))
	require.NoError(t, err)
	other, err := KeyPairFromSeed([]byte("other seed"))
	require.NoError(t, err)

	firstKey, err := AccountKeyFromKeyPair(first)
	require.NoError(t, err)
	secondKey, err := AccountKeyFromKeyPair(second)
	require.NoError(t, err)
	otherKey, err := AccountKeyFromKeyPair(other)
	require.NoError(t, err)

	require.Equal(t, firstKey, secondKey)
	require.NotEqual(t, firstKey, otherKey)
}
