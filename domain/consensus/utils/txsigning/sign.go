// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsigning

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"golang.org/x/crypto/blake2b"
)

// AccountKeyFromKeyPair returns the account controlled by the given key pair
func AccountKeyFromKeyPair(keyPair *secp256k1.SchnorrKeyPair) (externalapi.AccountKey, error) {
	var accountKey externalapi.AccountKey
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return accountKey, err
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		return accountKey, err
	}
	copy(accountKey[:], serialized[:])
	return accountKey, nil
}

// KeyPairFromSlice deserializes a 32 byte private key
func KeyPairFromSlice(privateKeyBytes []byte) (*secp256k1.SchnorrKeyPair, error) {
	return secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKeyBytes)
}

// Sign sets tx.Signature to a Schnorr signature over the transaction's
// signing hash. The cached ID is cleared since it commits to the signature.
func Sign(tx *externalapi.DomainTransaction, keyPair *secp256k1.SchnorrKeyPair) error {
	accountKey, err := AccountKeyFromKeyPair(keyPair)
	if err != nil {
		return err
	}
	if accountKey != tx.Sender {
		return errors.Errorf("key pair controls %s, not the sender %s", accountKey, tx.Sender)
	}

	hash := consensushashing.TransactionSigningHash(tx)
	secpHash := secp256k1.Hash(*hash.ByteArray())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return errors.Errorf("cannot sign transaction: %s", err)
	}

	tx.Signature = signature.Serialize()[:]
	tx.ID = nil
	return nil
}

// Verify returns whether tx.Signature is a valid signature by the sender
// over the transaction's signing hash
func Verify(tx *externalapi.DomainTransaction) bool {
	if len(tx.Signature) != secp256k1.SerializedSchnorrSignatureSize {
		return false
	}
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(tx.Sender[:])
	if err != nil {
		return false
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(tx.Signature)
	if err != nil {
		return false
	}

	hash := consensushashing.TransactionSigningHash(tx)
	secpHash := secp256k1.Hash(*hash.ByteArray())
	return publicKey.SchnorrVerify(&secpHash, signature)
}

// KeyPairFromSeed derives a key pair from an arbitrary seed. It is meant for
// development networks and tests, where accounts must be reproducible.
func KeyPairFromSeed(seed []byte) (*secp256k1.SchnorrKeyPair, error) {
	privateKey := blake2b.Sum256(seed)
	return KeyPairFromSlice(privateKey[:])
}
