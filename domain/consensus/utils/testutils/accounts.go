package testutils

import (
	"fmt"
	"testing"

	"github.com/kaspanet/go-secp256k1"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/txsigning"
)

// TestAccount is a reproducible key pair together with the account it controls
type TestAccount struct {
	KeyPair *secp256k1.SchnorrKeyPair
	Key     externalapi.AccountKey
}

// NewTestAccounts derives count accounts from the given name
func NewTestAccounts(t testing.TB, name string, count int) []*TestAccount {
	accounts := make([]*TestAccount, count)
	for i := range accounts {
		keyPair, err := txsigning.KeyPairFromSeed([]byte(fmt.Sprintf("%s/%d", name, i)))
		if err != nil {
			t.Fatalf("KeyPairFromSeed: %+v", err)
		}
		key, err := txsigning.AccountKeyFromKeyPair(keyPair)
		if err != nil {
			t.Fatalf("AccountKeyFromKeyPair: %+v", err)
		}
		accounts[i] = &TestAccount{KeyPair: keyPair, Key: key}
	}
	return accounts
}

// Allocations funds every account with balance
func Allocations(accounts []*TestAccount, balance uint64) []*externalapi.GenesisAllocation {
	allocations := make([]*externalapi.GenesisAllocation, len(accounts))
	for i, account := range accounts {
		allocations[i] = &externalapi.GenesisAllocation{Account: account.Key, Balance: balance}
	}
	return allocations
}

// Transfer returns a transaction from sender, signed by it
func Transfer(t testing.TB, sender *TestAccount, nonce uint64, fee uint64,
	outputs ...*externalapi.TransferOutput) *externalapi.DomainTransaction {

	return SignTransaction(t, &externalapi.DomainTransaction{
		Nonce:   nonce,
		Fee:     fee,
		Outputs: outputs,
	}, sender)
}

// SignTransaction sets sender as the sender of tx and signs it
func SignTransaction(t testing.TB, tx *externalapi.DomainTransaction,
	sender *TestAccount) *externalapi.DomainTransaction {

	tx.Sender = sender.Key
	tx.ID = nil
	err := txsigning.Sign(tx, sender.KeyPair)
	if err != nil {
		t.Fatalf("Sign: %+v", err)
	}
	return tx
}

// Pay is a shorthand for a single TransferOutput
func Pay(recipient *TestAccount, amount uint64) *externalapi.TransferOutput {
	return &externalapi.TransferOutput{Recipient: recipient.Key, Amount: amount}
}
