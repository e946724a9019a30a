package externalapi

import (
	"bytes"
	"encoding/hex"
	"sort"
)

// AccountKeySize is the size of an account key: a serialized x-only Schnorr public key
const AccountKeySize = 32

// AccountKey identifies an account
type AccountKey [AccountKeySize]byte

// String returns the hex encoding of the key
func (key AccountKey) String() string {
	return hex.EncodeToString(key[:])
}

// Less returns whether key sorts before other
func (key AccountKey) Less(other AccountKey) bool {
	return bytes.Compare(key[:], other[:]) < 0
}

// DomainTransactionID represents the ID of a transaction
type DomainTransactionID DomainHash

// String stringifies a transaction ID.
func (id DomainTransactionID) String() string {
	return DomainHash(id).String()
}

// Equal returns whether id equals to other
func (id *DomainTransactionID) Equal(other *DomainTransactionID) bool {
	return (*DomainHash)(id).Equal((*DomainHash)(other))
}

// TransferOutput credits Amount to Recipient
type TransferOutput struct {
	Recipient AccountKey
	Amount    uint64
}

// BalanceGuard is a read-only precondition: the transaction is rejected
// unless Account holds at least MinBalance when it executes
type BalanceGuard struct {
	Account    AccountKey
	MinBalance uint64
}

// DomainTransaction is an account-model transfer. Its accessed accounts are
// fully determined by its fields, see AccessSet.
type DomainTransaction struct {
	Version   uint16
	Sender    AccountKey
	Nonce     uint64
	Fee       uint64
	Outputs   []*TransferOutput
	Guards    []*BalanceGuard
	Signature []byte

	// ID is cached after first computation
	ID *DomainTransactionID
}

// Clone returns a clone of DomainTransaction
func (tx *DomainTransaction) Clone() *DomainTransaction {
	outputs := make([]*TransferOutput, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputClone := *output
		outputs[i] = &outputClone
	}
	guards := make([]*BalanceGuard, len(tx.Guards))
	for i, guard := range tx.Guards {
		guardClone := *guard
		guards[i] = &guardClone
	}
	var signature []byte
	if tx.Signature != nil {
		signature = make([]byte, len(tx.Signature))
		copy(signature, tx.Signature)
	}
	var id *DomainTransactionID
	if tx.ID != nil {
		idClone := *tx.ID
		id = &idClone
	}

	return &DomainTransaction{
		Version:   tx.Version,
		Sender:    tx.Sender,
		Nonce:     tx.Nonce,
		Fee:       tx.Fee,
		Outputs:   outputs,
		Guards:    guards,
		Signature: signature,
		ID:        id,
	}
}

// Equal returns whether tx equals to other. The cached ID is ignored.
func (tx *DomainTransaction) Equal(other *DomainTransaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	if tx.Version != other.Version || tx.Sender != other.Sender || tx.Nonce != other.Nonce ||
		tx.Fee != other.Fee || !bytes.Equal(tx.Signature, other.Signature) ||
		len(tx.Outputs) != len(other.Outputs) || len(tx.Guards) != len(other.Guards) {
		return false
	}
	for i, output := range tx.Outputs {
		if *output != *other.Outputs[i] {
			return false
		}
	}
	for i, guard := range tx.Guards {
		if *guard != *other.Guards[i] {
			return false
		}
	}
	return true
}

// AccessSet is the statically declared set of accounts a transaction touches
type AccessSet struct {
	// Writes holds the sender and every recipient, sorted and deduplicated
	Writes []AccountKey
	// Reads holds guarded accounts that are not also written, sorted and deduplicated
	Reads []AccountKey
}

// Len returns the number of distinct accounts in the set
func (set *AccessSet) Len() int {
	return len(set.Writes) + len(set.Reads)
}

// AccessSet returns the accounts tx reads and writes
func (tx *DomainTransaction) AccessSet() *AccessSet {
	writes := map[AccountKey]struct{}{tx.Sender: {}}
	for _, output := range tx.Outputs {
		writes[output.Recipient] = struct{}{}
	}
	reads := make(map[AccountKey]struct{})
	for _, guard := range tx.Guards {
		if _, ok := writes[guard.Account]; !ok {
			reads[guard.Account] = struct{}{}
		}
	}
	return &AccessSet{
		Writes: sortedAccountKeys(writes),
		Reads:  sortedAccountKeys(reads),
	}
}

func sortedAccountKeys(set map[AccountKey]struct{}) []AccountKey {
	keys := make([]AccountKey, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
