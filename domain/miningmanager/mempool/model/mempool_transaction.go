package model

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
)

// MempoolTransaction represents a transaction inside the main TransactionPool
type MempoolTransaction struct {
	transaction *externalapi.DomainTransaction
	sequence    uint64
}

// NewMempoolTransaction constructs a new MempoolTransaction. sequence is
// the arrival position of the transaction in the pool.
func NewMempoolTransaction(transaction *externalapi.DomainTransaction, sequence uint64) *MempoolTransaction {
	return &MempoolTransaction{
		transaction: transaction,
		sequence:    sequence,
	}
}

// TransactionID returns the ID of this MempoolTransaction
func (mt *MempoolTransaction) TransactionID() *externalapi.DomainTransactionID {
	return consensushashing.TransactionID(mt.transaction)
}

// Transaction returns the DomainTransaction associated with this MempoolTransaction
func (mt *MempoolTransaction) Transaction() *externalapi.DomainTransaction {
	return mt.transaction
}

// Sequence returns the arrival position of the transaction
func (mt *MempoolTransaction) Sequence() uint64 {
	return mt.sequence
}
