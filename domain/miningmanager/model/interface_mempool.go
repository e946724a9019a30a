package model

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// TransactionSource provides the candidate transactions of a block template,
// in the order they should be included. Sources are only read from.
type TransactionSource interface {
	Transactions() []*externalapi.DomainTransaction
}

// Mempool maintains a set of known transactions that
// are intended to be mined into new blocks
type Mempool interface {
	TransactionSource
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error
	HandleNewBlock(block *externalapi.DomainBlock) error
	TransactionCount() int
	HasTransaction(transactionID *externalapi.DomainTransactionID) bool
}
