package model

import (
	"sort"

	"github.com/pkg/errors"
)

// TransactionsOrderedByFee represents a set of MempoolTransactions ordered
// by fee, highest first. Equal fees keep arrival order.
type TransactionsOrderedByFee struct {
	slice []*MempoolTransaction
}

// Push inserts a transaction into the set, placing it in the correct place to preserve order
func (tobf *TransactionsOrderedByFee) Push(transaction *MempoolTransaction) {
	index := tobf.findTransactionIndex(transaction)

	tobf.slice = append(tobf.slice[:index],
		append([]*MempoolTransaction{transaction}, tobf.slice[index:]...)...)
}

// Remove removes the given transaction from the set.
// Returns an error if transaction does not exist in the set.
func (tobf *TransactionsOrderedByFee) Remove(transaction *MempoolTransaction) error {
	index := tobf.findTransactionIndex(transaction)

	txID := transaction.TransactionID()
	if index >= len(tobf.slice) || !tobf.slice[index].TransactionID().Equal(txID) {
		return errors.Errorf("Couldn't find %s in the transactions ordered by fee", txID)
	}

	return tobf.RemoveAtIndex(index)
}

// RemoveAtIndex removes the transaction at the given index.
// Returns an error in case of out-of-bounds index.
func (tobf *TransactionsOrderedByFee) RemoveAtIndex(index int) error {
	if index < 0 || index > len(tobf.slice)-1 {
		return errors.Errorf("Index %d is out of bound of this TransactionsOrderedByFee", index)
	}
	tobf.slice = append(tobf.slice[:index], tobf.slice[index+1:]...)
	return nil
}

// GetByIndex returns the transaction in the given index
func (tobf *TransactionsOrderedByFee) GetByIndex(index int) *MempoolTransaction {
	return tobf.slice[index]
}

// Len returns the number of transactions in the set
func (tobf *TransactionsOrderedByFee) Len() int {
	return len(tobf.slice)
}

// findTransactionIndex returns the index at which transaction is stored, or
// at which it should be inserted
func (tobf *TransactionsOrderedByFee) findTransactionIndex(transaction *MempoolTransaction) int {
	fee := transaction.Transaction().Fee
	sequence := transaction.Sequence()

	return sort.Search(len(tobf.slice), func(i int) bool {
		element := tobf.slice[i]
		elementFee := element.Transaction().Fee
		if elementFee != fee {
			return elementFee < fee
		}
		return element.Sequence() >= sequence
	})
}
