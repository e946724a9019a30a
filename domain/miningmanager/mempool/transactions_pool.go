package mempool

import (
	"sort"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/miningmanager/mempool/model"
)

type transactionsPool struct {
	mempool                  *mempool
	allTransactions          model.IDToTransaction
	transactionsBySenderSlot model.SenderNonceToTransaction
	transactionsOrderedByFee model.TransactionsOrderedByFee
	nextSequence             uint64
}

func newTransactionsPool(mp *mempool) *transactionsPool {
	return &transactionsPool{
		mempool:                  mp,
		allTransactions:          model.IDToTransaction{},
		transactionsBySenderSlot: model.SenderNonceToTransaction{},
		transactionsOrderedByFee: model.TransactionsOrderedByFee{},
	}
}

func senderSlot(transaction *externalapi.DomainTransaction) model.SenderNonce {
	return model.SenderNonce{Sender: transaction.Sender, Nonce: transaction.Nonce}
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) addTransaction(transaction *externalapi.DomainTransaction) *model.MempoolTransaction {
	mempoolTransaction := model.NewMempoolTransaction(transaction, tp.nextSequence)
	tp.nextSequence++

	tp.allTransactions[*mempoolTransaction.TransactionID()] = mempoolTransaction
	tp.transactionsBySenderSlot[senderSlot(transaction)] = mempoolTransaction
	tp.transactionsOrderedByFee.Push(mempoolTransaction)

	return mempoolTransaction
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) removeTransaction(mempoolTransaction *model.MempoolTransaction) error {
	delete(tp.allTransactions, *mempoolTransaction.TransactionID())

	slot := senderSlot(mempoolTransaction.Transaction())
	if tp.transactionsBySenderSlot[slot] == mempoolTransaction {
		delete(tp.transactionsBySenderSlot, slot)
	}

	return tp.transactionsOrderedByFee.Remove(mempoolTransaction)
}

// orderedTransactions returns clones of all the transactions in the pool,
// highest fee first. The positions taken by a single sender's transactions
// are refilled in nonce order, so a sender's transactions never appear out
// of nonce order.
//
// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) orderedTransactions() []*externalapi.DomainTransaction {
	count := tp.transactionsOrderedByFee.Len()
	transactions := make([]*externalapi.DomainTransaction, count)
	positionsBySender := make(map[externalapi.AccountKey][]int)
	for i := 0; i < count; i++ {
		transaction := tp.transactionsOrderedByFee.GetByIndex(i).Transaction()
		transactions[i] = transaction.Clone()
		positionsBySender[transaction.Sender] = append(positionsBySender[transaction.Sender], i)
	}

	for _, positions := range positionsBySender {
		if len(positions) < 2 {
			continue
		}
		senderTransactions := make([]*externalapi.DomainTransaction, len(positions))
		for i, position := range positions {
			senderTransactions[i] = transactions[position]
		}
		sort.Slice(senderTransactions, func(i, j int) bool {
			return senderTransactions[i].Nonce < senderTransactions[j].Nonce
		})
		for i, position := range positions {
			transactions[position] = senderTransactions[i]
		}
	}

	return transactions
}

// limitTransactionCount evicts the lowest-fee transactions while the pool
// is over its maximum size, and returns the IDs it evicted
//
// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) limitTransactionCount() (map[externalapi.DomainTransactionID]bool, error) {
	evicted := make(map[externalapi.DomainTransactionID]bool)
	for len(tp.allTransactions) > tp.mempool.config.MaximumTransactionCount {
		lowest := tp.transactionsOrderedByFee.GetByIndex(tp.transactionsOrderedByFee.Len() - 1)
		log.Debugf("Evicting transaction %s: the mempool is full", lowest.TransactionID())
		err := tp.removeTransaction(lowest)
		if err != nil {
			return nil, err
		}
		evicted[*lowest.TransactionID()] = true
	}
	return evicted, nil
}
