package mempool

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/miningmanager/mempool/model"
)

// handleNewBlock drops the block's transactions from the pool, along with
// every pooled transaction of the same senders whose nonce is already used
func (mp *mempool) handleNewBlock(block *externalapi.DomainBlock) error {
	senders := make(map[externalapi.AccountKey]struct{})
	for _, transaction := range block.Transactions {
		senders[transaction.Sender] = struct{}{}

		mempoolTransaction, ok := mp.transactionsPool.allTransactions[*consensushashing.TransactionID(transaction)]
		if !ok {
			continue
		}
		err := mp.transactionsPool.removeTransaction(mempoolTransaction)
		if err != nil {
			return err
		}
	}

	var obsolete []*model.MempoolTransaction
	for sender := range senders {
		account, err := mp.consensus.GetAccount(sender)
		if err != nil {
			return err
		}
		for slot, mempoolTransaction := range mp.transactionsPool.transactionsBySenderSlot {
			if slot.Sender == sender && slot.Nonce < account.Nonce {
				obsolete = append(obsolete, mempoolTransaction)
			}
		}
	}
	for _, mempoolTransaction := range obsolete {
		log.Debugf("Removing transaction %s: its nonce was used", mempoolTransaction.TransactionID())
		err := mp.transactionsPool.removeTransaction(mempoolTransaction)
		if err != nil {
			return err
		}
	}
	return nil
}
