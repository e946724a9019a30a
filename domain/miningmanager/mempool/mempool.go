package mempool

import (
	"sync"

	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	miningmanagermodel "github.com/topodag/topod/domain/miningmanager/model"
)

type mempool struct {
	mtx sync.RWMutex

	config    *Config
	consensus consensus.Consensus

	transactionsPool *transactionsPool
}

// New constructs a new mempool
func New(config *Config, consensus consensus.Consensus) miningmanagermodel.Mempool {
	mp := &mempool{
		config:    config,
		consensus: consensus,
	}
	mp.transactionsPool = newTransactionsPool(mp)
	return mp
}

func (mp *mempool) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.validateAndInsertTransaction(transaction)
}

func (mp *mempool) HandleNewBlock(block *externalapi.DomainBlock) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	return mp.handleNewBlock(block)
}

func (mp *mempool) Transactions() []*externalapi.DomainTransaction {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.orderedTransactions()
}

func (mp *mempool) TransactionCount() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return len(mp.transactionsPool.allTransactions)
}

func (mp *mempool) HasTransaction(transactionID *externalapi.DomainTransactionID) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	_, ok := mp.transactionsPool.allTransactions[*transactionID]
	return ok
}
