package miningmanager

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	miningmanagermodel "github.com/topodag/topod/domain/miningmanager/model"
)

// MiningManager creates block templates for mining as well as maintaining
// known transactions that have not yet been added to any block
type MiningManager interface {
	GetBlockTemplate(timeInMilliseconds int64) (*externalapi.DomainBlock, error)
	HandleNewBlock(block *externalapi.DomainBlock) error
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error
	TransactionCount() int
}

type miningManager struct {
	mempool              miningmanagermodel.Mempool
	blockTemplateBuilder miningmanagermodel.BlockTemplateBuilder
}

// GetBlockTemplate creates a block template for a miner to consume, filled
// from the mempool
func (mm *miningManager) GetBlockTemplate(timeInMilliseconds int64) (*externalapi.DomainBlock, error) {
	return mm.blockTemplateBuilder.BuildBlockTemplate(mm.mempool, timeInMilliseconds)
}

// HandleNewBlock handles a new block that was just added to the DAG
func (mm *miningManager) HandleNewBlock(block *externalapi.DomainBlock) error {
	return mm.mempool.HandleNewBlock(block)
}

// ValidateAndInsertTransaction validates the given transaction, and
// adds it to the set of known transactions that have not yet been
// added to any block
func (mm *miningManager) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	return mm.mempool.ValidateAndInsertTransaction(transaction)
}

// TransactionCount returns the number of transactions in the mempool
func (mm *miningManager) TransactionCount() int {
	return mm.mempool.TransactionCount()
}
