package miningmanager

import (
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/domain/dagconfig"
	"github.com/topodag/topod/domain/miningmanager/blocktemplatebuilder"
	"github.com/topodag/topod/domain/miningmanager/mempool"
)

// Factory instantiates new mining managers
type Factory interface {
	NewMiningManager(consensus consensus.Consensus, params *dagconfig.Params, mempoolConfig *mempool.Config) MiningManager
}

type factory struct{}

// NewMiningManager instantiate a new mining manager
func (f *factory) NewMiningManager(consensus consensus.Consensus, params *dagconfig.Params,
	mempoolConfig *mempool.Config) MiningManager {

	if mempoolConfig == nil {
		mempoolConfig = mempool.DefaultConfig(params, accountlockmanager.MaxTransactionAccounts)
	}
	mempool := mempool.New(mempoolConfig, consensus)
	blockTemplateBuilder := blocktemplatebuilder.New(consensus, params.BlockBits, params.MaxBlockTransactions)

	return &miningManager{
		mempool:              mempool,
		blockTemplateBuilder: blockTemplateBuilder,
	}
}

// NewFactory creates a new mining manager factory
func NewFactory() Factory {
	return &factory{}
}
