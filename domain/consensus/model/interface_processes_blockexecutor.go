package model

import (
	"context"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// BlockExecutor applies the transactions of blocks to the account state in
// topological order and reverts them when a reorg removes them from it
type BlockExecutor interface {
	ExecuteBlock(ctx context.Context, stagingArea *StagingArea, blockHash *externalapi.DomainHash,
		transactions []*externalapi.DomainTransaction) (*externalapi.BlockExecutionResult, error)
	ApplyAllocations(stagingArea *StagingArea, blockHash *externalapi.DomainHash,
		allocations []*externalapi.GenesisAllocation) (*externalapi.BlockExecutionResult, error)
	RevertBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error
	StateRoot(stagingArea *StagingArea) (*externalapi.DomainHash, error)
}
