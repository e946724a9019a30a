package model

import (
	"context"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// ConsensusStateManager manages the tips, the virtual selected chain and
// the topological order, and drives block execution along it
type ConsensusStateManager interface {
	InitGenesis(stagingArea *StagingArea, genesisHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error)
	AddBlockToVirtual(ctx context.Context, stagingArea *StagingArea,
		blockHash *externalapi.DomainHash) (*externalapi.VirtualChangeSet, error)
	VirtualSelectedTip(stagingArea *StagingArea, tips []*externalapi.DomainHash) (*externalapi.DomainHash, error)
	SortTipsBestFirst(stagingArea *StagingArea, tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error)
}
