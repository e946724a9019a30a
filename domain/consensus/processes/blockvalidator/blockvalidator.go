package blockvalidator

import (
	"time"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	genesisHash                 *externalapi.DomainHash
	blockBits                   uint32
	maxBlockParents             model.KType
	maxBlockTransactions        int
	mergeSetSizeLimit           uint64
	timestampDeviationTolerance time.Duration

	databaseContext    model.DBReader
	dagTopologyManager model.DAGTopologyManager
	pruningManager     model.PruningManager

	ghostdagDataStore model.GHOSTDAGDataStore
	blockHeaderStore  model.BlockHeaderStore
}

// New instantiates a new BlockValidator
func New(
	genesisHash *externalapi.DomainHash,
	blockBits uint32,
	maxBlockParents model.KType,
	maxBlockTransactions int,
	mergeSetSizeLimit uint64,
	timestampDeviationTolerance time.Duration,

	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	pruningManager model.PruningManager,

	ghostdagDataStore model.GHOSTDAGDataStore,
	blockHeaderStore model.BlockHeaderStore,
) model.BlockValidator {

	return &blockValidator{
		genesisHash:                 genesisHash,
		blockBits:                   blockBits,
		maxBlockParents:             maxBlockParents,
		maxBlockTransactions:        maxBlockTransactions,
		mergeSetSizeLimit:           mergeSetSizeLimit,
		timestampDeviationTolerance: timestampDeviationTolerance,

		databaseContext:    databaseContext,
		dagTopologyManager: dagTopologyManager,
		pruningManager:     pruningManager,

		ghostdagDataStore: ghostdagDataStore,
		blockHeaderStore:  blockHeaderStore,
	}
}
