package blockprocessor

import (
	"sync"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// blockProcessor is responsible for processing incoming blocks. It is the
// only writer of consensus state.
type blockProcessor struct {
	lock            sync.Mutex
	genesisHash     *externalapi.DomainHash
	databaseContext model.DBManager

	blockValidator        model.BlockValidator
	consensusStateManager model.ConsensusStateManager
	dagTopologyManager    model.DAGTopologyManager
	ghostdagManager       model.GHOSTDAGManager
	reachabilityManager   model.ReachabilityManager
	orderingCaches        model.OrderingCaches

	blockStore          model.BlockStore
	blockHeaderStore    model.BlockHeaderStore
	blockHeightStore    model.BlockHeightStore
	consensusStateStore model.ConsensusStateStore
	topoheightStore     model.TopoheightStore
}

// New instantiates a new BlockProcessor
func New(
	genesisHash *externalapi.DomainHash,
	databaseContext model.DBManager,

	blockValidator model.BlockValidator,
	consensusStateManager model.ConsensusStateManager,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagManager model.GHOSTDAGManager,
	reachabilityManager model.ReachabilityManager,
	orderingCaches model.OrderingCaches,

	blockStore model.BlockStore,
	blockHeaderStore model.BlockHeaderStore,
	blockHeightStore model.BlockHeightStore,
	consensusStateStore model.ConsensusStateStore,
	topoheightStore model.TopoheightStore,
) model.BlockProcessor {

	return &blockProcessor{
		genesisHash:     genesisHash,
		databaseContext: databaseContext,

		blockValidator:        blockValidator,
		consensusStateManager: consensusStateManager,
		dagTopologyManager:    dagTopologyManager,
		ghostdagManager:       ghostdagManager,
		reachabilityManager:   reachabilityManager,
		orderingCaches:        orderingCaches,

		blockStore:          blockStore,
		blockHeaderStore:    blockHeaderStore,
		blockHeightStore:    blockHeightStore,
		consensusStateStore: consensusStateStore,
		topoheightStore:     topoheightStore,
	}
}
