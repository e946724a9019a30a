package consensusstatemanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// consensusStateManager manages the node's consensus state
type consensusStateManager struct {
	databaseContext    model.DBReader
	genesisAllocations []*externalapi.GenesisAllocation

	ghostdagManager     model.GHOSTDAGManager
	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	blockExecutor       model.BlockExecutor
	pruningManager      model.PruningManager
	orderingCaches      model.OrderingCaches

	blockStore          model.BlockStore
	ghostdagDataStore   model.GHOSTDAGDataStore
	consensusStateStore model.ConsensusStateStore
	topoheightStore     model.TopoheightStore
}

// New instantiates a new ConsensusStateManager
func New(
	databaseContext model.DBReader,
	genesisAllocations []*externalapi.GenesisAllocation,

	ghostdagManager model.GHOSTDAGManager,
	dagTopologyManager model.DAGTopologyManager,
	dagTraversalManager model.DAGTraversalManager,
	blockExecutor model.BlockExecutor,
	pruningManager model.PruningManager,
	orderingCaches model.OrderingCaches,

	blockStore model.BlockStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	consensusStateStore model.ConsensusStateStore,
	topoheightStore model.TopoheightStore) model.ConsensusStateManager {

	return &consensusStateManager{
		databaseContext:    databaseContext,
		genesisAllocations: genesisAllocations,

		ghostdagManager:     ghostdagManager,
		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		blockExecutor:       blockExecutor,
		pruningManager:      pruningManager,
		orderingCaches:      orderingCaches,

		blockStore:          blockStore,
		ghostdagDataStore:   ghostdagDataStore,
		consensusStateStore: consensusStateStore,
		topoheightStore:     topoheightStore,
	}
}

// InitGenesis makes genesisHash the only tip, the selected tip, the pruning
// point and topoheight 0, and funds the genesis allocations
func (csm *consensusStateManager) InitGenesis(stagingArea *model.StagingArea,
	genesisHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error) {

	log.Debugf("Initializing the consensus state with genesis %s", genesisHash)

	csm.consensusStateStore.StageTips(stagingArea, []*externalapi.DomainHash{genesisHash})
	csm.consensusStateStore.StageVirtualSelectedTip(stagingArea, genesisHash)
	csm.consensusStateStore.StagePruningPoint(stagingArea, genesisHash)
	csm.topoheightStore.StageTopoheight(stagingArea, genesisHash, 0)
	csm.topoheightStore.StageMaxTopoheight(stagingArea, 0)

	return csm.blockExecutor.ApplyAllocations(stagingArea, genesisHash, csm.genesisAllocations)
}
