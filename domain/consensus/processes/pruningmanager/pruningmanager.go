package pruningmanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/infrastructure/logger"
)

// pruningManager resolves and manages the current pruning point. The
// pruning point is the highest selected chain block that lies at least
// retention topoheights below the top of the order. Blocks ordered before
// it are prunable.
type pruningManager struct {
	databaseContext model.DBReader

	dagTraversalManager model.DAGTraversalManager
	dagTopologyManager  model.DAGTopologyManager

	consensusStateStore model.ConsensusStateStore
	topoheightStore     model.TopoheightStore

	retention uint64
}

// New instantiates a new PruningManager
func New(
	databaseContext model.DBReader,

	dagTraversalManager model.DAGTraversalManager,
	dagTopologyManager model.DAGTopologyManager,

	consensusStateStore model.ConsensusStateStore,
	topoheightStore model.TopoheightStore,

	retention uint64,
) model.PruningManager {

	return &pruningManager{
		databaseContext:     databaseContext,
		dagTraversalManager: dagTraversalManager,
		dagTopologyManager:  dagTopologyManager,
		consensusStateStore: consensusStateStore,
		topoheightStore:     topoheightStore,
		retention:           retention,
	}
}

// UpdatePruningPoint moves the pruning point up selectedTip's chain, if the
// order has grown enough. It returns the blocks that became prunable, in
// topological order.
func (pm *pruningManager) UpdatePruningPoint(stagingArea *model.StagingArea,
	selectedTip *externalapi.DomainHash) (pruned []*externalapi.DomainHash, err error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "pruningManager.UpdatePruningPoint")
	defer onEnd()

	maxTopoheight, err := pm.topoheightStore.MaxTopoheight(pm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if maxTopoheight < pm.retention {
		return nil, nil
	}

	currentPruningPoint, err := pm.consensusStateStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	candidate, err := pm.dagTraversalManager.ChainBlockAtOrBelowTopoheight(
		stagingArea, selectedTip, maxTopoheight-pm.retention)
	if err != nil {
		return nil, err
	}
	if candidate.Equal(currentPruningPoint) {
		return nil, nil
	}

	currentTopoheight, err := pm.topoheightStore.Topoheight(pm.databaseContext, stagingArea, currentPruningPoint)
	if err != nil {
		return nil, err
	}
	candidateTopoheight, err := pm.topoheightStore.Topoheight(pm.databaseContext, stagingArea, candidate)
	if err != nil {
		return nil, err
	}
	// The order below the pruning point is final, so a candidate at or
	// below it means the order shrank after a reorg
	if candidateTopoheight <= currentTopoheight {
		return nil, nil
	}

	pruned = make([]*externalapi.DomainHash, 0, candidateTopoheight-currentTopoheight)
	for topoheight := currentTopoheight; topoheight < candidateTopoheight; topoheight++ {
		blockHash, err := pm.topoheightStore.BlockAtTopoheight(pm.databaseContext, stagingArea, topoheight)
		if err != nil {
			return nil, err
		}
		pruned = append(pruned, blockHash)
	}

	pm.consensusStateStore.StagePruningPoint(stagingArea, candidate)
	log.Infof("Pruning point moved from %s (topoheight %d) to %s (topoheight %d)",
		currentPruningPoint, currentTopoheight, candidate, candidateTopoheight)

	return pruned, nil
}

// IsInPruningPointFuture returns whether a block with the given parents
// would be in the future of the pruning point. Every parent has to be.
func (pm *pruningManager) IsInPruningPointFuture(stagingArea *model.StagingArea,
	parentHashes []*externalapi.DomainHash) (bool, error) {

	pruningPoint, err := pm.consensusStateStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}
	for _, parentHash := range parentHashes {
		isInFuture, err := pm.dagTopologyManager.IsAncestorOf(stagingArea, pruningPoint, parentHash)
		if err != nil {
			return false, err
		}
		if !isInFuture {
			return false, nil
		}
	}
	return true, nil
}

// IsTipInPruningPointFuture returns whether the pruning point is on the
// selected parent chain of tipHash, tipHash included. The chains of any two
// such tips meet at or above the pruning point.
func (pm *pruningManager) IsTipInPruningPointFuture(stagingArea *model.StagingArea,
	tipHash *externalapi.DomainHash) (bool, error) {

	pruningPoint, err := pm.consensusStateStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}
	return pm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, pruningPoint, tipHash)
}
