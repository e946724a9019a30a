package consensusstatemanager

import (
	"context"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// moveSelectedTip moves the virtual selected chain from oldSelectedTip to
// newSelectedTip. Everything ordered above the common chain ancestor is
// reverted and loses its topoheight. Then every added chain block appends
// its sorted merge set followed by itself to the order, and each newly
// ordered block is executed.
func (csm *consensusStateManager) moveSelectedTip(ctx context.Context, stagingArea *model.StagingArea,
	oldSelectedTip, newSelectedTip *externalapi.DomainHash, changeSet *externalapi.VirtualChangeSet) error {

	chainChanges, err := csm.dagTraversalManager.CalculateChainPath(stagingArea, oldSelectedTip, newSelectedTip)
	if err != nil {
		return err
	}
	firstAdded, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, chainChanges.Added[0])
	if err != nil {
		return err
	}
	commonAncestor := firstAdded.SelectedParent()
	commonAncestorTopoheight, err := csm.topoheightStore.Topoheight(csm.databaseContext, stagingArea, commonAncestor)
	if err != nil {
		return err
	}
	err = csm.checkAbovePruningPoint(stagingArea, commonAncestor, commonAncestorTopoheight)
	if err != nil {
		return err
	}

	reordered, err := csm.unorderAbove(stagingArea, commonAncestorTopoheight)
	if err != nil {
		return err
	}

	topoheight := commonAncestorTopoheight
	var executionResults []*externalapi.BlockExecutionResult
	for _, chainBlock := range chainChanges.Added {
		mergeSet, err := csm.ghostdagManager.GetSortedMergeSet(stagingArea, chainBlock)
		if err != nil {
			return err
		}
		for _, blockHash := range append(mergeSet, chainBlock) {
			topoheight++
			result, err := csm.order(ctx, stagingArea, blockHash, topoheight)
			if err != nil {
				return err
			}
			executionResults = append(executionResults, result)
		}
	}
	csm.topoheightStore.StageMaxTopoheight(stagingArea, topoheight)

	changeSet.ChainChanged = true
	changeSet.ChainChanges = chainChanges
	changeSet.ReorgRange = &externalapi.TopoheightRange{Start: commonAncestorTopoheight + 1, End: topoheight}
	changeSet.Reordered = reordered
	changeSet.ExecutionResults = executionResults

	if len(chainChanges.Removed) > 0 {
		log.Infof("Reorg: %d chain blocks removed and %d added below %s, topoheights %d to %d rewritten",
			len(chainChanges.Removed), len(chainChanges.Added), commonAncestor,
			changeSet.ReorgRange.Start, changeSet.ReorgRange.End)
	}
	return nil
}

// checkAbovePruningPoint fails when a chain move would reorder blocks below
// the pruning point. Every tip has the pruning point on its selected parent
// chain, so this holds for every valid move.
func (csm *consensusStateManager) checkAbovePruningPoint(stagingArea *model.StagingArea,
	commonAncestor *externalapi.DomainHash, commonAncestorTopoheight uint64) error {

	pruningPoint, err := csm.consensusStateStore.PruningPoint(csm.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	pruningPointTopoheight, err := csm.topoheightStore.Topoheight(csm.databaseContext, stagingArea, pruningPoint)
	if err != nil {
		return err
	}
	if commonAncestorTopoheight < pruningPointTopoheight {
		return errors.Errorf("the chain would be rewritten from %s at topoheight %d, "+
			"below the pruning point %s at topoheight %d",
			commonAncestor, commonAncestorTopoheight, pruningPoint, pruningPointTopoheight)
	}
	return nil
}

// unorderAbove reverts every block ordered above topoheight, from the top
// down, and removes it from the order
func (csm *consensusStateManager) unorderAbove(stagingArea *model.StagingArea,
	topoheight uint64) ([]*externalapi.DomainHash, error) {

	maxTopoheight, err := csm.topoheightStore.MaxTopoheight(csm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	var unordered []*externalapi.DomainHash
	for current := maxTopoheight; current > topoheight; current-- {
		blockHash, err := csm.topoheightStore.BlockAtTopoheight(csm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		err = csm.blockExecutor.RevertBlock(stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		csm.topoheightStore.StageRemoval(stagingArea, blockHash, current)
		unordered = append(unordered, blockHash)
	}
	return unordered, nil
}

// order places blockHash at topoheight and executes its transactions
func (csm *consensusStateManager) order(ctx context.Context, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, topoheight uint64) (*externalapi.BlockExecutionResult, error) {

	csm.topoheightStore.StageTopoheight(stagingArea, blockHash, topoheight)

	transactions, err := csm.blockStore.Transactions(csm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return csm.blockExecutor.ExecuteBlock(ctx, stagingArea, blockHash, transactions)
}
