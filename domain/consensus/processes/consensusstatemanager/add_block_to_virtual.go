package consensusstatemanager

import (
	"context"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/infrastructure/logger"
)

// AddBlockToVirtual updates the tips with blockHash, moves the virtual
// selected chain if the best tip changed, re-executes whatever the move
// reordered and advances the pruning point
func (csm *consensusStateManager) AddBlockToVirtual(ctx context.Context, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.VirtualChangeSet, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "AddBlockToVirtual")
	defer onEnd()

	newTips, err := csm.addTip(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	oldSelectedTip, err := csm.consensusStateStore.VirtualSelectedTip(csm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	newSelectedTip, err := csm.VirtualSelectedTip(stagingArea, newTips)
	if err != nil {
		return nil, err
	}
	log.Debugf("The virtual selected tip after adding %s is %s", blockHash, newSelectedTip)

	changeSet := &externalapi.VirtualChangeSet{SelectedTip: newSelectedTip}
	if !newSelectedTip.Equal(oldSelectedTip) {
		err = csm.moveSelectedTip(ctx, stagingArea, oldSelectedTip, newSelectedTip, changeSet)
		if err != nil {
			return nil, err
		}
	}

	pruned, err := csm.pruningManager.UpdatePruningPoint(stagingArea, newSelectedTip)
	if err != nil {
		return nil, err
	}
	if len(pruned) > 0 {
		changeSet.Pruned = pruned
		newTips, err = csm.pruneTips(stagingArea, newTips)
		if err != nil {
			return nil, err
		}
	}

	csm.consensusStateStore.StageTips(stagingArea, newTips)
	csm.consensusStateStore.StageVirtualSelectedTip(stagingArea, newSelectedTip)
	changeSet.NewTips = newTips

	return changeSet, nil
}

// addTip returns the tips once blockHash is added: its parents are no
// longer tips and the block itself is
func (csm *consensusStateManager) addTip(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	tips, err := csm.consensusStateStore.Tips(csm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	parents, err := csm.dagTopologyManager.Parents(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	newTips := make([]*externalapi.DomainHash, 0, len(tips)+1)
	for _, tip := range tips {
		if !externalapi.HashesContain(parents, tip) {
			newTips = append(newTips, tip)
		}
	}
	return append(newTips, blockHash), nil
}

// pruneTips drops the tips that are outside the pruning point's future
func (csm *consensusStateManager) pruneTips(stagingArea *model.StagingArea,
	tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	newTips := make([]*externalapi.DomainHash, 0, len(tips))
	for _, tip := range tips {
		isInFuture, err := csm.pruningManager.IsTipInPruningPointFuture(stagingArea, tip)
		if err != nil {
			return nil, err
		}
		if !isInFuture {
			log.Debugf("Tip %s left the tips: it is not in the pruning point's future", tip)
			continue
		}
		newTips = append(newTips, tip)
	}
	return newTips, nil
}
