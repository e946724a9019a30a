package consensusstatemanager

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// VirtualSelectedTip returns the best of the given tips: the one with the
// most blue work, or the lowest hash among equals
func (csm *consensusStateManager) VirtualSelectedTip(stagingArea *model.StagingArea,
	tips []*externalapi.DomainHash) (*externalapi.DomainHash, error) {

	if len(tips) == 0 {
		return nil, errors.New("cannot select a tip out of an empty set")
	}

	selectedTip := tips[0]
	for _, tip := range tips[1:] {
		isLess, err := csm.isLess(stagingArea, selectedTip, tip)
		if err != nil {
			return nil, err
		}
		if isLess {
			selectedTip = tip
		}
	}
	return selectedTip, nil
}

// SortTipsBestFirst returns a copy of tips, the best tip first
func (csm *consensusStateManager) SortTipsBestFirst(stagingArea *model.StagingArea,
	tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	sorted := externalapi.CloneHashes(tips)
	var sortErr error
	sort.Slice(sorted, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		jIsLess, err := csm.isLess(stagingArea, sorted[j], sorted[i])
		if err != nil {
			sortErr = err
			return false
		}
		return jIsLess
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return sorted, nil
}

// isLess compares two tips through the tip comparison cache
func (csm *consensusStateManager) isLess(stagingArea *model.StagingArea,
	blockHashA, blockHashB *externalapi.DomainHash) (bool, error) {

	if aIsLess, ok := csm.orderingCaches.TipComparison(blockHashA, blockHashB); ok {
		return aIsLess, nil
	}

	ghostdagDataA, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, blockHashA)
	if err != nil {
		return false, err
	}
	ghostdagDataB, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, blockHashB)
	if err != nil {
		return false, err
	}
	aIsLess := csm.ghostdagManager.Less(blockHashA, ghostdagDataA, blockHashB, ghostdagDataB)
	csm.orderingCaches.AddTipComparison(blockHashA, blockHashB, aIsLess)
	return aIsLess, nil
}
