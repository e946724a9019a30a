package ghostdagmanager

import (
	"sort"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

func (gm *ghostdagManager) mergeSetWithoutSelectedParent(stagingArea *model.StagingArea,
	selectedParent *externalapi.DomainHash, blockParents []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	mergeSetMap := make(map[externalapi.DomainHash]struct{}, gm.k)
	mergeSetSlice := make([]*externalapi.DomainHash, 0, gm.k)
	selectedParentPast := make(map[externalapi.DomainHash]struct{})
	queue := []*externalapi.DomainHash{}
	// Queueing all parents (other than the selected parent itself) for processing.
	for _, parent := range blockParents {
		if parent.Equal(selectedParent) {
			continue
		}
		mergeSetMap[*parent] = struct{}{}
		mergeSetSlice = append(mergeSetSlice, parent)
		queue = append(queue, parent)
	}

	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]
		// For each parent of the current block we check whether it is in the past of the selected parent. If not,
		// we add it to the resulting merge-set and queue it for further processing.
		currentParents, err := gm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, err
		}
		for _, parent := range currentParents {
			if _, ok := mergeSetMap[*parent]; ok {
				continue
			}

			if _, ok := selectedParentPast[*parent]; ok {
				continue
			}

			isAncestorOfSelectedParent, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, parent, selectedParent)
			if err != nil {
				return nil, err
			}

			if isAncestorOfSelectedParent {
				selectedParentPast[*parent] = struct{}{}
				continue
			}

			mergeSetMap[*parent] = struct{}{}
			mergeSetSlice = append(mergeSetSlice, parent)
			queue = append(queue, parent)
		}
	}

	err := gm.sortMergeSet(stagingArea, mergeSetSlice)
	if err != nil {
		return nil, err
	}

	return mergeSetSlice, nil
}

// sortMergeSet sorts the merge set ascending by blue work, and by hash
// among blocks of equal blue work. Since blue work strictly grows along
// ancestry this is also a topological order.
func (gm *ghostdagManager) sortMergeSet(stagingArea *model.StagingArea, mergeSetSlice []*externalapi.DomainHash) error {
	blueWorks := make(map[externalapi.DomainHash]*model.BlockGHOSTDAGData, len(mergeSetSlice))
	for _, blockHash := range mergeSetSlice {
		ghostdagData, err := gm.ghostdagData(stagingArea, blockHash)
		if err != nil {
			return err
		}
		blueWorks[*blockHash] = ghostdagData
	}

	sort.Slice(mergeSetSlice, func(i, j int) bool {
		blockA, blockB := mergeSetSlice[i], mergeSetSlice[j]
		switch blueWorks[*blockA].BlueWork().Cmp(blueWorks[*blockB].BlueWork()) {
		case -1:
			return true
		case 1:
			return false
		}
		return blockA.Less(blockB)
	})
	return nil
}

// GetSortedMergeSet returns the merge set of current without its selected
// parent, in the order used for the topological ordering
func (gm *ghostdagManager) GetSortedMergeSet(stagingArea *model.StagingArea,
	current *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	currentGHOSTDAGData, err := gm.ghostdagData(stagingArea, current)
	if err != nil {
		return nil, err
	}

	mergeSet := make([]*externalapi.DomainHash, 0, currentGHOSTDAGData.MergeSetSize())
	for _, blockHash := range currentGHOSTDAGData.MergeSet() {
		if blockHash.Equal(currentGHOSTDAGData.SelectedParent()) {
			continue
		}
		mergeSet = append(mergeSet, blockHash)
	}

	err = gm.sortMergeSet(stagingArea, mergeSet)
	if err != nil {
		return nil, err
	}
	return mergeSet, nil
}
