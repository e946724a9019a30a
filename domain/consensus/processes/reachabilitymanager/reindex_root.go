package reachabilitymanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// UpdateReindexRoot moves the reindex root toward selectedTip. The root
// follows the selected chain, staying reindexWindow blue score behind the
// tip, and concentrates its interval in its chain child on every step. A
// selected tip outside the root's subtree moves the root back up to their
// common ancestor first.
func (rt *reachabilityManager) UpdateReindexRoot(stagingArea *model.StagingArea,
	selectedTip *externalapi.DomainHash) error {

	originalReindexRoot, err := rt.reindexRoot(stagingArea)
	if err != nil {
		return err
	}

	reindexRoot := originalReindexRoot
	for {
		next, moved, err := rt.nextReindexRoot(stagingArea, reindexRoot, selectedTip)
		if err != nil {
			return err
		}
		if !moved {
			break
		}
		reindexRoot = next
	}

	if !reindexRoot.Equal(originalReindexRoot) {
		log.Debugf("Moved the reachability reindex root from %s to %s", originalReindexRoot, reindexRoot)
		rt.stageReindexRoot(stagingArea, reindexRoot)
	}
	return nil
}

func (rt *reachabilityManager) nextReindexRoot(stagingArea *model.StagingArea,
	reindexRoot, selectedTip *externalapi.DomainHash) (next *externalapi.DomainHash, moved bool, err error) {

	if reindexRoot.Equal(selectedTip) {
		return nil, false, nil
	}

	isAncestorOfSelectedTip, err := rt.IsReachabilityTreeAncestorOf(stagingArea, reindexRoot, selectedTip)
	if err != nil {
		return nil, false, err
	}
	if !isAncestorOfSelectedTip {
		commonAncestor, err := rt.commonAncestorWithReindexRoot(stagingArea, selectedTip, reindexRoot)
		if err != nil {
			return nil, false, err
		}
		return commonAncestor, true, nil
	}

	chosenChild, err := rt.childOnPathTo(stagingArea, reindexRoot, selectedTip)
	if err != nil {
		return nil, false, err
	}
	selectedTipGHOSTDAGData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, selectedTip)
	if err != nil {
		return nil, false, err
	}
	chosenChildGHOSTDAGData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, chosenChild)
	if err != nil {
		return nil, false, err
	}
	if selectedTipGHOSTDAGData.BlueScore()-chosenChildGHOSTDAGData.BlueScore() < rt.reindexWindow {
		return nil, false, nil
	}

	err = rt.concentrateIntervalAroundChosenChild(stagingArea, reindexRoot, chosenChild)
	if err != nil {
		return nil, false, err
	}
	return chosenChild, true, nil
}

// commonAncestorWithReindexRoot climbs from node to the first tree ancestor
// of reindexRoot. The climb is short since node is almost always a recent
// block.
func (rt *reachabilityManager) commonAncestorWithReindexRoot(stagingArea *model.StagingArea,
	node, reindexRoot *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	current := node
	for {
		isAncestor, err := rt.IsReachabilityTreeAncestorOf(stagingArea, current, reindexRoot)
		if err != nil {
			return nil, err
		}
		if isAncestor {
			return current, nil
		}
		current, err = rt.parent(stagingArea, current)
		if err != nil {
			return nil, err
		}
	}
}

// concentrateIntervalAroundChosenChild packs the other children of
// reindexRoot tightly against its edges, reindexSlack away from them, and
// hands everything in between to chosenChild
func (rt *reachabilityManager) concentrateIntervalAroundChosenChild(stagingArea *model.StagingArea,
	reindexRoot, chosenChild *externalapi.DomainHash) error {

	before, after, err := rt.splitChildrenAroundChild(stagingArea, reindexRoot, chosenChild)
	if err != nil {
		return err
	}
	reindexRootInterval, err := rt.interval(stagingArea, reindexRoot)
	if err != nil {
		return err
	}

	beforeSizes, beforeSubtreeSizes, beforeSum, err := rt.subtreeSizes(stagingArea, before)
	if err != nil {
		return err
	}
	beforeStart := reindexRootInterval.Start + rt.reindexSlack
	err = rt.propagateTightIntervals(stagingArea,
		newReachabilityInterval(beforeStart, beforeStart+beforeSum-1), before, beforeSizes, beforeSubtreeSizes)
	if err != nil {
		return err
	}

	afterSizes, afterSubtreeSizes, afterSum, err := rt.subtreeSizes(stagingArea, after)
	if err != nil {
		return err
	}
	afterEnd := reindexRootInterval.End - 1 - rt.reindexSlack
	err = rt.propagateTightIntervals(stagingArea,
		newReachabilityInterval(afterEnd-afterSum+1, afterEnd), after, afterSizes, afterSubtreeSizes)
	if err != nil {
		return err
	}

	return rt.expandChosenChildInterval(stagingArea, chosenChild,
		newReachabilityInterval(beforeStart+beforeSum, afterEnd-afterSum))
}

// expandChosenChildInterval gives chosenChild the interval expanded. When
// the current interval of chosenChild does not fit in it, the subtree is
// reallocated with reindexSlack kept free on both sides, so that the next
// move of the reindex root is likely to find it already in place.
func (rt *reachabilityManager) expandChosenChildInterval(stagingArea *model.StagingArea,
	chosenChild *externalapi.DomainHash, expanded *model.ReachabilityInterval) error {

	chosenChildInterval, err := rt.interval(stagingArea, chosenChild)
	if err != nil {
		return err
	}

	if !intervalContains(expanded, chosenChildInterval) {
		err := rt.relabel(stagingArea, chosenChild,
			newReachabilityInterval(expanded.Start+rt.reindexSlack, expanded.End-rt.reindexSlack))
		if err != nil {
			return err
		}
		err = rt.countSubtreesAndPropagateInterval(stagingArea, chosenChild)
		if err != nil {
			return err
		}
	}

	return rt.relabel(stagingArea, chosenChild, expanded)
}

// reindexIntervalsEarlierThanReindexRoot makes room for the new child of
// node, which is outside the subtree of reindexRoot. The slot is taken from
// the slack next to the chain leading from the common ancestor of both to
// reindexRoot, on the side of that chain where node lies.
func (rt *reachabilityManager) reindexIntervalsEarlierThanReindexRoot(stagingArea *model.StagingArea,
	node, reindexRoot *externalapi.DomainHash) error {

	commonAncestor, err := rt.commonAncestorWithReindexRoot(stagingArea, node, reindexRoot)
	if err != nil {
		return err
	}
	chosenChild, err := rt.childOnPathTo(stagingArea, commonAncestor, reindexRoot)
	if err != nil {
		return err
	}

	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return err
	}
	chosenChildInterval, err := rt.interval(stagingArea, chosenChild)
	if err != nil {
		return err
	}

	if nodeInterval.End < chosenChildInterval.Start {
		return rt.reclaimIntervalBefore(stagingArea, commonAncestor, chosenChild, reindexRoot)
	}
	// node is either after the chain or the common ancestor itself, whose
	// new child is its last
	return rt.reclaimIntervalAfter(stagingArea, commonAncestor, chosenChild, reindexRoot)
}

// reclaimIntervalBefore finds the first block on the chain from chosenChild
// to reindexRoot with free space before its first child, then walks back up
// to commonAncestor shifting each chain block's start right by one and
// packing its earlier siblings tightly against it
func (rt *reachabilityManager) reclaimIntervalBefore(stagingArea *model.StagingArea,
	commonAncestor, chosenChild, reindexRoot *externalapi.DomainHash) error {

	current := chosenChild
	for {
		free, err := rt.unallocatedRangeBefore(stagingArea, current)
		if err != nil {
			return err
		}
		if intervalSize(free) > 0 {
			break
		}
		if current.Equal(reindexRoot) {
			// Free one slot at the start of the reindex root by reallocating
			// its subtree without it
			err := rt.shrinkAndPropagate(stagingArea, current, reclaimSlack, 0)
			if err != nil {
				return err
			}
			break
		}
		current, err = rt.childOnPathTo(stagingArea, current, reindexRoot)
		if err != nil {
			return err
		}
	}

	for !current.Equal(commonAncestor) {
		currentInterval, err := rt.interval(stagingArea, current)
		if err != nil {
			return err
		}
		err = rt.relabel(stagingArea, current,
			newReachabilityInterval(currentInterval.Start+reclaimSlack, currentInterval.End))
		if err != nil {
			return err
		}

		parent, err := rt.parent(stagingArea, current)
		if err != nil {
			return err
		}
		err = rt.packChildrenBefore(stagingArea, parent, current)
		if err != nil {
			return err
		}
		current = parent
	}
	return nil
}

// reclaimIntervalAfter mirrors reclaimIntervalBefore on the end side
func (rt *reachabilityManager) reclaimIntervalAfter(stagingArea *model.StagingArea,
	commonAncestor, chosenChild, reindexRoot *externalapi.DomainHash) error {

	current := chosenChild
	for {
		free, err := rt.unallocatedRangeAfter(stagingArea, current)
		if err != nil {
			return err
		}
		if intervalSize(free) > 0 {
			break
		}
		if current.Equal(reindexRoot) {
			err := rt.shrinkAndPropagate(stagingArea, current, 0, reclaimSlack)
			if err != nil {
				return err
			}
			break
		}
		current, err = rt.childOnPathTo(stagingArea, current, reindexRoot)
		if err != nil {
			return err
		}
	}

	for !current.Equal(commonAncestor) {
		currentInterval, err := rt.interval(stagingArea, current)
		if err != nil {
			return err
		}
		err = rt.relabel(stagingArea, current,
			newReachabilityInterval(currentInterval.Start, currentInterval.End-reclaimSlack))
		if err != nil {
			return err
		}

		parent, err := rt.parent(stagingArea, current)
		if err != nil {
			return err
		}
		err = rt.packChildrenAfter(stagingArea, parent, current)
		if err != nil {
			return err
		}
		current = parent
	}
	return nil
}

// shrinkAndPropagate reallocates the subtree of node as if its interval
// were trimmed by the given amounts, then restores node's own interval
func (rt *reachabilityManager) shrinkAndPropagate(stagingArea *model.StagingArea,
	node *externalapi.DomainHash, trimStart, trimEnd uint64) error {

	original, err := rt.interval(stagingArea, node)
	if err != nil {
		return err
	}
	err = rt.stageInterval(stagingArea, node,
		newReachabilityInterval(original.Start+trimStart, original.End-trimEnd))
	if err != nil {
		return err
	}
	err = rt.countSubtreesAndPropagateInterval(stagingArea, node)
	if err != nil {
		return err
	}
	return rt.stageInterval(stagingArea, node, original)
}

// packChildrenBefore packs the children of parent that precede child so
// that they end right before child starts. child itself is untouched.
func (rt *reachabilityManager) packChildrenBefore(stagingArea *model.StagingArea,
	parent, child *externalapi.DomainHash) error {

	before, _, err := rt.splitChildrenAroundChild(stagingArea, parent, child)
	if err != nil {
		return err
	}
	sizes, subtreeSizes, sum, err := rt.subtreeSizes(stagingArea, before)
	if err != nil {
		return err
	}
	childInterval, err := rt.interval(stagingArea, child)
	if err != nil {
		return err
	}

	end := childInterval.Start - 1
	return rt.propagateTightIntervals(stagingArea, newReachabilityInterval(end-sum+1, end), before, sizes, subtreeSizes)
}

// packChildrenAfter packs the children of parent that follow child so that
// they start right after child ends. child itself is untouched.
func (rt *reachabilityManager) packChildrenAfter(stagingArea *model.StagingArea,
	parent, child *externalapi.DomainHash) error {

	_, after, err := rt.splitChildrenAroundChild(stagingArea, parent, child)
	if err != nil {
		return err
	}
	sizes, subtreeSizes, sum, err := rt.subtreeSizes(stagingArea, after)
	if err != nil {
		return err
	}
	childInterval, err := rt.interval(stagingArea, child)
	if err != nil {
		return err
	}

	start := childInterval.End + 1
	return rt.propagateTightIntervals(stagingArea, newReachabilityInterval(start, start+sum-1), after, sizes, subtreeSizes)
}
