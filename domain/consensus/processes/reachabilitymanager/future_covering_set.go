package reachabilitymanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// insertToFutureCoveringSet inserts the given block into this node's FutureCoveringSet
// while keeping it ordered by interval.
// If a block B ∈ node.FutureCoveringSet exists such that its interval
// contains block's interval, block need not be added. If block's
// interval contains B's interval, it replaces it.
//
// Notes:
//   - Intervals never intersect unless one contains the other
//     (this follows from the tree structure and the indexing rule).
//   - Since node.FutureCoveringSet is kept ordered, a binary search can be
//     used for insertion/queries.
//   - Although reindexing may change a block's interval, the
//     is-superset relation will by definition
//     be always preserved.
func (rt *reachabilityManager) insertToFutureCoveringSet(stagingArea *model.StagingArea,
	node, futureNode *externalapi.DomainHash) error {

	futureCoveringSet, err := rt.futureCoveringSet(stagingArea, node)
	if err != nil {
		return err
	}

	ancestorIndex, ok, err := rt.findAncestorIndexOfNode(stagingArea, futureCoveringSet, futureNode)
	if err != nil {
		return err
	}

	var newSet []*externalapi.DomainHash
	if !ok {
		newSet = append([]*externalapi.DomainHash{futureNode}, futureCoveringSet...)
	} else {
		candidate := futureCoveringSet[ancestorIndex]
		candidateIsAncestorOfFutureNode, err := rt.IsReachabilityTreeAncestorOf(stagingArea, candidate, futureNode)
		if err != nil {
			return err
		}

		if candidateIsAncestorOfFutureNode {
			// candidate is an ancestor of futureNode, no need to insert
			return nil
		}

		futureNodeIsAncestorOfCandidate, err := rt.IsReachabilityTreeAncestorOf(stagingArea, futureNode, candidate)
		if err != nil {
			return err
		}

		if futureNodeIsAncestorOfCandidate {
			// futureNode is an ancestor of candidate, and can thus replace it
			newSet = externalapi.CloneHashes(futureCoveringSet)
			newSet[ancestorIndex] = futureNode
		} else {
			// Insert futureNode in the correct index to maintain futureCoveringSet as
			// a sorted-by-interval list.
			// Note that ancestorIndex might be equal to len(futureCoveringSet)
			left := futureCoveringSet[:ancestorIndex+1]
			right := append([]*externalapi.DomainHash{futureNode}, futureCoveringSet[ancestorIndex+1:]...)
			newSet = append(externalapi.CloneHashes(left), right...)
		}
	}

	return rt.stageFutureCoveringSet(stagingArea, node, newSet)
}

// futureCoveringSetHasAncestorOf resolves whether the given node `other` is in
// the subtree of any node in this.FutureCoveringSet. See
// insertToFutureCoveringSet for further details.
func (rt *reachabilityManager) futureCoveringSetHasAncestorOf(stagingArea *model.StagingArea,
	this, other *externalapi.DomainHash) (bool, error) {

	futureCoveringSet, err := rt.futureCoveringSet(stagingArea, this)
	if err != nil {
		return false, err
	}

	ancestorIndex, ok, err := rt.findAncestorIndexOfNode(stagingArea, futureCoveringSet, other)
	if err != nil {
		return false, err
	}

	if !ok {
		// No candidate to contain other
		return false, nil
	}

	candidate := futureCoveringSet[ancestorIndex]
	return rt.IsReachabilityTreeAncestorOf(stagingArea, candidate, other)
}

// findAncestorIndexOfNode finds the index of the last block in the given
// interval-ordered set whose interval starts at or before node's interval
// ends. That block is the only possible tree ancestor of node in the set.
// It returns false if no such block exists.
func (rt *reachabilityManager) findAncestorIndexOfNode(stagingArea *model.StagingArea,
	orderedSet []*externalapi.DomainHash, node *externalapi.DomainHash) (int, bool, error) {

	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return 0, false, err
	}
	end := nodeInterval.End

	low := 0
	high := len(orderedSet)
	for low < high {
		middle := (low + high) / 2
		middleInterval, err := rt.interval(stagingArea, orderedSet[middle])
		if err != nil {
			return 0, false, err
		}

		if end < middleInterval.Start {
			high = middle
		} else {
			low = middle + 1
		}
	}

	if low == 0 {
		return 0, false, nil
	}
	return low - 1, true, nil
}
