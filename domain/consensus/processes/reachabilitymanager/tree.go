package reachabilitymanager

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// newReachabilityTreeData is the data of the tree root. The root interval
// leaves one slot free at each end so that every interval in the tree is
// strictly inside it.
func newReachabilityTreeData() *model.ReachabilityData {
	return &model.ReachabilityData{
		TreeNode: &model.ReachabilityTreeNode{
			Interval: newReachabilityInterval(1, math.MaxUint64-1),
		},
	}
}

// allocatableRange is the part of node's interval its children may use. The
// last slot stays with node so it strictly contains every child.
func (rt *reachabilityManager) allocatableRange(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	interval, err := rt.interval(stagingArea, node)
	if err != nil {
		return nil, err
	}
	return newReachabilityInterval(interval.Start, interval.End-1), nil
}

// unallocatedRangeBefore is what remains of node's allocatable range to the
// left of its first child
func (rt *reachabilityManager) unallocatedRangeBefore(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	allocatable, err := rt.allocatableRange(stagingArea, node)
	if err != nil {
		return nil, err
	}
	children, err := rt.children(stagingArea, node)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return allocatable, nil
	}

	firstChildInterval, err := rt.interval(stagingArea, children[0])
	if err != nil {
		return nil, err
	}
	return newReachabilityInterval(allocatable.Start, firstChildInterval.Start-1), nil
}

// unallocatedRangeAfter is what remains of node's allocatable range to the
// right of its last child
func (rt *reachabilityManager) unallocatedRangeAfter(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) (*model.ReachabilityInterval, error) {

	allocatable, err := rt.allocatableRange(stagingArea, node)
	if err != nil {
		return nil, err
	}
	children, err := rt.children(stagingArea, node)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return allocatable, nil
	}

	lastChildInterval, err := rt.interval(stagingArea, children[len(children)-1])
	if err != nil {
		return nil, err
	}
	return newReachabilityInterval(lastChildInterval.End+1, allocatable.End), nil
}

// addChild appends child to node's children and gives it half of node's
// unallocated range. Blocks added outside the subtree of the reindex root
// take their slot from the siblings of the reindex root's ancestors. Blocks
// added under it reindex at most the subtree of the reindex root when node
// has no room left.
func (rt *reachabilityManager) addChild(stagingArea *model.StagingArea,
	node, child, reindexRoot *externalapi.DomainHash) error {

	unallocated, err := rt.unallocatedRangeAfter(stagingArea, node)
	if err != nil {
		return err
	}

	err = rt.addChildAndStage(stagingArea, node, child)
	if err != nil {
		return err
	}
	err = rt.stageParent(stagingArea, child, node)
	if err != nil {
		return err
	}

	// Until allocation finishes, child holds an empty interval where its
	// real one will start, which keeps the children of node sorted
	err = rt.stageInterval(stagingArea, child, newReachabilityInterval(unallocated.Start, unallocated.Start-1))
	if err != nil {
		return err
	}

	isUnderReindexRoot, err := rt.IsReachabilityTreeAncestorOf(stagingArea, reindexRoot, node)
	if err != nil {
		return err
	}
	if !isUnderReindexRoot {
		start := time.Now()
		err := rt.reindexIntervalsEarlierThanReindexRoot(stagingArea, node, reindexRoot)
		if err != nil {
			return err
		}
		log.Debugf("Reclaimed reachability space for %s outside the reindex root %s in %s",
			child, reindexRoot, time.Since(start))
		return nil
	}

	if intervalSize(unallocated) == 0 {
		start := time.Now()
		err := rt.reindexIntervals(stagingArea, node, reindexRoot)
		if err != nil {
			return err
		}
		log.Debugf("Reindexed the reachability tree above %s in %s", node, time.Since(start))
		return nil
	}

	allocated, _, err := intervalSplitInHalf(unallocated)
	if err != nil {
		return err
	}
	return rt.stageInterval(stagingArea, child, allocated)
}

// reindexIntervals climbs from node to the closest ancestor whose interval
// can fit one slot per block of its subtree, and redistributes that
// ancestor's interval over its whole subtree. The climb ends at the reindex
// root.
func (rt *reachabilityManager) reindexIntervals(stagingArea *model.StagingArea,
	node, reindexRoot *externalapi.DomainHash) error {

	subtreeSizes := make(map[externalapi.DomainHash]uint64)
	root := node
	for {
		interval, err := rt.interval(stagingArea, root)
		if err != nil {
			return err
		}
		subtreeSize, err := rt.subtreeSize(stagingArea, root, subtreeSizes)
		if err != nil {
			return err
		}
		if intervalSize(interval) >= subtreeSize {
			break
		}
		if root.Equal(reindexRoot) {
			return errors.Errorf("the reindex root %s cannot fit its %d descendants", root, subtreeSize)
		}

		parent, err := rt.parent(stagingArea, root)
		if err != nil {
			return err
		}
		if parent == nil {
			return errors.Errorf("the reachability tree root %s cannot fit its %d descendants", root, subtreeSize)
		}
		root = parent
	}

	return rt.propagateInterval(stagingArea, root, subtreeSizes)
}

// subtreeSize returns the number of blocks in the reachability subtree of
// root, root included, and records the size of every subtree it visits in
// sizes. Sizes already recorded are not recounted. The walk is iterative
// since selected parent chains are arbitrarily deep.
func (rt *reachabilityManager) subtreeSize(stagingArea *model.StagingArea, root *externalapi.DomainHash,
	sizes map[externalapi.DomainHash]uint64) (uint64, error) {

	type frame struct {
		block    *externalapi.DomainHash
		children []*externalapi.DomainHash
	}

	stack := []*frame{{block: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if _, ok := sizes[*top.block]; ok {
			stack = stack[:len(stack)-1]
			continue
		}

		if top.children == nil {
			children, err := rt.children(stagingArea, top.block)
			if err != nil {
				return 0, err
			}
			top.children = children

			pending := false
			for _, child := range children {
				if _, ok := sizes[*child]; !ok {
					stack = append(stack, &frame{block: child})
					pending = true
				}
			}
			if pending {
				continue
			}
		}

		size := uint64(1)
		for _, child := range top.children {
			size += sizes[*child]
		}
		sizes[*top.block] = size
		stack = stack[:len(stack)-1]
	}
	return sizes[*root], nil
}

// subtreeSizes counts the subtrees of nodes into a single map, which is
// safe since the subtrees are disjoint
func (rt *reachabilityManager) subtreeSizes(stagingArea *model.StagingArea, nodes []*externalapi.DomainHash) (
	sizes []uint64, sizeMap map[externalapi.DomainHash]uint64, sum uint64, err error) {

	sizes = make([]uint64, len(nodes))
	sizeMap = make(map[externalapi.DomainHash]uint64)
	for i, node := range nodes {
		sizes[i], err = rt.subtreeSize(stagingArea, node, sizeMap)
		if err != nil {
			return nil, nil, 0, err
		}
		sum += sizes[i]
	}
	return sizes, sizeMap, sum, nil
}

// relabel stages a new interval for a block that already had one
func (rt *reachabilityManager) relabel(stagingArea *model.StagingArea,
	node *externalapi.DomainHash, interval *model.ReachabilityInterval) error {

	rt.reindexedNodes++
	return rt.stageInterval(stagingArea, node, interval)
}

// propagateInterval reallocates the intervals of the subtree of root top
// down, splitting each allocatable range among the children by
// intervalSplitWithExponentialBias over their subtree sizes
func (rt *reachabilityManager) propagateInterval(stagingArea *model.StagingArea, root *externalapi.DomainHash,
	subtreeSizes map[externalapi.DomainHash]uint64) error {

	queue := []*externalapi.DomainHash{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := rt.children(stagingArea, current)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			continue
		}

		sizes := make([]uint64, len(children))
		for i, child := range children {
			sizes[i] = subtreeSizes[*child]
		}
		allocatable, err := rt.allocatableRange(stagingArea, current)
		if err != nil {
			return err
		}
		intervals, err := intervalSplitWithExponentialBias(allocatable, sizes)
		if err != nil {
			return err
		}

		for i, child := range children {
			err = rt.relabel(stagingArea, child, intervals[i])
			if err != nil {
				return err
			}
		}
		queue = append(queue, children...)
	}
	return nil
}

// propagateTightIntervals packs nodes back to back into interval, which
// must be exactly as large as their subtrees together, and reallocates
// their subtrees
func (rt *reachabilityManager) propagateTightIntervals(stagingArea *model.StagingArea,
	interval *model.ReachabilityInterval, nodes []*externalapi.DomainHash, sizes []uint64,
	subtreeSizes map[externalapi.DomainHash]uint64) error {

	intervals, err := intervalSplitExact(interval, sizes)
	if err != nil {
		return err
	}
	for i, node := range nodes {
		err = rt.relabel(stagingArea, node, intervals[i])
		if err != nil {
			return err
		}
		err = rt.propagateInterval(stagingArea, node, subtreeSizes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rt *reachabilityManager) countSubtreesAndPropagateInterval(stagingArea *model.StagingArea,
	node *externalapi.DomainHash) error {

	subtreeSizes := make(map[externalapi.DomainHash]uint64)
	_, err := rt.subtreeSize(stagingArea, node, subtreeSizes)
	if err != nil {
		return err
	}
	return rt.propagateInterval(stagingArea, node, subtreeSizes)
}

// IsReachabilityTreeAncestorOf returns whether node is an ancestor of other
// in the reachability tree. A node is its own ancestor.
func (rt *reachabilityManager) IsReachabilityTreeAncestorOf(stagingArea *model.StagingArea,
	node, other *externalapi.DomainHash) (bool, error) {

	nodeInterval, err := rt.interval(stagingArea, node)
	if err != nil {
		return false, err
	}
	otherInterval, err := rt.interval(stagingArea, other)
	if err != nil {
		return false, err
	}
	return intervalContains(nodeInterval, otherInterval), nil
}

// childOnPathTo returns the child of ancestor whose subtree contains
// descendant
func (rt *reachabilityManager) childOnPathTo(stagingArea *model.StagingArea,
	ancestor, descendant *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	children, err := rt.children(stagingArea, ancestor)
	if err != nil {
		return nil, err
	}

	index, ok, err := rt.findAncestorIndexOfNode(stagingArea, children, descendant)
	if err != nil {
		return nil, err
	}
	if ok {
		isAncestor, err := rt.IsReachabilityTreeAncestorOf(stagingArea, children[index], descendant)
		if err != nil {
			return nil, err
		}
		if isAncestor {
			return children[index], nil
		}
	}
	return nil, errors.Errorf("%s is not a reachability tree ancestor of %s", ancestor, descendant)
}

// splitChildrenAroundChild returns the children of node before child and
// the children of node after it
func (rt *reachabilityManager) splitChildrenAroundChild(stagingArea *model.StagingArea,
	node, child *externalapi.DomainHash) (before, after []*externalapi.DomainHash, err error) {

	children, err := rt.children(stagingArea, node)
	if err != nil {
		return nil, nil, err
	}
	for i, candidate := range children {
		if candidate.Equal(child) {
			return children[:i], children[i+1:], nil
		}
	}
	return nil, nil, errors.Errorf("%s is not a reachability tree child of %s", child, node)
}
