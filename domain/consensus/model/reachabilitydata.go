package model

import (
	"fmt"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// ReachabilityData holds the set of data required to answer
// reachability queries
type ReachabilityData struct {
	TreeNode          *ReachabilityTreeNode
	FutureCoveringSet FutureCoveringTreeNodeSet
}

// Clone returns a deep copy of the data, safe to mutate and re-stage
func (rd *ReachabilityData) Clone() *ReachabilityData {
	return &ReachabilityData{
		TreeNode:          rd.TreeNode.Clone(),
		FutureCoveringSet: FutureCoveringTreeNodeSet(externalapi.CloneHashes(rd.FutureCoveringSet)),
	}
}

// Equal returns whether rd equals to other
func (rd *ReachabilityData) Equal(other *ReachabilityData) bool {
	if rd == nil || other == nil {
		return rd == other
	}
	return rd.TreeNode.Equal(other.TreeNode) &&
		externalapi.HashesEqual(rd.FutureCoveringSet, other.FutureCoveringSet)
}

// ReachabilityTreeNode represents a node in the reachability tree
// of some DAG block. It mainly provides the ability to query *tree*
// reachability with O(1) query time. It does so by managing an
// index interval for each node and making sure all nodes in its
// subtree are indexed within the interval, so the query
// B ∈ subtree(A) simply becomes B.interval ⊂ A.interval.
//
// The main challenge of maintaining such intervals is that our tree
// is an ever-growing tree and as such pre-allocated intervals may
// not suffice as per future events. This is where the reindexing
// algorithm comes into place.
// We use the reasonable assumption that the initial root interval
// (e.g., [1, 2^64-2]) should always suffice for any practical use-
// case, and so reindexing should always succeed unless more than
// 2^64 blocks are added to the DAG/tree.
type ReachabilityTreeNode struct {
	Children []*externalapi.DomainHash
	Parent   *externalapi.DomainHash

	// Interval is the index interval containing all intervals of
	// blocks in this node's subtree
	Interval *ReachabilityInterval
}

// Clone returns a deep copy of the tree node
func (rtn *ReachabilityTreeNode) Clone() *ReachabilityTreeNode {
	var interval *ReachabilityInterval
	if rtn.Interval != nil {
		interval = rtn.Interval.Clone()
	}
	return &ReachabilityTreeNode{
		Children: externalapi.CloneHashes(rtn.Children),
		Parent:   rtn.Parent,
		Interval: interval,
	}
}

// Equal returns whether rtn equals to other
func (rtn *ReachabilityTreeNode) Equal(other *ReachabilityTreeNode) bool {
	if rtn == nil || other == nil {
		return rtn == other
	}
	return externalapi.HashesEqual(rtn.Children, other.Children) &&
		rtn.Parent.Equal(other.Parent) &&
		rtn.Interval.Equal(other.Interval)
}

// ReachabilityInterval represents an interval to be used within the
// tree reachability algorithm. Both bounds are inclusive.
type ReachabilityInterval struct {
	Start uint64
	End   uint64
}

// Clone returns a copy of the interval
func (ri *ReachabilityInterval) Clone() *ReachabilityInterval {
	return &ReachabilityInterval{Start: ri.Start, End: ri.End}
}

// Equal returns whether ri equals to other
func (ri *ReachabilityInterval) Equal(other *ReachabilityInterval) bool {
	if ri == nil || other == nil {
		return ri == other
	}
	return ri.Start == other.Start && ri.End == other.End
}

func (ri *ReachabilityInterval) String() string {
	return fmt.Sprintf("[%d,%d]", ri.Start, ri.End)
}

// FutureCoveringTreeNodeSet represents a collection of blocks in the future of
// a certain block. Once a block B is added to the DAG, every block A_i in
// B's selected parent anticone must register B in its FutureCoveringTreeNodeSet. This allows
// to relatively quickly (O(log(|FutureCoveringTreeNodeSet|))) query whether B
// is a descendent (is in the "future") of any block that previously
// registered it.
//
// Note that FutureCoveringTreeNodeSet is meant to be queried only if B is not
// a reachability tree descendant of the block in question, as reachability
// tree queries are always O(1).
type FutureCoveringTreeNodeSet []*externalapi.DomainHash
