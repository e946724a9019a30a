package reachabilitymanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	// defaultReindexWindow is the blue score distance between the selected
	// tip and the chain child of the reindex root that moves the root
	defaultReindexWindow uint64 = 200

	// defaultReindexSlack is the free space kept on each side of the chain
	// child of the reindex root
	defaultReindexSlack uint64 = 1 << 12

	// reclaimSlack is the space taken from the chain to the reindex root
	// for every block added outside its subtree
	reclaimSlack uint64 = 1
)

// reachabilityManager maintains a structure that allows to answer
// reachability queries in sub-linear time
type reachabilityManager struct {
	databaseContext       model.DBReader
	reachabilityDataStore model.ReachabilityDataStore
	ghostdagDataStore     model.GHOSTDAGDataStore

	reindexWindow uint64
	reindexSlack  uint64

	// reindexedNodes counts every interval replaced after allocation
	reindexedNodes uint64
}

// New instantiates a new reachabilityManager
func New(
	databaseContext model.DBReader,
	ghostdagDataStore model.GHOSTDAGDataStore,
	reachabilityDataStore model.ReachabilityDataStore,
) model.ReachabilityManager {
	return &reachabilityManager{
		databaseContext:       databaseContext,
		ghostdagDataStore:     ghostdagDataStore,
		reachabilityDataStore: reachabilityDataStore,
		reindexWindow:         defaultReindexWindow,
		reindexSlack:          defaultReindexSlack,
	}
}

// AddBlock adds the block with the given blockHash into the reachability tree.
// The block's GHOSTDAG data must already be staged.
func (rt *reachabilityManager) AddBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	ghostdagData, err := rt.ghostdagDataStore.Get(rt.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	// If this is the genesis node, simply initialize it and return
	if ghostdagData.SelectedParent() == nil {
		rt.stageData(stagingArea, blockHash, newReachabilityTreeData())
		rt.stageReindexRoot(stagingArea, blockHash)
		return nil
	}

	rt.stageData(stagingArea, blockHash, &model.ReachabilityData{
		TreeNode: &model.ReachabilityTreeNode{},
	})

	reindexRoot, err := rt.reindexRoot(stagingArea)
	if err != nil {
		return err
	}

	// Insert the node into the selected parent's reachability tree
	err = rt.addChild(stagingArea, ghostdagData.SelectedParent(), blockHash, reindexRoot)
	if err != nil {
		return err
	}

	// Add the block to the future covering sets of all the blocks
	// in the merge set. The selected parent covers it through the tree.
	for _, current := range ghostdagData.MergeSet() {
		if current.Equal(ghostdagData.SelectedParent()) {
			continue
		}
		err = rt.insertToFutureCoveringSet(stagingArea, current, blockHash)
		if err != nil {
			return err
		}
	}

	return nil
}

// IsDAGAncestorOf returns true if blockHashA is an ancestor of blockHashB in
// the DAG. A block is considered an ancestor of itself.
func (rt *reachabilityManager) IsDAGAncestorOf(stagingArea *model.StagingArea,
	blockHashA, blockHashB *externalapi.DomainHash) (bool, error) {

	// First, check if this node is a reachability tree ancestor of the
	// other node
	isReachabilityTreeAncestor, err := rt.IsReachabilityTreeAncestorOf(stagingArea, blockHashA, blockHashB)
	if err != nil {
		return false, err
	}
	if isReachabilityTreeAncestor {
		return true, nil
	}

	// Otherwise, use previously registered future blocks to complete the
	// reachability test
	return rt.futureCoveringSetHasAncestorOf(stagingArea, blockHashA, blockHashB)
}

// FindNextAncestor finds the reachability tree child of ancestor that is
// also a reachability tree ancestor of descendant
func (rt *reachabilityManager) FindNextAncestor(stagingArea *model.StagingArea,
	descendant, ancestor *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	return rt.childOnPathTo(stagingArea, ancestor, descendant)
}
