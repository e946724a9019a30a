package reachabilitymanager_test

import (
	"encoding/binary"
	"math/big"
	"math/rand"
	"testing"

	consensusdatabase "github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/datastructures/ghostdagdatastore"
	"github.com/topodag/topod/domain/consensus/datastructures/reachabilitydatastore"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/processes/reachabilitymanager"
	"github.com/topodag/topod/infrastructure/db/database/ldb"
)

// testDAG feeds hand-built GHOSTDAG data into a reachability manager. The
// selected parent of every block is its first parent, which is all the
// reachability tree requires. A block whose selected parent is the selected
// tip becomes the new selected tip.
type testDAG struct {
	t                     *testing.T
	dbManager             model.DBManager
	ghostdagDataStore     model.GHOSTDAGDataStore
	reachabilityDataStore model.ReachabilityDataStore
	reachabilityManager   model.TestReachabilityManager

	parents     map[externalapi.DomainHash][]*externalapi.DomainHash
	blocks      []*externalapi.DomainHash
	selectedTip *externalapi.DomainHash
}

func newTestDAG(t *testing.T) *testDAG {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	t.Cleanup(func() {
		err := db.Close()
		if err != nil {
			t.Errorf("Close: %+v", err)
		}
	})

	dbManager := consensusdatabase.New(db)
	ghostdagDataStore := ghostdagdatastore.New(16)
	reachabilityDataStore := reachabilitydatastore.New(16)
	dag := &testDAG{
		t:                     t,
		dbManager:             dbManager,
		ghostdagDataStore:     ghostdagDataStore,
		reachabilityDataStore: reachabilityDataStore,
		reachabilityManager: reachabilitymanager.NewTestReachabilityManager(
			reachabilitymanager.New(dbManager, ghostdagDataStore, reachabilityDataStore)),
		parents: make(map[externalapi.DomainHash][]*externalapi.DomainHash),
	}
	dag.selectedTip = dag.addBlock()
	return dag
}

func testHash(i int) *externalapi.DomainHash {
	var hashBytes [externalapi.DomainHashSize]byte
	binary.BigEndian.PutUint64(hashBytes[:], uint64(i)+1)
	return externalapi.NewDomainHashFromByteArray(&hashBytes)
}

// isAncestorBruteForce walks the parents of descendant
func (dag *testDAG) isAncestorBruteForce(ancestor, descendant *externalapi.DomainHash) bool {
	visited := map[externalapi.DomainHash]bool{}
	queue := []*externalapi.DomainHash{descendant}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.Equal(ancestor) {
			return true
		}
		if visited[*current] {
			continue
		}
		visited[*current] = true
		queue = append(queue, dag.parents[*current]...)
	}
	return false
}

// mergeSetCandidates skips the merge set scan for single parent blocks,
// which merge nothing besides their selected parent
func mergeSetCandidates(parents []*externalapi.DomainHash, blockCount int) int {
	if len(parents) == 1 {
		return 0
	}
	return blockCount
}

func (dag *testDAG) addBlock(parents ...*externalapi.DomainHash) *externalapi.DomainHash {
	blockHash := testHash(len(dag.blocks))
	dag.parents[*blockHash] = parents

	var ghostdagData *model.BlockGHOSTDAGData
	if len(parents) == 0 {
		ghostdagData = model.NewBlockGHOSTDAGData(0, big.NewInt(0), nil, nil, nil, nil)
	} else {
		selectedParent := parents[0]
		mergeSet := []*externalapi.DomainHash{selectedParent}
		for _, block := range dag.blocks[:mergeSetCandidates(parents, len(dag.blocks))] {
			if block.Equal(selectedParent) || dag.isAncestorBruteForce(block, selectedParent) {
				continue
			}
			for _, parent := range parents[1:] {
				if dag.isAncestorBruteForce(block, parent) {
					mergeSet = append(mergeSet, block)
					break
				}
			}
		}
		ghostdagData = model.NewBlockGHOSTDAGData(uint64(len(dag.blocks)), big.NewInt(int64(len(dag.blocks))),
			selectedParent, mergeSet, nil, map[externalapi.DomainHash]model.KType{})
	}

	stagingArea := model.NewStagingArea()
	dag.ghostdagDataStore.Stage(stagingArea, blockHash, ghostdagData)
	err := dag.reachabilityManager.AddBlock(stagingArea, blockHash)
	if err != nil {
		dag.t.Fatalf("AddBlock: %+v", err)
	}
	if len(parents) > 0 && parents[0].Equal(dag.selectedTip) {
		dag.selectedTip = blockHash
		err = dag.reachabilityManager.UpdateReindexRoot(stagingArea, blockHash)
		if err != nil {
			dag.t.Fatalf("UpdateReindexRoot: %+v", err)
		}
	}
	dag.commit(stagingArea)

	dag.blocks = append(dag.blocks, blockHash)
	return blockHash
}

// setSelectedTip makes an existing block the selected tip, as a reorg would
func (dag *testDAG) setSelectedTip(blockHash *externalapi.DomainHash) {
	stagingArea := model.NewStagingArea()
	err := dag.reachabilityManager.UpdateReindexRoot(stagingArea, blockHash)
	if err != nil {
		dag.t.Fatalf("UpdateReindexRoot: %+v", err)
	}
	dag.commit(stagingArea)
	dag.selectedTip = blockHash
}

func (dag *testDAG) reindexRoot() *externalapi.DomainHash {
	reindexRoot, err := dag.reachabilityDataStore.ReachabilityReindexRoot(dag.dbManager, model.NewStagingArea())
	if err != nil {
		dag.t.Fatalf("ReachabilityReindexRoot: %+v", err)
	}
	return reindexRoot
}

func (dag *testDAG) commit(stagingArea *model.StagingArea) {
	dbTx, err := dag.dbManager.Begin()
	if err != nil {
		dag.t.Fatalf("Begin: %+v", err)
	}
	err = stagingArea.Commit(dbTx)
	if err != nil {
		dag.t.Fatalf("Commit: %+v", err)
	}
	err = dbTx.Commit()
	if err != nil {
		dag.t.Fatalf("Commit: %+v", err)
	}
}

func (dag *testDAG) checkAllPairs() {
	stagingArea := model.NewStagingArea()
	for _, a := range dag.blocks {
		for _, b := range dag.blocks {
			expected := dag.isAncestorBruteForce(a, b)
			got, err := dag.reachabilityManager.IsDAGAncestorOf(stagingArea, a, b)
			if err != nil {
				dag.t.Fatalf("IsDAGAncestorOf: %+v", err)
			}
			if got != expected {
				dag.t.Fatalf("IsDAGAncestorOf(%s, %s) = %t, expected %t", a, b, got, expected)
			}
		}
	}
}

func TestReachabilityMatchesBruteForce(t *testing.T) {
	dag := newTestDAG(t)
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 120; i++ {
		// Pick parents among the most recent blocks so that the DAG is wide
		// but does not degenerate into a star
		window := 8
		if len(dag.blocks) < window {
			window = len(dag.blocks)
		}
		candidates := dag.blocks[len(dag.blocks)-window:]
		parentCount := 1 + random.Intn(3)

		var parents []*externalapi.DomainHash
		for _, index := range random.Perm(len(candidates))[:min(parentCount, len(candidates))] {
			candidate := candidates[index]
			redundant := false
			for _, parent := range parents {
				if dag.isAncestorBruteForce(candidate, parent) || dag.isAncestorBruteForce(parent, candidate) {
					redundant = true
					break
				}
			}
			if !redundant {
				parents = append(parents, candidate)
			}
		}
		dag.addBlock(parents...)
	}

	dag.checkAllPairs()
}

func TestReachabilityDeepChainReindex(t *testing.T) {
	dag := newTestDAG(t)
	dag.reachabilityManager.SetReachabilityReindexWindow(16)

	// Every chain block takes half of its parent's free interval, so a
	// chain deeper than 64 forces at least one reindex
	tip := dag.blocks[0]
	var chain []*externalapi.DomainHash
	for i := 0; i < 200; i++ {
		tip = dag.addBlock(tip)
		chain = append(chain, tip)
	}

	// Side branches off old chain blocks are outside the subtree of the
	// reindex root and take their space from the siblings of the chain
	for i := 0; i < 10; i++ {
		side := dag.addBlock(chain[i*15])
		dag.addBlock(tip, side)
	}

	stagingArea := model.NewStagingArea()
	for i := 1; i < len(chain); i++ {
		isAncestor, err := dag.reachabilityManager.IsReachabilityTreeAncestorOf(stagingArea, chain[i-1], chain[i])
		if err != nil {
			t.Fatalf("IsReachabilityTreeAncestorOf: %+v", err)
		}
		if !isAncestor {
			t.Fatalf("chain block %d is expected to be a tree ancestor of chain block %d", i-1, i)
		}
	}

	dag.checkAllPairs()
}

func TestReindexedRegionStaysBoundedOnDeepChain(t *testing.T) {
	const (
		chainLength   = 10_000
		reindexWindow = 64
	)
	dag := newTestDAG(t)
	dag.reachabilityManager.SetReachabilityReindexWindow(reindexWindow)

	chain := []*externalapi.DomainHash{dag.blocks[0]}
	maxReindexedPerBlock := uint64(0)
	for i := 0; i < chainLength; i++ {
		before := dag.reachabilityManager.ReindexedNodeCount()
		chain = append(chain, dag.addBlock(chain[len(chain)-1]))
		reindexed := dag.reachabilityManager.ReindexedNodeCount() - before
		if reindexed > maxReindexedPerBlock {
			maxReindexedPerBlock = reindexed
		}
	}

	// Whatever the depth, a block relabels at most the subtree of the
	// reindex root, once while being added and once when the root moves
	if maxReindexedPerBlock > 3*reindexWindow {
		t.Fatalf("a single block relabelled %d nodes, expected at most %d",
			maxReindexedPerBlock, 3*reindexWindow)
	}
	if dag.reachabilityManager.ReindexedNodeCount() == 0 {
		t.Fatalf("a chain of %d blocks is expected to reindex", chainLength)
	}

	reindexRoot := dag.reindexRoot()
	reindexRootIndex := -1
	for i, block := range chain {
		if block.Equal(reindexRoot) {
			reindexRootIndex = i
			break
		}
	}
	if reindexRootIndex == -1 {
		t.Fatalf("the reindex root %s is not on the chain", reindexRoot)
	}
	if distance := len(chain) - 1 - reindexRootIndex; distance > reindexWindow {
		t.Fatalf("the reindex root is %d blocks behind the tip, expected at most %d", distance, reindexWindow)
	}

	// Blocks added far below the reindex root still get correct intervals
	var sideBlocks []*externalapi.DomainHash
	sideParents := []int{1, 100, chainLength / 2, chainLength - 2*reindexWindow}
	for _, parentIndex := range sideParents {
		sideBlocks = append(sideBlocks, dag.addBlock(chain[parentIndex]))
	}

	stagingArea := model.NewStagingArea()
	isAncestor := func(a, b *externalapi.DomainHash) bool {
		got, err := dag.reachabilityManager.IsDAGAncestorOf(stagingArea, a, b)
		if err != nil {
			t.Fatalf("IsDAGAncestorOf: %+v", err)
		}
		return got
	}
	for i := 0; i+97 < len(chain); i += 97 {
		if !isAncestor(chain[i], chain[i+97]) {
			t.Fatalf("chain block %d is expected to be an ancestor of chain block %d", i, i+97)
		}
		if isAncestor(chain[i+97], chain[i]) {
			t.Fatalf("chain block %d is not expected to be an ancestor of chain block %d", i+97, i)
		}
	}
	for i, side := range sideBlocks {
		parentIndex := sideParents[i]
		if !isAncestor(chain[parentIndex], side) {
			t.Fatalf("chain block %d is expected to be an ancestor of its side block", parentIndex)
		}
		if isAncestor(chain[parentIndex+1], side) {
			t.Fatalf("chain block %d is not expected to be an ancestor of a sibling's child", parentIndex+1)
		}
		if isAncestor(side, chain[len(chain)-1]) {
			t.Fatalf("the side block off chain block %d is not expected to reach the tip", parentIndex)
		}
	}
}

func TestReindexRootFollowsReorg(t *testing.T) {
	const reindexWindow = 8
	dag := newTestDAG(t)
	dag.reachabilityManager.SetReachabilityReindexWindow(reindexWindow)

	genesis := dag.blocks[0]
	chain := []*externalapi.DomainHash{genesis}
	for i := 0; i < 50; i++ {
		chain = append(chain, dag.addBlock(chain[len(chain)-1]))
	}
	if dag.reindexRoot().Equal(genesis) {
		t.Fatalf("the reindex root is expected to leave genesis")
	}

	// A competing branch off an early chain block is built outside the
	// reindex root and then takes over as the selected chain
	branch := []*externalapi.DomainHash{chain[10]}
	for i := 0; i < 60; i++ {
		branch = append(branch, dag.addBlock(branch[len(branch)-1]))
	}
	dag.setSelectedTip(branch[len(branch)-1])

	stagingArea := model.NewStagingArea()
	reindexRoot := dag.reindexRoot()
	isOnBranch, err := dag.reachabilityManager.IsReachabilityTreeAncestorOf(stagingArea, branch[1], reindexRoot)
	if err != nil {
		t.Fatalf("IsReachabilityTreeAncestorOf: %+v", err)
	}
	if !isOnBranch {
		t.Fatalf("the reindex root %s is expected to follow the new selected chain", reindexRoot)
	}

	// Extending the old chain again reclaims space below the new root
	for i := 0; i < 5; i++ {
		chain = append(chain, dag.addBlock(chain[len(chain)-1]))
	}
	dag.checkAllPairs()
}

func TestFindNextAncestor(t *testing.T) {
	dag := newTestDAG(t)
	genesis := dag.blocks[0]
	left := dag.addBlock(genesis)
	right := dag.addBlock(genesis)
	leftChild := dag.addBlock(left)
	merge := dag.addBlock(leftChild, right)

	stagingArea := model.NewStagingArea()
	next, err := dag.reachabilityManager.FindNextAncestor(stagingArea, merge, genesis)
	if err != nil {
		t.Fatalf("FindNextAncestor: %+v", err)
	}
	if !next.Equal(left) {
		t.Fatalf("FindNextAncestor returned %s, expected %s", next, left)
	}

	_, err = dag.reachabilityManager.FindNextAncestor(stagingArea, merge, right)
	if err == nil {
		t.Fatalf("FindNextAncestor unexpectedly succeeded for a non tree ancestor")
	}

	isAncestor, err := dag.reachabilityManager.IsDAGAncestorOf(stagingArea, right, merge)
	if err != nil {
		t.Fatalf("IsDAGAncestorOf: %+v", err)
	}
	if !isAncestor {
		t.Fatalf("a merged block is expected to be a DAG ancestor of the merging block")
	}

	reindexRoot, err := dag.reachabilityDataStore.ReachabilityReindexRoot(dag.dbManager, stagingArea)
	if err != nil {
		t.Fatalf("ReachabilityReindexRoot: %+v", err)
	}
	if !reindexRoot.Equal(genesis) {
		t.Fatalf("the reindex root is expected to be genesis")
	}
}
