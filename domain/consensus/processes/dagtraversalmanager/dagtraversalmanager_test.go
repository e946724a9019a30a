package dagtraversalmanager_test

import (
	"testing"

	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/hashset"
	"github.com/topodag/topod/domain/consensus/utils/testutils"
)

const commonChainSize = 5

// TestSelectedParentIteratorOnChainDag walks a single chain from its tip
// and expects to meet every chain block once, ending at genesis
func TestSelectedParentIteratorOnChainDag(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		factory := consensus.NewFactory()
		tc, tearDown, err := factory.NewTestConsensus(consensusConfig, "TestSelectedParentIteratorOnChainDag")
		if err != nil {
			t.Fatalf("Failed creating a NewTestConsensus: %s", err)
		}
		defer tearDown(false)

		highHash, err := createAChainDAG(consensusConfig.GenesisHash, tc)
		if err != nil {
			t.Fatalf("Failed creating a chain DAG: %+v", err)
		}

		iterator := tc.DAGTraversalManager().SelectedParentIterator(model.NewStagingArea(), highHash)
		var visited []*externalapi.DomainHash
		for ok := iterator.First(); ok; ok = iterator.Next() {
			current, err := iterator.Get()
			if err != nil {
				t.Fatalf("Get: %+v", err)
			}
			visited = append(visited, current)
		}
		err = iterator.Close()
		if err != nil {
			t.Fatalf("Close: %+v", err)
		}
		_, err = iterator.Get()
		if err == nil {
			t.Fatalf("Expected Get to fail on a closed iterator")
		}

		if len(visited) != commonChainSize+1 {
			t.Fatalf("Expected %d chain blocks but visited %d", commonChainSize+1, len(visited))
		}
		if !visited[0].Equal(highHash) {
			t.Fatalf("Expected the walk to start at %s but it started at %s", highHash, visited[0])
		}
		if !visited[len(visited)-1].Equal(consensusConfig.GenesisHash) {
			t.Fatalf("Expected the walk to end at genesis but it ended at %s", visited[len(visited)-1])
		}
	})
}

func createAChainDAG(genesisHash *externalapi.DomainHash, tc consensus.TestConsensus) (*externalapi.DomainHash, error) {
	block := genesisHash
	var err error
	for i := 0; i < commonChainSize; i++ {
		block, _, err = tc.AddBlock([]*externalapi.DomainHash{block}, nil)
		if err != nil {
			return nil, err
		}
	}
	return block, nil
}

// TestChainBlockAtOrBelowTopoheight builds a chain with a merged side
// block, so chain topoheights skip a value, and checks the lookup lands on
// the highest chain block not above the requested topoheight
func TestChainBlockAtOrBelowTopoheight(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		factory := consensus.NewFactory()
		tc, tearDown, err := factory.NewTestConsensus(consensusConfig, "TestChainBlockAtOrBelowTopoheight")
		if err != nil {
			t.Fatalf("Failed creating a NewTestConsensus: %s", err)
		}
		defer tearDown(false)

		// genesis <- a <- b, genesis <- side, b and side <- merging
		a, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		b, _, err := tc.AddBlock([]*externalapi.DomainHash{a}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		side, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		merging, _, err := tc.AddBlock([]*externalapi.DomainHash{b, side}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}

		// Topoheights: genesis 0, a 1, b 2, side 3, merging 4
		stagingArea := model.NewStagingArea()
		tests := []struct {
			topoheight uint64
			expected   *externalapi.DomainHash
		}{
			{topoheight: 0, expected: consensusConfig.GenesisHash},
			{topoheight: 1, expected: a},
			{topoheight: 2, expected: b},
			{topoheight: 3, expected: b},
			{topoheight: 4, expected: merging},
			{topoheight: 100, expected: merging},
		}
		for _, test := range tests {
			actual, err := tc.DAGTraversalManager().ChainBlockAtOrBelowTopoheight(stagingArea, merging, test.topoheight)
			if err != nil {
				t.Fatalf("ChainBlockAtOrBelowTopoheight(%d): %+v", test.topoheight, err)
			}
			if !actual.Equal(test.expected) {
				t.Fatalf("ChainBlockAtOrBelowTopoheight(%d): expected %s but got %s",
					test.topoheight, test.expected, actual)
			}
		}
	})
}

func TestCalculateChainPath(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		factory := consensus.NewFactory()
		tc, tearDown, err := factory.NewTestConsensus(consensusConfig, "TestCalculateChainPath")
		if err != nil {
			t.Fatalf("Failed creating a NewTestConsensus: %s", err)
		}
		defer tearDown(false)

		commonAncestor, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		var branchA, branchB []*externalapi.DomainHash
		tipA, tipB := commonAncestor, commonAncestor
		for i := 0; i < 3; i++ {
			tipA, _, err = tc.AddBlock([]*externalapi.DomainHash{tipA}, nil)
			if err != nil {
				t.Fatalf("AddBlock: %+v", err)
			}
			branchA = append(branchA, tipA)
			tipB, _, err = tc.AddBlock([]*externalapi.DomainHash{tipB}, nil)
			if err != nil {
				t.Fatalf("AddBlock: %+v", err)
			}
			branchB = append(branchB, tipB)
		}

		chainPath, err := tc.DAGTraversalManager().CalculateChainPath(model.NewStagingArea(), tipA, tipB)
		if err != nil {
			t.Fatalf("CalculateChainPath: %+v", err)
		}
		expectedRemoved := []*externalapi.DomainHash{branchA[2], branchA[1], branchA[0]}
		if !externalapi.HashesEqual(chainPath.Removed, expectedRemoved) {
			t.Fatalf("Expected removed %s but got %s", expectedRemoved, chainPath.Removed)
		}
		if !externalapi.HashesEqual(chainPath.Added, branchB) {
			t.Fatalf("Expected added %s but got %s", branchB, chainPath.Added)
		}

		chainPath, err = tc.DAGTraversalManager().CalculateChainPath(model.NewStagingArea(), commonAncestor, tipB)
		if err != nil {
			t.Fatalf("CalculateChainPath: %+v", err)
		}
		if len(chainPath.Removed) != 0 {
			t.Fatalf("Expected nothing removed when moving forward, got %s", chainPath.Removed)
		}
		if !externalapi.HashesEqual(chainPath.Added, branchB) {
			t.Fatalf("Expected added %s but got %s", branchB, chainPath.Added)
		}
	})
}

func TestAnticone(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		factory := consensus.NewFactory()
		tc, tearDown, err := factory.NewTestConsensus(consensusConfig, "TestAnticone")
		if err != nil {
			t.Fatalf("Failed creating a NewTestConsensus: %s", err)
		}
		defer tearDown(false)

		// genesis <- a <- b, genesis <- c <- d, b and d <- e
		a, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		b, _, err := tc.AddBlock([]*externalapi.DomainHash{a}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		c, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		d, _, err := tc.AddBlock([]*externalapi.DomainHash{c}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		e, _, err := tc.AddBlock([]*externalapi.DomainHash{b, d}, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}

		anticone, err := tc.Anticone(a)
		if err != nil {
			t.Fatalf("Anticone: %+v", err)
		}
		expected := hashset.NewFromSlice(c, d)
		actual := hashset.NewFromSlice(anticone...)
		if actual.Length() != expected.Length() || actual.Subtract(expected).Length() != 0 {
			t.Fatalf("Expected the anticone of a to be %s but got %s", expected, actual)
		}

		anticone, err = tc.Anticone(e)
		if err != nil {
			t.Fatalf("Anticone: %+v", err)
		}
		if len(anticone) != 0 {
			t.Fatalf("Expected the only tip to have an empty anticone, got %s", anticone)
		}
	})
}
