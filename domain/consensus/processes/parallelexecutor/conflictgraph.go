package parallelexecutor

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// accountUse tracks, for a single account, the last scheduled writer and the
// readers scheduled since that write
type accountUse struct {
	lastWriter        int
	readersSinceWrite []int
}

// buildConflictGraph returns a DAG over the given transaction indexes with
// an edge i -> j (i < j) whenever both touch an account and at least one of
// them writes it. Edges to older writers and readers are implied by the
// edges between them.
func buildConflictGraph(indexes []int, accessSets []*externalapi.AccessSet) (graph.Graph[int, int], error) {
	conflicts := graph.New(graph.IntHash, graph.Directed())
	uses := make(map[externalapi.AccountKey]*accountUse)

	addEdge := func(from, to int) error {
		err := conflicts.AddEdge(from, to)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return err
		}
		return nil
	}

	for _, index := range indexes {
		err := conflicts.AddVertex(index)
		if err != nil {
			return nil, err
		}

		accessSet := accessSets[index]
		for _, account := range accessSet.Reads {
			use, ok := uses[account]
			if !ok {
				use = &accountUse{lastWriter: -1}
				uses[account] = use
			}
			if use.lastWriter >= 0 {
				err := addEdge(use.lastWriter, index)
				if err != nil {
					return nil, err
				}
			}
			use.readersSinceWrite = append(use.readersSinceWrite, index)
		}

		for _, account := range accessSet.Writes {
			use, ok := uses[account]
			if !ok {
				uses[account] = &accountUse{lastWriter: index}
				continue
			}
			if use.lastWriter >= 0 {
				err := addEdge(use.lastWriter, index)
				if err != nil {
					return nil, err
				}
			}
			for _, reader := range use.readersSinceWrite {
				err := addEdge(reader, index)
				if err != nil {
					return nil, err
				}
			}
			use.lastWriter = index
			use.readersSinceWrite = nil
		}
	}

	return conflicts, nil
}

// assignWaves places every transaction one wave after its latest
// predecessor. Transactions of the same wave are pairwise conflict free.
// Each wave is sorted by program order.
func assignWaves(conflicts graph.Graph[int, int]) ([][]int, map[int][]int, error) {
	order, err := graph.TopologicalSort(conflicts)
	if err != nil {
		return nil, nil, err
	}
	predecessorMap, err := conflicts.PredecessorMap()
	if err != nil {
		return nil, nil, err
	}

	predecessors := make(map[int][]int, len(order))
	waveOf := make(map[int]int, len(order))
	var waves [][]int
	for _, index := range order {
		wave := 0
		for predecessor := range predecessorMap[index] {
			predecessors[index] = append(predecessors[index], predecessor)
			if waveOf[predecessor]+1 > wave {
				wave = waveOf[predecessor] + 1
			}
		}
		waveOf[index] = wave
		for len(waves) <= wave {
			waves = append(waves, nil)
		}
		waves[wave] = append(waves[wave], index)
	}

	for _, wave := range waves {
		sort.Ints(wave)
	}
	return waves, predecessors, nil
}
