package dagtraversalmanager

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/hashset"
)

// dagTraversalManager walks selected parent chains and the DAG around them
type dagTraversalManager struct {
	databaseContext model.DBReader

	dagTopologyManager model.DAGTopologyManager
	ghostdagDataStore  model.GHOSTDAGDataStore
	topoheightStore    model.TopoheightStore
}

// New instantiates a new DAGTraversalManager
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagDataStore model.GHOSTDAGDataStore,
	topoheightStore model.TopoheightStore) model.DAGTraversalManager {

	return &dagTraversalManager{
		databaseContext:    databaseContext,
		dagTopologyManager: dagTopologyManager,
		ghostdagDataStore:  ghostdagDataStore,
		topoheightStore:    topoheightStore,
	}
}

// ChainBlockAtOrBelowTopoheight returns the highest block in highHash's
// selected parent chain whose topoheight is at most the given one.
// Every block in that chain is expected to hold a topoheight.
func (dtm *dagTraversalManager) ChainBlockAtOrBelowTopoheight(stagingArea *model.StagingArea,
	highHash *externalapi.DomainHash, topoheight uint64) (*externalapi.DomainHash, error) {

	iterator := dtm.SelectedParentIterator(stagingArea, highHash)
	defer iterator.Close()

	for ok := iterator.First(); ok; ok = iterator.Next() {
		current, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		currentTopoheight, err := dtm.topoheightStore.Topoheight(dtm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, errors.Wrapf(err, "chain block %s has no topoheight", current)
		}
		if currentTopoheight <= topoheight {
			return current, nil
		}
	}
	return nil, errors.Errorf("no chain block of %s is at or below topoheight %d", highHash, topoheight)
}

// CalculateChainPath returns the chain blocks that are removed and added
// when the selected chain moves from fromBlockHash to toBlockHash. Removed
// is ordered from fromBlockHash downward and Added from the common ancestor
// upward.
func (dtm *dagTraversalManager) CalculateChainPath(stagingArea *model.StagingArea,
	fromBlockHash, toBlockHash *externalapi.DomainHash) (*externalapi.SelectedChainChanges, error) {

	var removed []*externalapi.DomainHash
	commonAncestor := fromBlockHash
	for {
		isOnNewChain, err := dtm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, commonAncestor, toBlockHash)
		if err != nil {
			return nil, err
		}
		if isOnNewChain {
			break
		}
		removed = append(removed, commonAncestor)
		commonAncestor, err = dtm.selectedParent(stagingArea, commonAncestor)
		if err != nil {
			return nil, err
		}
	}

	var added []*externalapi.DomainHash
	for current := toBlockHash; !current.Equal(commonAncestor); {
		added = append(added, current)
		var err error
		current, err = dtm.selectedParent(stagingArea, current)
		if err != nil {
			return nil, err
		}
	}
	for i, j := 0, len(added)-1; i < j; i, j = i+1, j-1 {
		added[i], added[j] = added[j], added[i]
	}

	return &externalapi.SelectedChainChanges{Added: added, Removed: removed}, nil
}

func (dtm *dagTraversalManager) selectedParent(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	ghostdagData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if ghostdagData.SelectedParent() == nil {
		return nil, errors.Errorf("walked past genesis %s looking for a common chain ancestor", blockHash)
	}
	return ghostdagData.SelectedParent(), nil
}

// Anticone returns the blocks reachable from tips that are neither in the
// past nor in the future of blockHash
func (dtm *dagTraversalManager) Anticone(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	anticone := []*externalapi.DomainHash{}
	queue := externalapi.CloneHashes(tips)
	visited := hashset.New()

	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		if visited.Contains(current) {
			continue
		}
		visited.Add(current)

		currentIsAncestorOfBlock, err := dtm.dagTopologyManager.IsAncestorOf(stagingArea, current, blockHash)
		if err != nil {
			return nil, err
		}
		if currentIsAncestorOfBlock {
			continue
		}

		blockIsAncestorOfCurrent, err := dtm.dagTopologyManager.IsAncestorOf(stagingArea, blockHash, current)
		if err != nil {
			return nil, err
		}
		if !blockIsAncestorOfCurrent {
			anticone = append(anticone, current)
		}

		currentParents, err := dtm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, err
		}
		queue = append(queue, currentParents...)
	}

	return anticone, nil
}
