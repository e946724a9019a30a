package ghostdagmanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// ghostdagManager resolves and manages GHOSTDAG block data
type ghostdagManager struct {
	databaseContext    model.DBReader
	dagTopologyManager model.DAGTopologyManager
	ghostdagDataStore  model.GHOSTDAGDataStore
	headerStore        model.BlockHeaderStore
	orderingCaches     model.OrderingCaches

	k model.KType
}

// New instantiates a new GHOSTDAGManager
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagDataStore model.GHOSTDAGDataStore,
	headerStore model.BlockHeaderStore,
	orderingCaches model.OrderingCaches,
	k model.KType) model.GHOSTDAGManager {

	return &ghostdagManager{
		databaseContext:    databaseContext,
		dagTopologyManager: dagTopologyManager,
		ghostdagDataStore:  ghostdagDataStore,
		headerStore:        headerStore,
		orderingCaches:     orderingCaches,
		k:                  k,
	}
}

// ghostdagData returns the GHOSTDAG data of blockHash, consulting the blue
// set cache first. Only committed data is ever cached.
func (gm *ghostdagManager) ghostdagData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.BlockGHOSTDAGData, error) {

	if ghostdagData, ok := gm.orderingCaches.BlueSet(blockHash); ok {
		return ghostdagData, nil
	}

	ghostdagData, err := gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if !gm.ghostdagDataStore.IsBlockStaged(stagingArea, blockHash) {
		gm.orderingCaches.AddBlueSet(blockHash, ghostdagData)
	}
	return ghostdagData, nil
}
