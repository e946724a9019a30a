package dagtraversalmanager

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type selectedParentIterator struct {
	databaseContext   model.DBReader
	ghostdagDataStore model.GHOSTDAGDataStore
	stagingArea       *model.StagingArea

	highHash *externalapi.DomainHash
	current  *externalapi.DomainHash
	err      error
	isClosed bool
}

func (spi *selectedParentIterator) First() bool {
	if spi.isClosed {
		panic("Tried using a closed SelectedParentIterator")
	}
	spi.current = spi.highHash
	spi.err = nil
	return true
}

func (spi *selectedParentIterator) Next() bool {
	if spi.isClosed {
		panic("Tried using a closed SelectedParentIterator")
	}
	if spi.err != nil {
		return true
	}

	ghostdagData, err := spi.ghostdagDataStore.Get(spi.databaseContext, spi.stagingArea, spi.current)
	if err != nil {
		spi.current = nil
		spi.err = err
		return true
	}
	if ghostdagData.SelectedParent() == nil {
		return false
	}
	spi.current = ghostdagData.SelectedParent()
	return true
}

func (spi *selectedParentIterator) Get() (*externalapi.DomainHash, error) {
	if spi.isClosed {
		return nil, errors.New("Tried using a closed SelectedParentIterator")
	}
	return spi.current, spi.err
}

func (spi *selectedParentIterator) Close() error {
	if spi.isClosed {
		return errors.New("Tried using a closed SelectedParentIterator")
	}
	spi.isClosed = true
	spi.databaseContext = nil
	spi.ghostdagDataStore = nil
	spi.stagingArea = nil
	spi.highHash = nil
	spi.current = nil
	spi.err = nil
	return nil
}

// SelectedParentIterator returns a BlockIterator that iterates from highHash
// (inclusive) down its selected parent chain to genesis (inclusive)
func (dtm *dagTraversalManager) SelectedParentIterator(stagingArea *model.StagingArea,
	highHash *externalapi.DomainHash) model.BlockIterator {

	return &selectedParentIterator{
		databaseContext:   dtm.databaseContext,
		ghostdagDataStore: dtm.ghostdagDataStore,
		stagingArea:       stagingArea,
		highHash:          highHash,
		current:           highHash,
	}
}
