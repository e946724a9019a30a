package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// BlockHeightStore represents a store of block heights
type BlockHeightStore interface {
	Store
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, height uint64)
	IsStaged(stagingArea *StagingArea) bool
	Get(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (uint64, error)
}
