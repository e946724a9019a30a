package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// TopoheightStore represents a store of the topological order: it maps
// blocks to topoheights and topoheights back to blocks
type TopoheightStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool

	StageTopoheight(stagingArea *StagingArea, blockHash *externalapi.DomainHash, topoheight uint64)
	StageRemoval(stagingArea *StagingArea, blockHash *externalapi.DomainHash, topoheight uint64)
	Topoheight(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (uint64, error)
	HasTopoheight(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	BlockAtTopoheight(dbContext DBReader, stagingArea *StagingArea, topoheight uint64) (*externalapi.DomainHash, error)

	StageMaxTopoheight(stagingArea *StagingArea, topoheight uint64)
	MaxTopoheight(dbContext DBReader, stagingArea *StagingArea) (uint64, error)
}
