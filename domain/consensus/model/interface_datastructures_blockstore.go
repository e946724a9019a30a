package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// BlockStore represents a store of block bodies
type BlockStore interface {
	Store
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction)
	IsStaged(stagingArea *StagingArea) bool
	Transactions(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) ([]*externalapi.DomainTransaction, error)
	HasBlock(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
}
