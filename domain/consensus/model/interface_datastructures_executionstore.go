package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// ExecutionStore represents a store of block execution results, which
// double as undo data when a block leaves the selected chain's past
type ExecutionStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, result *externalapi.BlockExecutionResult)
	StageDelete(stagingArea *StagingArea, blockHash *externalapi.DomainHash)
	Get(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error)
	Has(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
}
