package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// AccountStore represents a store of account states
type AccountStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool
	Stage(stagingArea *StagingArea, accountKey externalapi.AccountKey, account *externalapi.Account)
	StageDelete(stagingArea *StagingArea, accountKey externalapi.AccountKey)
	// Account returns nil without an error when the account does not exist
	Account(dbContext DBReader, stagingArea *StagingArea, accountKey externalapi.AccountKey) (*externalapi.Account, error)
}
