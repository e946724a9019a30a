package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// ConsensusStateStore represents a store for the current consensus state:
// the tips, the virtual selected tip, the pruning point and the
// serialized account-state multiset
type ConsensusStateStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool

	StageTips(stagingArea *StagingArea, tipHashes []*externalapi.DomainHash)
	Tips(dbContext DBReader, stagingArea *StagingArea) ([]*externalapi.DomainHash, error)
	HasTips(dbContext DBReader, stagingArea *StagingArea) (bool, error)

	StageVirtualSelectedTip(stagingArea *StagingArea, selectedTip *externalapi.DomainHash)
	VirtualSelectedTip(dbContext DBReader, stagingArea *StagingArea) (*externalapi.DomainHash, error)

	StagePruningPoint(stagingArea *StagingArea, pruningPoint *externalapi.DomainHash)
	PruningPoint(dbContext DBReader, stagingArea *StagingArea) (*externalapi.DomainHash, error)

	StageStateMultiset(stagingArea *StagingArea, serializedMultiset []byte)
	StateMultiset(dbContext DBReader, stagingArea *StagingArea) ([]byte, error)
}
