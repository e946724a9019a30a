package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid
type BlockValidator interface {
	ValidateHeaderInIsolation(blockHash *externalapi.DomainHash, header *externalapi.DomainBlockHeader) error
	ValidateBodyInIsolation(block *externalapi.DomainBlock) error
	ValidateParentsExist(stagingArea *StagingArea, header *externalapi.DomainBlockHeader) error
	ValidatePruningPointFuture(stagingArea *StagingArea, header *externalapi.DomainBlockHeader) error
	ValidateParentsRelation(stagingArea *StagingArea, header *externalapi.DomainBlockHeader) error
	ValidateHeaderInContext(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error
}
