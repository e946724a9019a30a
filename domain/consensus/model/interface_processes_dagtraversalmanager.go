package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// BlockIterator is an iterator over blocks according to some order.
type BlockIterator interface {
	First() bool
	Next() bool
	Get() (*externalapi.DomainHash, error)
	Close() error
}

// DAGTraversalManager exposes methods for traversing blocks
// in the DAG
type DAGTraversalManager interface {
	SelectedParentIterator(stagingArea *StagingArea, highHash *externalapi.DomainHash) BlockIterator
	Anticone(stagingArea *StagingArea, blockHash *externalapi.DomainHash, tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	ChainBlockAtOrBelowTopoheight(stagingArea *StagingArea, highHash *externalapi.DomainHash, topoheight uint64) (*externalapi.DomainHash, error)
	CalculateChainPath(stagingArea *StagingArea, fromBlockHash, toBlockHash *externalapi.DomainHash) (*externalapi.SelectedChainChanges, error)
}
