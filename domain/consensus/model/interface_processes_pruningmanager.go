package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// PruningManager resolves and manages the current pruning point
type PruningManager interface {
	UpdatePruningPoint(stagingArea *StagingArea, selectedTip *externalapi.DomainHash) (pruned []*externalapi.DomainHash, err error)
	IsInPruningPointFuture(stagingArea *StagingArea, parentHashes []*externalapi.DomainHash) (bool, error)
	IsTipInPruningPointFuture(stagingArea *StagingArea, tipHash *externalapi.DomainHash) (bool, error)
}
