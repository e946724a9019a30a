package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
)

// ValidateParentsExist returns a missing parents error naming every parent
// of header that was never inserted
func (v *blockValidator) ValidateParentsExist(stagingArea *model.StagingArea,
	header *externalapi.DomainBlockHeader) error {

	var missingParentHashes []*externalapi.DomainHash
	for _, parent := range header.Parents {
		hasParent, err := v.blockHeaderStore.HasBlockHeader(v.databaseContext, stagingArea, parent)
		if err != nil {
			return err
		}
		if !hasParent {
			missingParentHashes = append(missingParentHashes, parent)
		}
	}
	if len(missingParentHashes) > 0 {
		return ruleerrors.NewErrMissingParents(missingParentHashes)
	}
	return nil
}

// ValidatePruningPointFuture rejects blocks that are not in the future of
// the pruning point
func (v *blockValidator) ValidatePruningPointFuture(stagingArea *model.StagingArea,
	header *externalapi.DomainBlockHeader) error {

	isInFuture, err := v.pruningManager.IsInPruningPointFuture(stagingArea, header.Parents)
	if err != nil {
		return err
	}
	if !isInFuture {
		return errors.Wrapf(ruleerrors.ErrPrunedBlock, "block is not in the future of the pruning point")
	}
	return nil
}

// ValidateParentsRelation validates that no parent is an ancestor of another parent
func (v *blockValidator) ValidateParentsRelation(stagingArea *model.StagingArea,
	header *externalapi.DomainBlockHeader) error {

	for _, parentA := range header.Parents {
		for _, parentB := range header.Parents {
			if parentA.Equal(parentB) {
				continue
			}

			isAAncestorOfB, err := v.dagTopologyManager.IsAncestorOf(stagingArea, parentA, parentB)
			if err != nil {
				return err
			}

			if isAAncestorOfB {
				return errors.Wrapf(ruleerrors.ErrInvalidParentsRelation, "parent %s is an "+
					"ancestor of another parent %s",
					parentA,
					parentB,
				)
			}
		}
	}
	return nil
}

// ValidateHeaderInContext validates the parts of a header that depend on
// its GHOSTDAG data, so it must run after GHOSTDAG was staged for blockHash
func (v *blockValidator) ValidateHeaderInContext(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) error {

	ghostdagData, err := v.ghostdagDataStore.Get(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = v.checkMergeSizeLimit(ghostdagData)
	if err != nil {
		return err
	}

	err = v.checkPruningPointInSelectedChain(stagingArea, ghostdagData)
	if err != nil {
		return err
	}

	return v.checkTimestamp(stagingArea, blockHash, ghostdagData)
}

func (v *blockValidator) checkMergeSizeLimit(ghostdagData *model.BlockGHOSTDAGData) error {
	mergeSetSize := ghostdagData.MergeSetSize()

	if uint64(mergeSetSize) > v.mergeSetSizeLimit {
		return errors.Wrapf(ruleerrors.ErrViolatingMergeLimit,
			"The block merges %d blocks > %d merge set size limit", mergeSetSize, v.mergeSetSizeLimit)
	}

	return nil
}

// checkPruningPointInSelectedChain rejects a block whose selected parent
// chain bypasses the pruning point. Selecting such a block would reorder
// blocks below the pruning point.
func (v *blockValidator) checkPruningPointInSelectedChain(stagingArea *model.StagingArea,
	ghostdagData *model.BlockGHOSTDAGData) error {

	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil {
		return nil
	}
	isInSelectedChain, err := v.pruningManager.IsTipInPruningPointFuture(stagingArea, selectedParent)
	if err != nil {
		return err
	}
	if !isInSelectedChain {
		return errors.Wrapf(ruleerrors.ErrPruningPointNotInSelectedChain,
			"the pruning point is not in the selected parent chain of %s", selectedParent)
	}
	return nil
}

func (v *blockValidator) checkTimestamp(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	ghostdagData *model.BlockGHOSTDAGData) error {

	if ghostdagData.SelectedParent() == nil {
		return nil
	}

	header, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	selectedParentHeader, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea,
		ghostdagData.SelectedParent())
	if err != nil {
		return err
	}

	minTime := selectedParentHeader.TimeInMilliseconds - v.timestampDeviationTolerance.Milliseconds()
	if header.TimeInMilliseconds < minTime {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %d is not after the "+
			"earliest allowed timestamp %d", header.TimeInMilliseconds, minTime)
	}
	log.Tracef("Block %s passed the timestamp check", blockHash)
	return nil
}
