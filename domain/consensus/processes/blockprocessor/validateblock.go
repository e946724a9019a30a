package blockprocessor

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
)

// validateBlockStructure runs every check that needs no DAG data beyond
// the existence of the block's parents. Nothing is staged on failure.
func (bp *blockProcessor) validateBlockStructure(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error {

	log.Debugf("Validating block %s", blockHash)

	hasHeader, err := bp.blockHeaderStore.HasBlockHeader(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if hasHeader {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)
	}

	err = bp.blockValidator.ValidateHeaderInIsolation(blockHash, block.Header)
	if err != nil {
		return err
	}
	err = bp.blockValidator.ValidateBodyInIsolation(block)
	if err != nil {
		return err
	}

	if blockHash.Equal(bp.genesisHash) {
		return nil
	}

	err = bp.blockValidator.ValidateParentsExist(stagingArea, block.Header)
	if err != nil {
		return err
	}
	err = bp.blockValidator.ValidatePruningPointFuture(stagingArea, block.Header)
	if err != nil {
		return err
	}
	return bp.blockValidator.ValidateParentsRelation(stagingArea, block.Header)
}

// stageBlockDAGData stages the block and everything derived from its place
// in the DAG: relations, height, GHOSTDAG data and reachability
func (bp *blockProcessor) stageBlockDAGData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error {

	bp.blockHeaderStore.Stage(stagingArea, blockHash, block.Header)
	bp.blockStore.Stage(stagingArea, blockHash, block.Transactions)

	err := bp.dagTopologyManager.SetParents(stagingArea, blockHash, block.Header.Parents)
	if err != nil {
		return err
	}

	height, err := bp.blockHeight(stagingArea, block.Header.Parents)
	if err != nil {
		return err
	}
	bp.blockHeightStore.Stage(stagingArea, blockHash, height)

	err = bp.ghostdagManager.GHOSTDAG(stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = bp.blockValidator.ValidateHeaderInContext(stagingArea, blockHash)
	if err != nil {
		return err
	}

	return bp.reachabilityManager.AddBlock(stagingArea, blockHash)
}

// blockHeight is one more than the highest parent, and 0 for genesis
func (bp *blockProcessor) blockHeight(stagingArea *model.StagingArea,
	parents []*externalapi.DomainHash) (uint64, error) {

	if len(parents) == 0 {
		return 0, nil
	}
	var maxParentHeight uint64
	for _, parent := range parents {
		parentHeight, err := bp.blockHeightStore.Get(bp.databaseContext, stagingArea, parent)
		if err != nil {
			return 0, err
		}
		if parentHeight > maxParentHeight {
			maxParentHeight = parentHeight
		}
	}
	return maxParentHeight + 1, nil
}
