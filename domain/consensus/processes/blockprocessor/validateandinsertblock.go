package blockprocessor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/infrastructure/logger"
	"github.com/topodag/topod/infrastructure/metrics"
)

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state. Either everything the block changes is committed or
// nothing is.
func (bp *blockProcessor) ValidateAndInsertBlock(ctx context.Context,
	block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {

	bp.lock.Lock()
	defer bp.lock.Unlock()

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertBlock")
	defer onEnd()

	blockHash := consensushashing.BlockHash(block)
	result, err := bp.validateAndInsertBlock(ctx, blockHash, block)
	if err != nil {
		// Tip comparisons against the discarded block may have been cached
		bp.orderingCaches.InvalidateBlocks([]*externalapi.DomainHash{blockHash})
		if ruleerrors.IsRuleError(err) {
			metrics.BlockRejected()
			log.Debugf("Block %s rejected: %s", blockHash, err)
		}
		return nil, err
	}

	bp.updateCaches(result.VirtualChangeSet)
	bp.updateMetrics(result.VirtualChangeSet)
	blocklogger.LogBlock(block)
	return result, nil
}

func (bp *blockProcessor) validateAndInsertBlock(ctx context.Context, blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {

	stagingArea := model.NewStagingArea()

	isGenesis := blockHash.Equal(bp.genesisHash)
	if isGenesis {
		hasTips, err := bp.consensusStateStore.HasTips(bp.databaseContext, stagingArea)
		if err != nil {
			return nil, err
		}
		if hasTips {
			return nil, errors.Wrapf(ruleerrors.ErrGenesisOnInitializedConsensus,
				"genesis %s was submitted to an initialized consensus", blockHash)
		}
	}

	err := bp.validateBlockStructure(stagingArea, blockHash, block)
	if err != nil {
		return nil, err
	}

	err = bp.stageBlockDAGData(stagingArea, blockHash, block)
	if err != nil {
		return nil, err
	}

	var virtualChangeSet *externalapi.VirtualChangeSet
	if isGenesis {
		virtualChangeSet, err = bp.initGenesis(stagingArea, blockHash)
	} else {
		virtualChangeSet, err = bp.consensusStateManager.AddBlockToVirtual(ctx, stagingArea, blockHash)
	}
	if err != nil {
		return nil, err
	}

	if !isGenesis && virtualChangeSet.ChainChanged {
		err = bp.reachabilityManager.UpdateReindexRoot(stagingArea, virtualChangeSet.SelectedTip)
		if err != nil {
			return nil, err
		}
	}

	err = bp.commit(stagingArea)
	if err != nil {
		return nil, err
	}

	log.Debugf("Block %s validated and inserted", blockHash)
	log.Tracef("Virtual changes of block %s: %s", blockHash, logger.NewLogClosure(func() string {
		return virtualChangeSetString(virtualChangeSet)
	}))

	return &externalapi.BlockInsertionResult{
		BlockHash:        blockHash,
		VirtualChangeSet: virtualChangeSet,
	}, nil
}

func (bp *blockProcessor) initGenesis(stagingArea *model.StagingArea,
	genesisHash *externalapi.DomainHash) (*externalapi.VirtualChangeSet, error) {

	executionResult, err := bp.consensusStateManager.InitGenesis(stagingArea, genesisHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.VirtualChangeSet{
		NewTips:      []*externalapi.DomainHash{genesisHash},
		ChainChanged: true,
		SelectedTip:  genesisHash,
		ChainChanges: &externalapi.SelectedChainChanges{
			Added: []*externalapi.DomainHash{genesisHash},
		},
		ReorgRange:       &externalapi.TopoheightRange{Start: 0, End: 0},
		ExecutionResults: []*externalapi.BlockExecutionResult{executionResult},
	}, nil
}

func (bp *blockProcessor) commit(stagingArea *model.StagingArea) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "commit")
	defer onEnd()

	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

// updateCaches drops every cached result that the committed changes may
// have made stale
func (bp *blockProcessor) updateCaches(changeSet *externalapi.VirtualChangeSet) {
	bp.orderingCaches.InvalidateTemplates()

	var invalidated []*externalapi.DomainHash
	if changeSet.ChainChanges != nil {
		invalidated = append(invalidated, changeSet.ChainChanges.Removed...)
	}
	invalidated = append(invalidated, changeSet.Reordered...)
	invalidated = append(invalidated, changeSet.Pruned...)
	if len(invalidated) > 0 {
		bp.orderingCaches.InvalidateBlocks(invalidated)
	}
}

func (bp *blockProcessor) updateMetrics(changeSet *externalapi.VirtualChangeSet) {
	metrics.BlockAccepted()
	if changeSet.IsReorg() {
		metrics.Reorg(len(changeSet.ChainChanges.Removed))
	}
	if changeSet.ReorgRange != nil {
		metrics.SetMaxTopoheight(changeSet.ReorgRange.End)
	}
}

func virtualChangeSetString(changeSet *externalapi.VirtualChangeSet) string {
	if !changeSet.ChainChanged {
		return "no chain change"
	}
	return fmt.Sprintf("selected tip %s, %d removed, %d added, topoheights [%d, %d], %d pruned",
		changeSet.SelectedTip, len(changeSet.ChainChanges.Removed), len(changeSet.ChainChanges.Added),
		changeSet.ReorgRange.Start, changeSet.ReorgRange.End, len(changeSet.Pruned))
}
