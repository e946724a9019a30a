package blockparentbuilder

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/infrastructure/logger"
)

type blockParentBuilder struct {
	databaseContext   model.DBReader
	maxBlockParents   model.KType
	mergeSetSizeLimit uint64

	consensusStateManager model.ConsensusStateManager
	ghostdagManager       model.GHOSTDAGManager
	orderingCaches        model.OrderingCaches
	consensusStateStore   model.ConsensusStateStore
}

// New creates a new instance of a BlockParentBuilder
func New(
	databaseContext model.DBReader,
	maxBlockParents model.KType,
	mergeSetSizeLimit uint64,
	consensusStateManager model.ConsensusStateManager,
	ghostdagManager model.GHOSTDAGManager,
	orderingCaches model.OrderingCaches,
	consensusStateStore model.ConsensusStateStore,
) model.BlockParentBuilder {
	return &blockParentBuilder{
		databaseContext:       databaseContext,
		maxBlockParents:       maxBlockParents,
		mergeSetSizeLimit:     mergeSetSizeLimit,
		consensusStateManager: consensusStateManager,
		ghostdagManager:       ghostdagManager,
		orderingCaches:        orderingCaches,
		consensusStateStore:   consensusStateStore,
	}
}

// BuildTemplateSkeleton returns the parents a new block should point at,
// together with the GHOSTDAG data such a block would get. The best tip is
// always the first parent. The other tips follow best first for as long as
// the merge set stays within its limit.
func (bpb *blockParentBuilder) BuildTemplateSkeleton(stagingArea *model.StagingArea) (*model.TemplateSkeleton, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildTemplateSkeleton")
	defer onEnd()

	tips, err := bpb.consensusStateStore.Tips(bpb.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if skeleton, ok := bpb.orderingCaches.Template(tips); ok {
		return skeleton.Clone(), nil
	}

	candidates, err := bpb.consensusStateManager.SortTipsBestFirst(stagingArea, tips)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("there are no tips to build a block over")
	}

	parents := []*externalapi.DomainHash{candidates[0]}
	ghostdagData, err := bpb.ghostdagManager.GHOSTDAGForParents(stagingArea, parents)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates[1:] {
		if len(parents) == int(bpb.maxBlockParents) {
			break
		}

		tentativeParents := append(externalapi.CloneHashes(parents), candidate)
		tentativeData, err := bpb.ghostdagManager.GHOSTDAGForParents(stagingArea, tentativeParents)
		if err != nil {
			return nil, err
		}
		if uint64(tentativeData.MergeSetSize()) > bpb.mergeSetSizeLimit {
			log.Debugf("Tip %s is left out of the template parents: merging it would "+
				"make a merge set of %d blocks", candidate, tentativeData.MergeSetSize())
			continue
		}

		parents = tentativeParents
		ghostdagData = tentativeData
	}

	skeleton := &model.TemplateSkeleton{
		Parents:        parents,
		SelectedParent: ghostdagData.SelectedParent(),
		MergeSetBlues:  ghostdagData.MergeSetBlues(),
		MergeSetReds:   ghostdagData.MergeSetReds(),
		BlueScore:      ghostdagData.BlueScore(),
		BlueWork:       ghostdagData.BlueWork(),
	}
	log.Debugf("Template parents over %d tips: %s", len(tips), parents)

	bpb.orderingCaches.AddTemplate(tips, skeleton.Clone())
	return skeleton, nil
}
