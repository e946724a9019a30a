package consensusstatestore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

var tipsKeyName = []byte("tips")
var virtualSelectedTipKeyName = []byte("virtual-selected-tip")
var pruningPointKeyName = []byte("pruning-point")
var stateMultisetKeyName = []byte("state-multiset")

// consensusStateStore represents a store for the current consensus state
type consensusStateStore struct {
	shardID model.StagingShardID

	tipsKey               model.DBKey
	virtualSelectedTipKey model.DBKey
	pruningPointKey       model.DBKey
	stateMultisetKey      model.DBKey

	tipsCache               []*externalapi.DomainHash
	virtualSelectedTipCache *externalapi.DomainHash
	pruningPointCache       *externalapi.DomainHash
}

// New instantiates a new ConsensusStateStore
func New() model.ConsensusStateStore {
	bucket := database.MakeBucket([]byte("consensus-state"))
	return &consensusStateStore{
		shardID:               model.StagingShardIDConsensusState,
		tipsKey:               bucket.Key(tipsKeyName),
		virtualSelectedTipKey: bucket.Key(virtualSelectedTipKeyName),
		pruningPointKey:       bucket.Key(pruningPointKeyName),
		stateMultisetKey:      bucket.Key(stateMultisetKeyName),
	}
}

func (css *consensusStateStore) IsStaged(stagingArea *model.StagingArea) bool {
	return css.stagingShard(stagingArea).isStaged()
}

func (css *consensusStateStore) ClearCache() {
	css.tipsCache = nil
	css.virtualSelectedTipCache = nil
	css.pruningPointCache = nil
}

func (css *consensusStateStore) StageTips(stagingArea *model.StagingArea, tipHashes []*externalapi.DomainHash) {
	stagingShard := css.stagingShard(stagingArea)
	stagingShard.tipsStaging = externalapi.CloneHashes(tipHashes)
}

func (css *consensusStateStore) Tips(dbContext model.DBReader, stagingArea *model.StagingArea) ([]*externalapi.DomainHash, error) {
	stagingShard := css.stagingShard(stagingArea)

	if stagingShard.tipsStaging != nil {
		return externalapi.CloneHashes(stagingShard.tipsStaging), nil
	}

	if css.tipsCache != nil {
		return externalapi.CloneHashes(css.tipsCache), nil
	}

	tipsBytes, err := dbContext.Get(css.tipsKey)
	if err != nil {
		return nil, err
	}

	tips, err := serialization.DeserializeHashes(tipsBytes)
	if err != nil {
		return nil, err
	}
	css.tipsCache = tips
	return externalapi.CloneHashes(tips), nil
}

func (css *consensusStateStore) HasTips(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	stagingShard := css.stagingShard(stagingArea)

	if len(stagingShard.tipsStaging) > 0 {
		return true, nil
	}

	if len(css.tipsCache) > 0 {
		return true, nil
	}

	return dbContext.Has(css.tipsKey)
}

func (css *consensusStateStore) StageVirtualSelectedTip(stagingArea *model.StagingArea, selectedTip *externalapi.DomainHash) {
	css.stagingShard(stagingArea).virtualSelectedTipStaging = selectedTip
}

func (css *consensusStateStore) VirtualSelectedTip(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	stagingShard := css.stagingShard(stagingArea)

	if stagingShard.virtualSelectedTipStaging != nil {
		return stagingShard.virtualSelectedTipStaging, nil
	}
	if css.virtualSelectedTipCache != nil {
		return css.virtualSelectedTipCache, nil
	}

	selectedTipBytes, err := dbContext.Get(css.virtualSelectedTipKey)
	if err != nil {
		return nil, err
	}
	selectedTip, err := serialization.DeserializeHash(selectedTipBytes)
	if err != nil {
		return nil, err
	}
	css.virtualSelectedTipCache = selectedTip
	return selectedTip, nil
}

func (css *consensusStateStore) StagePruningPoint(stagingArea *model.StagingArea, pruningPoint *externalapi.DomainHash) {
	css.stagingShard(stagingArea).pruningPointStaging = pruningPoint
}

func (css *consensusStateStore) PruningPoint(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	stagingShard := css.stagingShard(stagingArea)

	if stagingShard.pruningPointStaging != nil {
		return stagingShard.pruningPointStaging, nil
	}
	if css.pruningPointCache != nil {
		return css.pruningPointCache, nil
	}

	pruningPointBytes, err := dbContext.Get(css.pruningPointKey)
	if err != nil {
		return nil, err
	}
	pruningPoint, err := serialization.DeserializeHash(pruningPointBytes)
	if err != nil {
		return nil, err
	}
	css.pruningPointCache = pruningPoint
	return pruningPoint, nil
}

func (css *consensusStateStore) StageStateMultiset(stagingArea *model.StagingArea, serializedMultiset []byte) {
	css.stagingShard(stagingArea).stateMultisetStaging = serializedMultiset
}

// StateMultiset is read directly from the database since it is only needed
// once per staging area
func (css *consensusStateStore) StateMultiset(dbContext model.DBReader, stagingArea *model.StagingArea) ([]byte, error) {
	stagingShard := css.stagingShard(stagingArea)

	if stagingShard.stateMultisetStaging != nil {
		return stagingShard.stateMultisetStaging, nil
	}
	return dbContext.Get(css.stateMultisetKey)
}
