package topoheightstore

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var blockToTopoheightBucketName = []byte("block-to-topoheight")
var topoheightToBlockBucketName = []byte("topoheight-to-block")
var maxTopoheightKeyName = []byte("max-topoheight")

// topoheightStore keeps the topological order in both directions. A block
// without a topoheight is outside the past of the virtual selected tip.
type topoheightStore struct {
	shardID                 model.StagingShardID
	cache                   *lrucache.LRUCache
	blockToTopoheightBucket model.DBBucket
	topoheightToBlockBucket model.DBBucket
	maxTopoheightKey        model.DBKey
}

// New instantiates a new TopoheightStore
func New(cacheSize int) model.TopoheightStore {
	return &topoheightStore{
		shardID:                 model.StagingShardIDTopoheight,
		cache:                   lrucache.New(cacheSize),
		blockToTopoheightBucket: database.MakeBucket(blockToTopoheightBucketName),
		topoheightToBlockBucket: database.MakeBucket(topoheightToBlockBucketName),
		maxTopoheightKey:        database.MakeBucket(nil).Key(maxTopoheightKeyName),
	}
}

func (ts *topoheightStore) StageTopoheight(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	topoheight uint64) {

	stagingShard := ts.stagingShard(stagingArea)
	if previous, ok := stagingShard.toAdd[*blockHash]; ok {
		if holder, ok := stagingShard.toAddByTopoheight[previous]; ok && holder.Equal(blockHash) {
			delete(stagingShard.toAddByTopoheight, previous)
		}
	}
	stagingShard.toAdd[*blockHash] = topoheight
	stagingShard.toAddByTopoheight[topoheight] = blockHash
}

// StageRemoval removes blockHash from the order. topoheight is the position
// the block currently holds.
func (ts *topoheightStore) StageRemoval(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	topoheight uint64) {

	stagingShard := ts.stagingShard(stagingArea)
	if previous, ok := stagingShard.toAdd[*blockHash]; ok {
		if holder, ok := stagingShard.toAddByTopoheight[previous]; ok && holder.Equal(blockHash) {
			delete(stagingShard.toAddByTopoheight, previous)
		}
		delete(stagingShard.toAdd, *blockHash)
	}
	if _, ok := stagingShard.toDelete[*blockHash]; !ok {
		stagingShard.toDelete[*blockHash] = topoheight
	}
	stagingShard.deletedTopoheights[topoheight] = struct{}{}
}

func (ts *topoheightStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ts.stagingShard(stagingArea).isStaged()
}

func (ts *topoheightStore) Topoheight(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (uint64, error) {

	stagingShard := ts.stagingShard(stagingArea)

	if topoheight, ok := stagingShard.toAdd[*blockHash]; ok {
		return topoheight, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return 0, errors.Wrapf(database.ErrNotFound, "block %s has no topoheight", blockHash)
	}

	if topoheight, ok := ts.cache.Get(blockHash); ok {
		return topoheight.(uint64), nil
	}

	topoheightBytes, err := dbContext.Get(ts.blockToTopoheightBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return 0, err
	}
	topoheight, err := serialization.DeserializeUint64(topoheightBytes)
	if err != nil {
		return 0, err
	}
	ts.cache.Add(blockHash, topoheight)
	return topoheight, nil
}

func (ts *topoheightStore) HasTopoheight(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := ts.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}
	if ts.cache.Has(blockHash) {
		return true, nil
	}
	return dbContext.Has(ts.blockToTopoheightBucket.Key(blockHash.ByteSlice()))
}

func (ts *topoheightStore) BlockAtTopoheight(dbContext model.DBReader, stagingArea *model.StagingArea,
	topoheight uint64) (*externalapi.DomainHash, error) {

	stagingShard := ts.stagingShard(stagingArea)

	if blockHash, ok := stagingShard.toAddByTopoheight[topoheight]; ok {
		return blockHash, nil
	}
	if _, ok := stagingShard.deletedTopoheights[topoheight]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "no block at topoheight %d", topoheight)
	}

	blockHashBytes, err := dbContext.Get(ts.topoheightAsKey(topoheight))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeHash(blockHashBytes)
}

func (ts *topoheightStore) StageMaxTopoheight(stagingArea *model.StagingArea, topoheight uint64) {
	stagingShard := ts.stagingShard(stagingArea)
	stagingShard.maxTopoheight = &topoheight
}

func (ts *topoheightStore) MaxTopoheight(dbContext model.DBReader, stagingArea *model.StagingArea) (uint64, error) {
	stagingShard := ts.stagingShard(stagingArea)
	if stagingShard.maxTopoheight != nil {
		return *stagingShard.maxTopoheight, nil
	}

	maxTopoheightBytes, err := dbContext.Get(ts.maxTopoheightKey)
	if err != nil {
		return 0, err
	}
	return serialization.DeserializeUint64(maxTopoheightBytes)
}

func (ts *topoheightStore) ClearCache() {
	ts.cache.Clear()
}

func (ts *topoheightStore) topoheightAsKey(topoheight uint64) model.DBKey {
	return ts.topoheightToBlockBucket.Key(serialization.SerializeUint64(topoheight))
}
