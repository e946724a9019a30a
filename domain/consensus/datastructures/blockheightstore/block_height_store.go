package blockheightstore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var bucketName = []byte("block-heights")

// blockHeightStore maps every block to its height, the length of the
// longest parent path from genesis
type blockHeightStore struct {
	shardID model.StagingShardID
	cache   *lrucache.LRUCache
	bucket  model.DBBucket
}

// New instantiates a new BlockHeightStore
func New(cacheSize int) model.BlockHeightStore {
	return &blockHeightStore{
		shardID: model.StagingShardIDBlockHeight,
		cache:   lrucache.New(cacheSize),
		bucket:  database.MakeBucket(bucketName),
	}
}

func (bhs *blockHeightStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, height uint64) {
	stagingShard := bhs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = height
}

func (bhs *blockHeightStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bhs.stagingShard(stagingArea).isStaged()
}

func (bhs *blockHeightStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (uint64, error) {

	stagingShard := bhs.stagingShard(stagingArea)

	if height, ok := stagingShard.toAdd[*blockHash]; ok {
		return height, nil
	}

	if height, ok := bhs.cache.Get(blockHash); ok {
		return height.(uint64), nil
	}

	heightBytes, err := dbContext.Get(bhs.hashAsKey(blockHash))
	if err != nil {
		return 0, err
	}
	height, err := serialization.DeserializeUint64(heightBytes)
	if err != nil {
		return 0, err
	}
	bhs.cache.Add(blockHash, height)
	return height, nil
}

func (bhs *blockHeightStore) ClearCache() {
	bhs.cache.Clear()
}

func (bhs *blockHeightStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bhs.bucket.Key(hash.ByteSlice())
}
