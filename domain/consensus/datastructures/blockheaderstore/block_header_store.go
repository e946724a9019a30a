package blockheaderstore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var bucketName = []byte("block-headers")

// blockHeaderStore keeps the header of every inserted block. A block is
// known to the DAG exactly when its header is here.
type blockHeaderStore struct {
	shardID model.StagingShardID
	cache   *lrucache.LRUCache
	bucket  model.DBBucket
}

// New instantiates a new BlockHeaderStore
func New(cacheSize int) model.BlockHeaderStore {
	return &blockHeaderStore{
		shardID: model.StagingShardIDBlockHeader,
		cache:   lrucache.New(cacheSize),
		bucket:  database.MakeBucket(bucketName),
	}
}

func (bhs *blockHeaderStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) {

	bhs.stagingShard(stagingArea).toAdd[*blockHash] = header
}

func (bhs *blockHeaderStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bhs.stagingShard(stagingArea).isStaged()
}

func (bhs *blockHeaderStore) BlockHeader(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, error) {

	if header, ok := bhs.stagingShard(stagingArea).toAdd[*blockHash]; ok {
		return header, nil
	}
	if cached, ok := bhs.cache.Get(blockHash); ok {
		return cached.(*externalapi.DomainBlockHeader), nil
	}

	serialized, err := dbContext.Get(bhs.key(blockHash))
	if err != nil {
		return nil, err
	}
	header, err := serialization.DeserializeBlockHeader(serialized)
	if err != nil {
		return nil, err
	}
	bhs.cache.Add(blockHash, header)
	return header, nil
}

func (bhs *blockHeaderStore) HasBlockHeader(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	if _, ok := bhs.stagingShard(stagingArea).toAdd[*blockHash]; ok {
		return true, nil
	}
	if bhs.cache.Has(blockHash) {
		return true, nil
	}
	return dbContext.Has(bhs.key(blockHash))
}

func (bhs *blockHeaderStore) ClearCache() {
	bhs.cache.Clear()
}

func (bhs *blockHeaderStore) key(blockHash *externalapi.DomainHash) model.DBKey {
	return bhs.bucket.Key(blockHash.ByteSlice())
}
