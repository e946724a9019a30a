package executionstore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var bucketName = []byte("block-execution-results")

// executionStore keeps the execution result of every block currently in the
// topological order. The recorded account changes are what RevertBlock uses.
type executionStore struct {
	shardID model.StagingShardID
	cache   *lrucache.LRUCache
	bucket  model.DBBucket
}

// New instantiates a new ExecutionStore
func New(cacheSize int) model.ExecutionStore {
	return &executionStore{
		shardID: model.StagingShardIDExecution,
		cache:   lrucache.New(cacheSize),
		bucket:  database.MakeBucket(bucketName),
	}
}

func (es *executionStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	result *externalapi.BlockExecutionResult) {

	stagingShard := es.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = result
}

func (es *executionStore) StageDelete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := es.stagingShard(stagingArea)
	delete(stagingShard.toAdd, *blockHash)
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (es *executionStore) IsStaged(stagingArea *model.StagingArea) bool {
	return es.stagingShard(stagingArea).isStaged()
}

func (es *executionStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error) {

	stagingShard := es.stagingShard(stagingArea)

	if result, ok := stagingShard.toAdd[*blockHash]; ok {
		return result, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, database.ErrNotFound
	}

	if result, ok := es.cache.Get(blockHash); ok {
		return result.(*externalapi.BlockExecutionResult), nil
	}

	resultBytes, err := dbContext.Get(es.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	result, err := serialization.DeserializeBlockExecutionResult(resultBytes)
	if err != nil {
		return nil, err
	}
	es.cache.Add(blockHash, result)
	return result, nil
}

func (es *executionStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := es.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}
	if es.cache.Has(blockHash) {
		return true, nil
	}
	return dbContext.Has(es.hashAsKey(blockHash))
}

func (es *executionStore) ClearCache() {
	es.cache.Clear()
}

func (es *executionStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return es.bucket.Key(hash.ByteSlice())
}
