package blockstore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var bucketName = []byte("block-bodies")

// blockStore represents a store of block bodies
type blockStore struct {
	shardID model.StagingShardID
	cache   *lrucache.LRUCache
	bucket  model.DBBucket
}

// New instantiates a new BlockStore
func New(cacheSize int) model.BlockStore {
	return &blockStore{
		shardID: model.StagingShardIDBlock,
		cache:   lrucache.New(cacheSize),
		bucket:  database.MakeBucket(bucketName),
	}
}

// Stage stages the given transactions as the body of the given blockHash
func (bs *blockStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) {

	stagingShard := bs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = transactions
}

func (bs *blockStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bs.stagingShard(stagingArea).isStaged()
}

// Transactions returns the ordered transactions of the given block
func (bs *blockStore) Transactions(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) ([]*externalapi.DomainTransaction, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if transactions, ok := stagingShard.toAdd[*blockHash]; ok {
		return transactions, nil
	}

	if transactions, ok := bs.cache.Get(blockHash); ok {
		return transactions.([]*externalapi.DomainTransaction), nil
	}

	transactionsBytes, err := dbContext.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	transactions, err := serialization.DeserializeBlockTransactions(transactionsBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(blockHash, transactions)
	return transactions, nil
}

// HasBlock returns whether a block body with a given hash exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if bs.cache.Has(blockHash) {
		return true, nil
	}

	return dbContext.Has(bs.hashAsKey(blockHash))
}

func (bs *blockStore) ClearCache() {
	bs.cache.Clear()
}

func (bs *blockStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bs.bucket.Key(hash.ByteSlice())
}
