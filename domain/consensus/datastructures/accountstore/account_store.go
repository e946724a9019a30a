package accountstore

import (
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/lrucache"
)

var bucketName = []byte("accounts")

// accountStore represents the committed account state
type accountStore struct {
	shardID model.StagingShardID
	cache   *lrucache.LRUCache
	bucket  model.DBBucket
}

// New instantiates a new AccountStore
func New(cacheSize int) model.AccountStore {
	return &accountStore{
		shardID: model.StagingShardIDAccount,
		cache:   lrucache.New(cacheSize),
		bucket:  database.MakeBucket(bucketName),
	}
}

func (as *accountStore) Stage(stagingArea *model.StagingArea, accountKey externalapi.AccountKey,
	account *externalapi.Account) {

	stagingShard := as.stagingShard(stagingArea)
	delete(stagingShard.toDelete, accountKey)
	stagingShard.toAdd[accountKey] = account.Clone()
}

func (as *accountStore) StageDelete(stagingArea *model.StagingArea, accountKey externalapi.AccountKey) {
	stagingShard := as.stagingShard(stagingArea)
	delete(stagingShard.toAdd, accountKey)
	stagingShard.toDelete[accountKey] = struct{}{}
}

func (as *accountStore) IsStaged(stagingArea *model.StagingArea) bool {
	return as.stagingShard(stagingArea).isStaged()
}

func (as *accountStore) Account(dbContext model.DBReader, stagingArea *model.StagingArea,
	accountKey externalapi.AccountKey) (*externalapi.Account, error) {

	stagingShard := as.stagingShard(stagingArea)

	if account, ok := stagingShard.toAdd[accountKey]; ok {
		return account.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[accountKey]; ok {
		return nil, nil
	}

	cacheKey := accountCacheKey(accountKey)
	if account, ok := as.cache.Get(cacheKey); ok {
		return account.(*externalapi.Account).Clone(), nil
	}

	accountBytes, err := dbContext.Get(as.accountAsKey(accountKey))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account, err := serialization.DeserializeAccount(accountBytes)
	if err != nil {
		return nil, err
	}
	as.cache.Add(cacheKey, account)
	return account.Clone(), nil
}

func (as *accountStore) ClearCache() {
	as.cache.Clear()
}

func (as *accountStore) accountAsKey(accountKey externalapi.AccountKey) model.DBKey {
	return as.bucket.Key(accountKey[:])
}

func accountCacheKey(accountKey externalapi.AccountKey) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray((*[externalapi.DomainHashSize]byte)(&accountKey))
}
