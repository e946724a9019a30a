package accountstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type accountStagingShard struct {
	store    *accountStore
	toAdd    map[externalapi.AccountKey]*externalapi.Account
	toDelete map[externalapi.AccountKey]struct{}
}

func (as *accountStore) stagingShard(stagingArea *model.StagingArea) *accountStagingShard {
	return stagingArea.GetOrCreateShard(as.shardID, func() model.StagingShard {
		return &accountStagingShard{
			store:    as,
			toAdd:    make(map[externalapi.AccountKey]*externalapi.Account),
			toDelete: make(map[externalapi.AccountKey]struct{}),
		}
	}).(*accountStagingShard)
}

func (ass *accountStagingShard) Commit(dbTx model.DBTransaction) error {
	for accountKey := range ass.toDelete {
		err := dbTx.Delete(ass.store.accountAsKey(accountKey))
		if err != nil {
			return err
		}
		ass.store.cache.Remove(accountCacheKey(accountKey))
	}

	for accountKey, account := range ass.toAdd {
		err := dbTx.Put(ass.store.accountAsKey(accountKey), serialization.SerializeAccount(account))
		if err != nil {
			return err
		}
		ass.store.cache.Add(accountCacheKey(accountKey), account)
	}
	return nil
}

func (ass *accountStagingShard) isStaged() bool {
	return len(ass.toAdd) != 0 || len(ass.toDelete) != 0
}
