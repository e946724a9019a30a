package executionstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type executionStagingShard struct {
	store    *executionStore
	toAdd    map[externalapi.DomainHash]*externalapi.BlockExecutionResult
	toDelete map[externalapi.DomainHash]struct{}
}

func (es *executionStore) stagingShard(stagingArea *model.StagingArea) *executionStagingShard {
	return stagingArea.GetOrCreateShard(es.shardID, func() model.StagingShard {
		return &executionStagingShard{
			store:    es,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.BlockExecutionResult),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*executionStagingShard)
}

func (ess *executionStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash := range ess.toDelete {
		hash := hash
		err := dbTx.Delete(ess.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		ess.store.cache.Remove(&hash)
	}

	for hash, result := range ess.toAdd {
		hash := hash
		err := dbTx.Put(ess.store.hashAsKey(&hash), serialization.SerializeBlockExecutionResult(result))
		if err != nil {
			return err
		}
		ess.store.cache.Add(&hash, result)
	}
	return nil
}

func (ess *executionStagingShard) isStaged() bool {
	return len(ess.toAdd) != 0 || len(ess.toDelete) != 0
}
