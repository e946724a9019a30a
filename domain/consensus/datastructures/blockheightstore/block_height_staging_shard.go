package blockheightstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type blockHeightStagingShard struct {
	store *blockHeightStore
	toAdd map[externalapi.DomainHash]uint64
}

func (bhs *blockHeightStore) stagingShard(stagingArea *model.StagingArea) *blockHeightStagingShard {
	return stagingArea.GetOrCreateShard(bhs.shardID, func() model.StagingShard {
		return &blockHeightStagingShard{
			store: bhs,
			toAdd: make(map[externalapi.DomainHash]uint64),
		}
	}).(*blockHeightStagingShard)
}

func (bhss *blockHeightStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, height := range bhss.toAdd {
		hash := hash
		err := dbTx.Put(bhss.store.hashAsKey(&hash), serialization.SerializeUint64(height))
		if err != nil {
			return err
		}
		bhss.store.cache.Add(&hash, height)
	}
	return nil
}

func (bhss *blockHeightStagingShard) isStaged() bool {
	return len(bhss.toAdd) != 0
}
