package blockstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type blockStagingShard struct {
	store *blockStore
	toAdd map[externalapi.DomainHash][]*externalapi.DomainTransaction
}

func (bs *blockStore) stagingShard(stagingArea *model.StagingArea) *blockStagingShard {
	return stagingArea.GetOrCreateShard(bs.shardID, func() model.StagingShard {
		return &blockStagingShard{
			store: bs,
			toAdd: make(map[externalapi.DomainHash][]*externalapi.DomainTransaction),
		}
	}).(*blockStagingShard)
}

func (bss *blockStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, transactions := range bss.toAdd {
		hash := hash
		err := dbTx.Put(bss.store.hashAsKey(&hash), serialization.SerializeBlockTransactions(transactions))
		if err != nil {
			return err
		}
		bss.store.cache.Add(&hash, transactions)
	}
	return nil
}

func (bss *blockStagingShard) isStaged() bool {
	return len(bss.toAdd) != 0
}
