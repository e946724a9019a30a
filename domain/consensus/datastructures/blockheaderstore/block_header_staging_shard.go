package blockheaderstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type blockHeaderStagingShard struct {
	store *blockHeaderStore
	toAdd map[externalapi.DomainHash]*externalapi.DomainBlockHeader
}

func (bhs *blockHeaderStore) stagingShard(stagingArea *model.StagingArea) *blockHeaderStagingShard {
	return stagingArea.GetOrCreateShard(bhs.shardID, func() model.StagingShard {
		return &blockHeaderStagingShard{
			store: bhs,
			toAdd: make(map[externalapi.DomainHash]*externalapi.DomainBlockHeader),
		}
	}).(*blockHeaderStagingShard)
}

func (bhss *blockHeaderStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, header := range bhss.toAdd {
		hash := hash
		err := dbTx.Put(bhss.store.key(&hash), serialization.SerializeBlockHeader(header))
		if err != nil {
			return err
		}
		bhss.store.cache.Add(&hash, header)
	}
	return nil
}

func (bhss *blockHeaderStagingShard) isStaged() bool {
	return len(bhss.toAdd) != 0
}
