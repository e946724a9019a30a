package topoheightstore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type topoheightStagingShard struct {
	store *topoheightStore

	toAdd             map[externalapi.DomainHash]uint64
	toAddByTopoheight map[uint64]*externalapi.DomainHash

	toDelete           map[externalapi.DomainHash]uint64
	deletedTopoheights map[uint64]struct{}

	maxTopoheight *uint64
}

func (ts *topoheightStore) stagingShard(stagingArea *model.StagingArea) *topoheightStagingShard {
	return stagingArea.GetOrCreateShard(ts.shardID, func() model.StagingShard {
		return &topoheightStagingShard{
			store:              ts,
			toAdd:              make(map[externalapi.DomainHash]uint64),
			toAddByTopoheight:  make(map[uint64]*externalapi.DomainHash),
			toDelete:           make(map[externalapi.DomainHash]uint64),
			deletedTopoheights: make(map[uint64]struct{}),
		}
	}).(*topoheightStagingShard)
}

// Commit applies removals before additions, since a reorg reassigns the
// topoheights it vacates
func (tss *topoheightStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, topoheight := range tss.toDelete {
		hash := hash
		err := dbTx.Delete(tss.store.blockToTopoheightBucket.Key(hash.ByteSlice()))
		if err != nil {
			return err
		}
		err = dbTx.Delete(tss.store.topoheightAsKey(topoheight))
		if err != nil {
			return err
		}
		tss.store.cache.Remove(&hash)
	}

	for hash, topoheight := range tss.toAdd {
		hash := hash
		err := dbTx.Put(tss.store.blockToTopoheightBucket.Key(hash.ByteSlice()), serialization.SerializeUint64(topoheight))
		if err != nil {
			return err
		}
		err = dbTx.Put(tss.store.topoheightAsKey(topoheight), serialization.SerializeHash(&hash))
		if err != nil {
			return err
		}
		tss.store.cache.Add(&hash, topoheight)
	}

	if tss.maxTopoheight != nil {
		err := dbTx.Put(tss.store.maxTopoheightKey, serialization.SerializeUint64(*tss.maxTopoheight))
		if err != nil {
			return err
		}
	}
	return nil
}

func (tss *topoheightStagingShard) isStaged() bool {
	return len(tss.toAdd) != 0 || len(tss.toDelete) != 0 || tss.maxTopoheight != nil
}
