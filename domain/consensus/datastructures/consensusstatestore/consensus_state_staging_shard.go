package consensusstatestore

import (
	"github.com/topodag/topod/domain/consensus/database/serialization"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

type consensusStateStagingShard struct {
	store *consensusStateStore

	tipsStaging               []*externalapi.DomainHash
	virtualSelectedTipStaging *externalapi.DomainHash
	pruningPointStaging       *externalapi.DomainHash
	stateMultisetStaging      []byte
}

func (css *consensusStateStore) stagingShard(stagingArea *model.StagingArea) *consensusStateStagingShard {
	return stagingArea.GetOrCreateShard(css.shardID, func() model.StagingShard {
		return &consensusStateStagingShard{store: css}
	}).(*consensusStateStagingShard)
}

func (csss *consensusStateStagingShard) Commit(dbTx model.DBTransaction) error {
	if csss.tipsStaging != nil {
		err := dbTx.Put(csss.store.tipsKey, serialization.SerializeHashes(csss.tipsStaging))
		if err != nil {
			return err
		}
		csss.store.tipsCache = csss.tipsStaging
	}

	if csss.virtualSelectedTipStaging != nil {
		err := dbTx.Put(csss.store.virtualSelectedTipKey, serialization.SerializeHash(csss.virtualSelectedTipStaging))
		if err != nil {
			return err
		}
		csss.store.virtualSelectedTipCache = csss.virtualSelectedTipStaging
	}

	if csss.pruningPointStaging != nil {
		err := dbTx.Put(csss.store.pruningPointKey, serialization.SerializeHash(csss.pruningPointStaging))
		if err != nil {
			return err
		}
		csss.store.pruningPointCache = csss.pruningPointStaging
	}

	if csss.stateMultisetStaging != nil {
		err := dbTx.Put(csss.store.stateMultisetKey, csss.stateMultisetStaging)
		if err != nil {
			return err
		}
	}

	return nil
}

func (csss *consensusStateStagingShard) isStaged() bool {
	return csss.tipsStaging != nil || csss.virtualSelectedTipStaging != nil ||
		csss.pruningPointStaging != nil || csss.stateMultisetStaging != nil
}
