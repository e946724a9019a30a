package consensus

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	consensusdatabase "github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/datastructures/accountstore"
	"github.com/topodag/topod/domain/consensus/datastructures/blockheaderstore"
	"github.com/topodag/topod/domain/consensus/datastructures/blockheightstore"
	"github.com/topodag/topod/domain/consensus/datastructures/blockrelationstore"
	"github.com/topodag/topod/domain/consensus/datastructures/blockstore"
	"github.com/topodag/topod/domain/consensus/datastructures/consensusstatestore"
	"github.com/topodag/topod/domain/consensus/datastructures/executionstore"
	"github.com/topodag/topod/domain/consensus/datastructures/ghostdagdatastore"
	"github.com/topodag/topod/domain/consensus/datastructures/reachabilitydatastore"
	"github.com/topodag/topod/domain/consensus/datastructures/topoheightstore"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/domain/consensus/processes/blockparentbuilder"
	"github.com/topodag/topod/domain/consensus/processes/blockprocessor"
	"github.com/topodag/topod/domain/consensus/processes/blockvalidator"
	"github.com/topodag/topod/domain/consensus/processes/consensusstatemanager"
	"github.com/topodag/topod/domain/consensus/processes/dagtopologymanager"
	"github.com/topodag/topod/domain/consensus/processes/dagtraversalmanager"
	"github.com/topodag/topod/domain/consensus/processes/ghostdagmanager"
	"github.com/topodag/topod/domain/consensus/processes/orderingcaches"
	"github.com/topodag/topod/domain/consensus/processes/parallelexecutor"
	"github.com/topodag/topod/domain/consensus/processes/pruningmanager"
	"github.com/topodag/topod/domain/consensus/processes/reachabilitymanager"
	"github.com/topodag/topod/infrastructure/db/database"
	"github.com/topodag/topod/infrastructure/db/database/pebble"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database) (Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc TestConsensus, teardown func(keepDataDir bool), err error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus over db. A fresh database gets
// the network's genesis block inserted.
func (f *factory) NewConsensus(config *Config, db database.Database) (Consensus, error) {
	c, err := f.newConsensus(config, db)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *factory) newConsensus(config *Config, db database.Database) (*consensus, error) {
	if config.Workers < 1 || config.Workers > accountlockmanager.MaxThreads {
		return nil, errors.Errorf("the number of workers must be between 1 and %d, got %d",
			accountlockmanager.MaxThreads, config.Workers)
	}

	dbManager := consensusdatabase.New(db)
	storeCacheSize := config.StoreCacheSize

	// Data Structures
	accountStore := accountstore.New(storeCacheSize)
	blockHeaderStore := blockheaderstore.New(storeCacheSize)
	blockHeightStore := blockheightstore.New(storeCacheSize)
	blockRelationStore := blockrelationstore.New(storeCacheSize)
	blockStore := blockstore.New(storeCacheSize)
	consensusStateStore := consensusstatestore.New()
	executionStore := executionstore.New(storeCacheSize)
	ghostdagDataStore := ghostdagdatastore.New(storeCacheSize)
	reachabilityDataStore := reachabilitydatastore.New(storeCacheSize)
	topoheightStore := topoheightstore.New(storeCacheSize)

	// Processes
	orderingCaches := orderingcaches.New(config.OrderingCacheSize)
	reachabilityManager := reachabilitymanager.New(
		dbManager,
		ghostdagDataStore,
		reachabilityDataStore)
	dagTopologyManager := dagtopologymanager.New(
		dbManager,
		reachabilityManager,
		blockRelationStore)
	ghostdagManager := ghostdagmanager.New(
		dbManager,
		dagTopologyManager,
		ghostdagDataStore,
		blockHeaderStore,
		orderingCaches,
		config.K)
	dagTraversalManager := dagtraversalmanager.New(
		dbManager,
		dagTopologyManager,
		ghostdagDataStore,
		topoheightStore)
	pruningManager := pruningmanager.New(
		dbManager,
		dagTraversalManager,
		dagTopologyManager,
		consensusStateStore,
		topoheightStore,
		config.PruningRetention)
	blockExecutor := parallelexecutor.New(
		dbManager,
		config.Workers,
		accountlockmanager.New(),
		accountStore,
		executionStore,
		consensusStateStore)
	consensusStateManager := consensusstatemanager.New(
		dbManager,
		config.GenesisAllocations,
		ghostdagManager,
		dagTopologyManager,
		dagTraversalManager,
		blockExecutor,
		pruningManager,
		orderingCaches,
		blockStore,
		ghostdagDataStore,
		consensusStateStore,
		topoheightStore)
	blockValidator := blockvalidator.New(
		config.GenesisHash,
		config.BlockBits,
		config.MaxBlockParents,
		config.MaxBlockTransactions,
		config.MergeSetSizeLimit,
		config.TimestampDeviationTolerance,

		dbManager,
		dagTopologyManager,
		pruningManager,

		ghostdagDataStore,
		blockHeaderStore)
	blockProcessor := blockprocessor.New(
		config.GenesisHash,
		dbManager,

		blockValidator,
		consensusStateManager,
		dagTopologyManager,
		ghostdagManager,
		reachabilityManager,
		orderingCaches,

		blockStore,
		blockHeaderStore,
		blockHeightStore,
		consensusStateStore,
		topoheightStore)
	blockParentBuilder := blockparentbuilder.New(
		dbManager,
		config.MaxBlockParents,
		config.MergeSetSizeLimit,
		consensusStateManager,
		ghostdagManager,
		orderingCaches,
		consensusStateStore)

	c := &consensus{
		lock:            &sync.RWMutex{},
		databaseContext: dbManager,

		blockProcessor:        blockProcessor,
		blockParentBuilder:    blockParentBuilder,
		blockExecutor:         blockExecutor,
		consensusStateManager: consensusStateManager,
		dagTopologyManager:    dagTopologyManager,
		dagTraversalManager:   dagTraversalManager,
		ghostdagManager:       ghostdagManager,
		reachabilityManager:   reachabilityManager,
		pruningManager:        pruningManager,
		orderingCaches:        orderingCaches,

		accountStore:          accountStore,
		blockHeaderStore:      blockHeaderStore,
		blockHeightStore:      blockHeightStore,
		blockRelationStore:    blockRelationStore,
		blockStore:            blockStore,
		consensusStateStore:   consensusStateStore,
		executionStore:        executionStore,
		ghostdagDataStore:     ghostdagDataStore,
		reachabilityDataStore: reachabilityDataStore,
		topoheightStore:       topoheightStore,
	}

	err := c.initGenesisIfNeeded(config)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *consensus) initGenesisIfNeeded(config *Config) error {
	hasTips, err := s.consensusStateStore.HasTips(s.databaseContext, model.NewStagingArea())
	if err != nil {
		return err
	}
	if hasTips {
		virtualSelectedTip, err := s.GetVirtualSelectedTip()
		if err != nil {
			return err
		}
		log.Infof("Resuming consensus over an existing database. Virtual selected tip: %s", virtualSelectedTip)
		return nil
	}

	log.Infof("Inserting the genesis block %s of %s", config.GenesisHash, config.Name)
	_, err = s.ValidateAndInsertBlock(context.Background(), config.GenesisBlock)
	return err
}

// NewTestConsensus instantiates a new TestConsensus over a pebble database
// in a temporary directory. teardown closes the database and removes the
// directory unless keepDataDir is set.
func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc TestConsensus, teardown func(keepDataDir bool), err error) {

	dataDir, err := os.MkdirTemp("", testName)
	if err != nil {
		return nil, nil, err
	}
	db, err := pebble.NewPebbleDB(dataDir, defaultDBCacheSizeMiB)
	if err != nil {
		return nil, nil, err
	}

	c, err := f.newConsensus(config, db)
	if err != nil {
		return nil, nil, err
	}

	testConsensusInstance := &testConsensus{
		consensus: c,
		config:    config,
		database:  db,
	}

	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(dataDir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return testConsensusInstance, teardown, nil
}
