package consensus

import (
	"context"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/infrastructure/db/database"
)

// TestConsensus wraps a Consensus with helpers to build arbitrary DAGs
// and with access to its internals
type TestConsensus interface {
	Consensus

	BuildBlockWithParents(parentHashes []*externalapi.DomainHash,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error)
	AddBlock(parentHashes []*externalapi.DomainHash, transactions []*externalapi.DomainTransaction) (
		*externalapi.DomainHash, *externalapi.BlockInsertionResult, error)

	Config() *Config
	Database() database.Database
	DatabaseContext() model.DBReader

	BlockHeaderStore() model.BlockHeaderStore
	ConsensusStateStore() model.ConsensusStateStore
	GHOSTDAGDataStore() model.GHOSTDAGDataStore
	ReachabilityDataStore() model.ReachabilityDataStore
	TopoheightStore() model.TopoheightStore

	DAGTopologyManager() model.DAGTopologyManager
	DAGTraversalManager() model.DAGTraversalManager
	GHOSTDAGManager() model.GHOSTDAGManager
	ReachabilityManager() model.ReachabilityManager
	OrderingCaches() model.OrderingCaches
}

type testConsensus struct {
	*consensus
	config   *Config
	database database.Database

	nonce uint64
}

// BuildBlockWithParents builds a valid block over the given parents. Every
// built block gets a fresh nonce, so blocks with equal parents and
// transactions still differ.
func (tc *testConsensus) BuildBlockWithParents(parentHashes []*externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	var timeInMilliseconds int64
	for _, parentHash := range parentHashes {
		parentHeader, err := tc.GetBlockHeader(parentHash)
		if err != nil {
			return nil, err
		}
		if parentHeader.TimeInMilliseconds >= timeInMilliseconds {
			timeInMilliseconds = parentHeader.TimeInMilliseconds + 1
		}
	}

	tc.nonce++
	if transactions == nil {
		transactions = []*externalapi.DomainTransaction{}
	}
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            0,
			Parents:            externalapi.CloneHashes(parentHashes),
			TransactionsRoot:   consensushashing.TransactionsRoot(transactions),
			TimeInMilliseconds: timeInMilliseconds,
			Bits:               tc.config.BlockBits,
			Nonce:              tc.nonce,
		},
		Transactions: transactions,
	}, nil
}

// AddBlock builds a block over the given parents and inserts it
func (tc *testConsensus) AddBlock(parentHashes []*externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, *externalapi.BlockInsertionResult, error) {

	block, err := tc.BuildBlockWithParents(parentHashes, transactions)
	if err != nil {
		return nil, nil, err
	}

	blockInsertionResult, err := tc.ValidateAndInsertBlock(context.Background(), block)
	if err != nil {
		return nil, nil, err
	}
	return consensushashing.BlockHash(block), blockInsertionResult, nil
}

func (tc *testConsensus) Config() *Config {
	return tc.config
}

func (tc *testConsensus) Database() database.Database {
	return tc.database
}

func (tc *testConsensus) DatabaseContext() model.DBReader {
	return tc.databaseContext
}

func (tc *testConsensus) BlockHeaderStore() model.BlockHeaderStore {
	return tc.blockHeaderStore
}

func (tc *testConsensus) ConsensusStateStore() model.ConsensusStateStore {
	return tc.consensusStateStore
}

func (tc *testConsensus) GHOSTDAGDataStore() model.GHOSTDAGDataStore {
	return tc.ghostdagDataStore
}

func (tc *testConsensus) ReachabilityDataStore() model.ReachabilityDataStore {
	return tc.reachabilityDataStore
}

func (tc *testConsensus) TopoheightStore() model.TopoheightStore {
	return tc.topoheightStore
}

func (tc *testConsensus) DAGTopologyManager() model.DAGTopologyManager {
	return tc.dagTopologyManager
}

func (tc *testConsensus) DAGTraversalManager() model.DAGTraversalManager {
	return tc.dagTraversalManager
}

func (tc *testConsensus) GHOSTDAGManager() model.GHOSTDAGManager {
	return tc.ghostdagManager
}

func (tc *testConsensus) ReachabilityManager() model.ReachabilityManager {
	return tc.reachabilityManager
}

func (tc *testConsensus) OrderingCaches() model.OrderingCaches {
	return tc.orderingCaches
}
