package consensus

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error)

	GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)
	GetBlockHeader(blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, error)
	GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error)

	GetTips() ([]*externalapi.DomainHash, error)
	GetVirtualSelectedTip() (*externalapi.DomainHash, error)
	GetMaxTopoheight() (uint64, error)
	GetBlockAtTopoheight(topoheight uint64) (*externalapi.DomainHash, error)
	GetPruningPoint() (*externalapi.DomainHash, error)
	IsAncestorOf(blockHashA, blockHashB *externalapi.DomainHash) (bool, error)
	Anticone(blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)

	GetAccount(accountKey externalapi.AccountKey) (*externalapi.Account, error)
	GetBlockExecution(blockHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error)
	StateRoot() (*externalapi.DomainHash, error)

	BuildBlockTemplateSkeleton() (*model.TemplateSkeleton, error)
}

type consensus struct {
	lock            *sync.RWMutex
	databaseContext model.DBManager

	blockProcessor        model.BlockProcessor
	blockParentBuilder    model.BlockParentBuilder
	blockExecutor         model.BlockExecutor
	consensusStateManager model.ConsensusStateManager
	dagTopologyManager    model.DAGTopologyManager
	dagTraversalManager   model.DAGTraversalManager
	ghostdagManager       model.GHOSTDAGManager
	reachabilityManager   model.ReachabilityManager
	pruningManager        model.PruningManager
	orderingCaches        model.OrderingCaches

	accountStore          model.AccountStore
	blockHeaderStore      model.BlockHeaderStore
	blockHeightStore      model.BlockHeightStore
	blockRelationStore    model.BlockRelationStore
	blockStore            model.BlockStore
	consensusStateStore   model.ConsensusStateStore
	executionStore        model.ExecutionStore
	ghostdagDataStore     model.GHOSTDAGDataStore
	reachabilityDataStore model.ReachabilityDataStore
	topoheightStore       model.TopoheightStore
}

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state
func (s *consensus) ValidateAndInsertBlock(ctx context.Context,
	block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockProcessor.ValidateAndInsertBlock(ctx, block)
}

func (s *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stagingArea := model.NewStagingArea()

	header, err := s.blockHeaderStore.BlockHeader(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	transactions, err := s.blockStore.Transactions(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.DomainBlock{Header: header, Transactions: transactions}, nil
}

func (s *consensus) GetBlockHeader(blockHash *externalapi.DomainHash) (*externalapi.DomainBlockHeader, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockHeaderStore.BlockHeader(s.databaseContext, model.NewStagingArea(), blockHash)
}

// GetBlockInfo returns what the DAG knows about blockHash. Info.Exists is
// false for unknown blocks, in which case no other field is set.
func (s *consensus) GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stagingArea := model.NewStagingArea()

	blockInfo := &externalapi.BlockInfo{Hash: blockHash}

	exists, err := s.blockHeaderStore.HasBlockHeader(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if !exists {
		return blockInfo, nil
	}
	blockInfo.Exists = true

	blockInfo.Parents, err = s.dagTopologyManager.Parents(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	ghostdagData, err := s.ghostdagDataStore.Get(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	blockInfo.SelectedParent = ghostdagData.SelectedParent()
	blockInfo.MergeSetBlues = ghostdagData.MergeSetBlues()
	blockInfo.MergeSetReds = ghostdagData.MergeSetReds()
	blockInfo.BlueScore = ghostdagData.BlueScore()
	blockInfo.BlueWork = ghostdagData.BlueWork()

	blockInfo.Height, err = s.blockHeightStore.Get(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	blockInfo.HasTopoheight, err = s.topoheightStore.HasTopoheight(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if !blockInfo.HasTopoheight {
		return blockInfo, nil
	}
	blockInfo.Topoheight, err = s.topoheightStore.Topoheight(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	virtualSelectedTip, err := s.consensusStateStore.VirtualSelectedTip(s.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	blockInfo.IsChainBlock, err = s.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, blockHash, virtualSelectedTip)
	if err != nil {
		return nil, err
	}

	return blockInfo, nil
}

func (s *consensus) GetTips() ([]*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.consensusStateStore.Tips(s.databaseContext, model.NewStagingArea())
}

func (s *consensus) GetVirtualSelectedTip() (*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.consensusStateStore.VirtualSelectedTip(s.databaseContext, model.NewStagingArea())
}

func (s *consensus) GetMaxTopoheight() (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.topoheightStore.MaxTopoheight(s.databaseContext, model.NewStagingArea())
}

func (s *consensus) GetBlockAtTopoheight(topoheight uint64) (*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.topoheightStore.BlockAtTopoheight(s.databaseContext, model.NewStagingArea(), topoheight)
}

func (s *consensus) GetPruningPoint() (*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.consensusStateStore.PruningPoint(s.databaseContext, model.NewStagingArea())
}

func (s *consensus) IsAncestorOf(blockHashA, blockHashB *externalapi.DomainHash) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	for _, blockHash := range []*externalapi.DomainHash{blockHashA, blockHashB} {
		err := s.validateBlockHashExists(stagingArea, blockHash)
		if err != nil {
			return false, err
		}
	}
	return s.dagTopologyManager.IsAncestorOf(stagingArea, blockHashA, blockHashB)
}

// Anticone returns the blocks that are neither in the past nor in the
// future of blockHash, as far as the current tips know
func (s *consensus) Anticone(blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	tips, err := s.consensusStateStore.Tips(s.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return s.dagTraversalManager.Anticone(stagingArea, blockHash, tips)
}

// GetAccount returns the state of accountKey. Accounts that were never
// credited are returned as a zero account.
func (s *consensus) GetAccount(accountKey externalapi.AccountKey) (*externalapi.Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	account, err := s.accountStore.Account(s.databaseContext, model.NewStagingArea(), accountKey)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &externalapi.Account{}, nil
	}
	return account, nil
}

func (s *consensus) GetBlockExecution(blockHash *externalapi.DomainHash) (*externalapi.BlockExecutionResult, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.executionStore.Get(s.databaseContext, model.NewStagingArea(), blockHash)
}

func (s *consensus) StateRoot() (*externalapi.DomainHash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockExecutor.StateRoot(model.NewStagingArea())
}

func (s *consensus) BuildBlockTemplateSkeleton() (*model.TemplateSkeleton, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blockParentBuilder.BuildTemplateSkeleton(model.NewStagingArea())
}

func (s *consensus) validateBlockHashExists(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	exists, err := s.blockHeaderStore.HasBlockHeader(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("block %s does not exist", blockHash)
	}
	return nil
}
