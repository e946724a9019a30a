// Package parallelexecutor applies the transactions of a block to the
// account state. Transactions are grouped into waves of mutually
// non-conflicting transactions, each wave runs on a bounded pool of worker
// threads, and results are committed in program order, so the final state
// always equals a strict left-to-right application of the block.
package parallelexecutor

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/multiset"
	"github.com/topodag/topod/infrastructure/metrics"
	"golang.org/x/sync/errgroup"
)

type parallelExecutor struct {
	databaseContext model.DBReader
	workers         int
	lockManager     *accountlockmanager.AccountLockManager

	accountStore        model.AccountStore
	executionStore      model.ExecutionStore
	consensusStateStore model.ConsensusStateStore
}

// New instantiates a new BlockExecutor running at most workers transactions
// at a time. workers is clamped to [1, accountlockmanager.MaxThreads].
func New(
	databaseContext model.DBReader,
	workers int,
	lockManager *accountlockmanager.AccountLockManager,
	accountStore model.AccountStore,
	executionStore model.ExecutionStore,
	consensusStateStore model.ConsensusStateStore) model.BlockExecutor {

	if workers < 1 {
		workers = 1
	}
	if workers > accountlockmanager.MaxThreads {
		workers = accountlockmanager.MaxThreads
	}
	return &parallelExecutor{
		databaseContext:     databaseContext,
		workers:             workers,
		lockManager:         lockManager,
		accountStore:        accountStore,
		executionStore:      executionStore,
		consensusStateStore: consensusStateStore,
	}
}

// blockState accumulates the effect of a block on the accounts it touches
type blockState struct {
	// current holds the latest value of every account read so far
	current map[externalapi.AccountKey]*externalapi.Account
	// before holds the value each written account had before the block
	before map[externalapi.AccountKey]*externalapi.Account
}

func newBlockState() *blockState {
	return &blockState{
		current: make(map[externalapi.AccountKey]*externalapi.Account),
		before:  make(map[externalapi.AccountKey]*externalapi.Account),
	}
}

func (pe *parallelExecutor) load(stagingArea *model.StagingArea, state *blockState,
	key externalapi.AccountKey) (*externalapi.Account, error) {

	if account, ok := state.current[key]; ok {
		return account, nil
	}
	account, err := pe.accountStore.Account(pe.databaseContext, stagingArea, key)
	if err != nil {
		return nil, err
	}
	state.current[key] = account
	return account, nil
}

func (pe *parallelExecutor) write(stagingArea *model.StagingArea, state *blockState,
	key externalapi.AccountKey, account *externalapi.Account) error {

	if _, ok := state.before[key]; !ok {
		previous, err := pe.load(stagingArea, state, key)
		if err != nil {
			return err
		}
		state.before[key] = previous.Clone()
	}
	state.current[key] = account
	return nil
}

// ExecuteBlock applies transactions, stages the resulting accounts, state
// multiset and execution record, and returns the execution record
func (pe *parallelExecutor) ExecuteBlock(ctx context.Context, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction) (*externalapi.BlockExecutionResult, error) {

	// Every worker has returned by the time ExecuteBlock does. Whatever a
	// failed block left locked must not leak into the next one.
	defer pe.lockManager.Reset()

	statuses := make([]externalapi.TransactionStatus, len(transactions))
	accessSets := make([]*externalapi.AccessSet, len(transactions))
	scheduled := make([]int, 0, len(transactions))
	for i, tx := range transactions {
		accessSets[i] = tx.AccessSet()
		if accessSets[i].Len() > accountlockmanager.MaxTransactionAccounts {
			statuses[i] = externalapi.TransactionRejectedTooManyAccounts
			continue
		}
		scheduled = append(scheduled, i)
	}

	conflicts, err := buildConflictGraph(scheduled, accessSets)
	if err != nil {
		return nil, newExecutionError(ErrorKindCorruptedState, blockHash, err)
	}
	waves, predecessors, err := assignWaves(conflicts)
	if err != nil {
		return nil, newExecutionError(ErrorKindCorruptedState, blockHash, err)
	}

	state := newBlockState()
	progress := newProgress(scheduled)
	batches := schedule(waves, pe.workers)
	results := make([]*transactionResult, len(transactions))

	for batches.Len() > 0 {
		current := batches.PopFront()
		if err := ctx.Err(); err != nil {
			return nil, newExecutionError(ErrorKindCancelled, blockHash, err)
		}

		view, err := pe.viewOf(stagingArea, state, current.indexes, accessSets)
		if err != nil {
			return nil, newExecutionError(ErrorKindStore, blockHash, err)
		}
		for _, index := range current.indexes {
			if !progress.isReady(predecessors[index]) {
				return nil, newExecutionError(ErrorKindCorruptedState, blockHash,
					errors.Errorf("transaction %d was scheduled before its dependencies", index))
			}
		}

		err = pe.runBatch(ctx, current, transactions, accessSets, view, results)
		if err != nil {
			if ctx.Err() != nil {
				return nil, newExecutionError(ErrorKindCancelled, blockHash, err)
			}
			return nil, newExecutionError(ErrorKindLockInvariant, blockHash, err)
		}

		for _, index := range current.indexes {
			result := results[index]
			statuses[index] = result.status
			if result.status.IsAccepted() {
				for _, key := range sortedKeys(result.writes) {
					err := pe.write(stagingArea, state, key, result.writes[key])
					if err != nil {
						return nil, newExecutionError(ErrorKindStore, blockHash, err)
					}
				}
			}
			progress.commit(index)
		}

		if batches.Len() == 0 || batches.Front().wave != current.wave {
			metrics.ExecutorWave()
		}
	}

	if !progress.isDone() {
		return nil, newExecutionError(ErrorKindCorruptedState, blockHash,
			errors.New("some scheduled transactions were never executed"))
	}
	err = pe.lockManager.CheckRelease()
	if err != nil {
		return nil, newExecutionError(ErrorKindLockInvariant, blockHash, err)
	}

	for _, status := range statuses {
		metrics.ExecutorTransaction(status.String())
	}

	result, err := pe.stageResult(stagingArea, blockHash, statuses, state)
	if err != nil {
		return nil, err
	}
	result.Waves = len(waves)
	pe.executionStore.Stage(stagingArea, blockHash, result)

	log.Debugf("Executed block %s: %d/%d transactions accepted in %d waves",
		blockHash, result.AcceptedCount(), len(transactions), result.Waves)
	return result, nil
}

// viewOf snapshots every account the given transactions declare. It runs on
// the dispatching goroutine, so workers never touch the staging area.
func (pe *parallelExecutor) viewOf(stagingArea *model.StagingArea, state *blockState, indexes []int,
	accessSets []*externalapi.AccessSet) (stateView, error) {

	view := make(stateView)
	for _, index := range indexes {
		for _, keys := range [][]externalapi.AccountKey{accessSets[index].Writes, accessSets[index].Reads} {
			for _, key := range keys {
				if _, ok := view[key]; ok {
					continue
				}
				account, err := pe.load(stagingArea, state, key)
				if err != nil {
					return nil, err
				}
				view[key] = account.Clone()
			}
		}
	}
	return view, nil
}

// runBatch executes every transaction of the batch on its own worker thread.
// Within a batch no two transactions conflict, so every lock acquisition is
// expected to succeed. Once a worker fails or ctx is cancelled, the workers
// that have not started yet skip their transaction.
func (pe *parallelExecutor) runBatch(ctx context.Context, current batch, transactions []*externalapi.DomainTransaction,
	accessSets []*externalapi.AccessSet, view stateView, results []*transactionResult) error {

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(pe.workers)

	for slot, index := range current.indexes {
		threadID, index := slot, index
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			acquired, err := pe.lockManager.TryLockSet(accessSets[index], threadID)
			if err != nil {
				return err
			}
			if !acquired {
				return errors.Wrapf(accountlockmanager.ErrInvariantViolation,
					"thread %d could not lock the accounts of transaction %d", threadID, index)
			}

			results[index] = executeTransaction(transactions[index], view)

			return pe.lockManager.UnlockSet(accessSets[index], threadID)
		})
	}
	return group.Wait()
}

func sortedKeys(accounts map[externalapi.AccountKey]*externalapi.Account) []externalapi.AccountKey {
	keys := make([]externalapi.AccountKey, 0, len(accounts))
	for key := range accounts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func (pe *parallelExecutor) stateMultiset(stagingArea *model.StagingArea) (model.Multiset, error) {
	multisetBytes, err := pe.consensusStateStore.StateMultiset(pe.databaseContext, stagingArea)
	if database.IsNotFoundError(err) {
		return multiset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return multiset.FromBytes(multisetBytes)
}

// stageResult stages every account the block changed and folds the changes
// into the state multiset
func (pe *parallelExecutor) stageResult(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	statuses []externalapi.TransactionStatus, state *blockState) (*externalapi.BlockExecutionResult, error) {

	stateMultiset, err := pe.stateMultiset(stagingArea)
	if err != nil {
		return nil, newExecutionError(ErrorKindStore, blockHash, err)
	}

	changes := make([]*externalapi.AccountChange, 0, len(state.before))
	for _, key := range sortedKeys(state.before) {
		before := state.before[key]
		after := state.current[key]
		if before.Equal(after) {
			continue
		}
		if before != nil {
			stateMultiset.Remove(consensushashing.AccountStateElement(key, before))
		}
		stateMultiset.Add(consensushashing.AccountStateElement(key, after))
		pe.accountStore.Stage(stagingArea, key, after)
		changes = append(changes, &externalapi.AccountChange{Account: key, Before: before, After: after.Clone()})
	}
	pe.consensusStateStore.StageStateMultiset(stagingArea, stateMultiset.Serialize())

	return &externalapi.BlockExecutionResult{
		BlockHash: blockHash,
		Statuses:  statuses,
		Changes:   changes,
		StateRoot: stateMultiset.Hash(),
	}, nil
}

// ApplyAllocations credits the given allocations as the effect of blockHash
func (pe *parallelExecutor) ApplyAllocations(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	allocations []*externalapi.GenesisAllocation) (*externalapi.BlockExecutionResult, error) {

	state := newBlockState()
	for _, allocation := range allocations {
		account, err := pe.load(stagingArea, state, allocation.Account)
		if err != nil {
			return nil, newExecutionError(ErrorKindStore, blockHash, err)
		}
		credited := account.Clone()
		if credited == nil {
			credited = &externalapi.Account{}
		}
		credited.Balance += allocation.Balance
		err = pe.write(stagingArea, state, allocation.Account, credited)
		if err != nil {
			return nil, newExecutionError(ErrorKindStore, blockHash, err)
		}
	}

	result, err := pe.stageResult(stagingArea, blockHash, nil, state)
	if err != nil {
		return nil, err
	}
	pe.executionStore.Stage(stagingArea, blockHash, result)
	return result, nil
}

// RevertBlock restores every account blockHash changed to its value before
// the block and removes the block's execution record
func (pe *parallelExecutor) RevertBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	result, err := pe.executionStore.Get(pe.databaseContext, stagingArea, blockHash)
	if err != nil {
		return newExecutionError(ErrorKindStore, blockHash, err)
	}
	stateMultiset, err := pe.stateMultiset(stagingArea)
	if err != nil {
		return newExecutionError(ErrorKindStore, blockHash, err)
	}

	for i := len(result.Changes) - 1; i >= 0; i-- {
		change := result.Changes[i]
		current, err := pe.accountStore.Account(pe.databaseContext, stagingArea, change.Account)
		if err != nil {
			return newExecutionError(ErrorKindStore, blockHash, err)
		}
		if !current.Equal(change.After) {
			return newExecutionError(ErrorKindCorruptedState, blockHash,
				errors.Errorf("account %s is %+v but the block left it at %+v", change.Account, current, change.After))
		}

		stateMultiset.Remove(consensushashing.AccountStateElement(change.Account, change.After))
		if change.Before == nil {
			pe.accountStore.StageDelete(stagingArea, change.Account)
			continue
		}
		stateMultiset.Add(consensushashing.AccountStateElement(change.Account, change.Before))
		pe.accountStore.Stage(stagingArea, change.Account, change.Before)
	}

	pe.consensusStateStore.StageStateMultiset(stagingArea, stateMultiset.Serialize())
	pe.executionStore.StageDelete(stagingArea, blockHash)
	log.Debugf("Reverted block %s: %d accounts restored", blockHash, len(result.Changes))
	return nil
}

// StateRoot returns the commitment to the current account state
func (pe *parallelExecutor) StateRoot(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	stateMultiset, err := pe.stateMultiset(stagingArea)
	if err != nil {
		return nil, err
	}
	return stateMultiset.Hash(), nil
}
