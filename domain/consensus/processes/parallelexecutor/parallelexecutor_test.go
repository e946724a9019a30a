package parallelexecutor_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	consensusdatabase "github.com/topodag/topod/domain/consensus/database"
	"github.com/topodag/topod/domain/consensus/datastructures/accountstore"
	"github.com/topodag/topod/domain/consensus/datastructures/consensusstatestore"
	"github.com/topodag/topod/domain/consensus/datastructures/executionstore"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/domain/consensus/processes/parallelexecutor"
	"github.com/topodag/topod/domain/consensus/utils/testutils"
	"github.com/topodag/topod/infrastructure/db/database/pebble"
)

const initialBalance = 1000

type executorTest struct {
	databaseContext model.DBManager
	executor        model.BlockExecutor
	lockManager     *accountlockmanager.AccountLockManager
	accountStore    model.AccountStore
	executionStore  model.ExecutionStore
}

func newExecutorTest(t *testing.T, workers int) *executorTest {
	db, err := pebble.NewPebbleDB(t.TempDir(), 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	databaseContext := consensusdatabase.New(db)
	accountStore := accountstore.New(100)
	executionStore := executionstore.New(100)
	lockManager := accountlockmanager.New()
	executor := parallelexecutor.New(databaseContext, workers, lockManager,
		accountStore, executionStore, consensusstatestore.New())

	return &executorTest{
		databaseContext: databaseContext,
		executor:        executor,
		lockManager:     lockManager,
		accountStore:    accountStore,
		executionStore:  executionStore,
	}
}

func (et *executorTest) commit(t *testing.T, stagingArea *model.StagingArea) {
	dbTx, err := et.databaseContext.Begin()
	require.NoError(t, err)
	defer dbTx.RollbackUnlessClosed()

	require.NoError(t, stagingArea.Commit(dbTx))
	require.NoError(t, dbTx.Commit())
}

func (et *executorTest) fund(t *testing.T, accounts []*testutils.TestAccount) {
	stagingArea := model.NewStagingArea()
	_, err := et.executor.ApplyAllocations(stagingArea, blockHash(0),
		testutils.Allocations(accounts, initialBalance))
	require.NoError(t, err)
	et.commit(t, stagingArea)
}

func (et *executorTest) account(t *testing.T, key externalapi.AccountKey) *externalapi.Account {
	account, err := et.accountStore.Account(et.databaseContext, model.NewStagingArea(), key)
	require.NoError(t, err)
	return account
}

func (et *executorTest) stateRoot(t *testing.T) *externalapi.DomainHash {
	stateRoot, err := et.executor.StateRoot(model.NewStagingArea())
	require.NoError(t, err)
	return stateRoot
}

func (et *executorTest) execute(t *testing.T, hash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) *externalapi.BlockExecutionResult {

	stagingArea := model.NewStagingArea()
	result, err := et.executor.ExecuteBlock(context.Background(), stagingArea, hash, transactions)
	require.NoError(t, err)
	et.commit(t, stagingArea)
	return result
}

func blockHash(i byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{i, 0xb1})
}

// referenceState applies transactions one at a time, in order
type referenceState map[externalapi.AccountKey]externalapi.Account

func newReferenceState(accounts []*testutils.TestAccount) referenceState {
	state := make(referenceState)
	for _, account := range accounts {
		state[account.Key] = externalapi.Account{Balance: initialBalance}
	}
	return state
}

func (state referenceState) apply(tx *externalapi.DomainTransaction) externalapi.TransactionStatus {
	if tx.AccessSet().Len() > accountlockmanager.MaxTransactionAccounts {
		return externalapi.TransactionRejectedTooManyAccounts
	}
	sender := state[tx.Sender]
	if sender.Nonce != tx.Nonce {
		return externalapi.TransactionRejectedNonce
	}
	total := tx.Fee
	for _, output := range tx.Outputs {
		if total > math.MaxUint64-output.Amount {
			return externalapi.TransactionRejectedBalance
		}
		total += output.Amount
	}
	if sender.Balance < total {
		return externalapi.TransactionRejectedBalance
	}
	for _, guard := range tx.Guards {
		if state[guard.Account].Balance < guard.MinBalance {
			return externalapi.TransactionRejectedGuard
		}
	}

	next := make(referenceState)
	sender.Balance -= total
	sender.Nonce++
	next[tx.Sender] = sender
	for _, output := range tx.Outputs {
		recipient, ok := next[output.Recipient]
		if !ok {
			recipient = state[output.Recipient]
		}
		if recipient.Balance > math.MaxUint64-output.Amount {
			return externalapi.TransactionRejectedOverflow
		}
		recipient.Balance += output.Amount
		next[output.Recipient] = recipient
	}
	for key, account := range next {
		state[key] = account
	}
	return externalapi.TransactionAccepted
}

// randomWorkload builds a block of transactions over a small set of
// accounts, so that many of them conflict, along with the statuses and
// final state of a sequential application
func randomWorkload(t *testing.T, seed int64, accounts []*testutils.TestAccount, size int) (
	[]*externalapi.DomainTransaction, []externalapi.TransactionStatus, referenceState) {

	random := rand.New(rand.NewSource(seed))
	reference := newReferenceState(accounts)
	transactions := make([]*externalapi.DomainTransaction, size)
	statuses := make([]externalapi.TransactionStatus, size)

	for i := range transactions {
		sender := accounts[random.Intn(len(accounts))]
		nonce := reference[sender.Key].Nonce
		if random.Intn(10) == 0 {
			nonce++
		}
		outputs := make([]*externalapi.TransferOutput, 1+random.Intn(3))
		for j := range outputs {
			outputs[j] = testutils.Pay(accounts[random.Intn(len(accounts))], uint64(random.Intn(400)))
		}
		tx := &externalapi.DomainTransaction{
			Nonce:   nonce,
			Fee:     uint64(random.Intn(5)),
			Outputs: outputs,
		}
		if random.Intn(4) == 0 {
			tx.Guards = []*externalapi.BalanceGuard{{
				Account:    accounts[random.Intn(len(accounts))].Key,
				MinBalance: uint64(random.Intn(1500)),
			}}
		}
		transactions[i] = testutils.SignTransaction(t, tx, sender)
		statuses[i] = reference.apply(transactions[i])
	}
	return transactions, statuses, reference
}

func TestExecuteBlockMatchesSequentialApplication(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "random workload", 12)

	for _, seed := range []int64{1, 2, 3} {
		transactions, expectedStatuses, reference := randomWorkload(t, seed, accounts, 150)

		var stateRoots []*externalapi.DomainHash
		var waves []int
		for _, workers := range []int{1, 8, 64} {
			et := newExecutorTest(t, workers)
			et.fund(t, accounts)

			result := et.execute(t, blockHash(1), transactions)
			require.Equal(t, expectedStatuses, result.Statuses, "seed %d, %d workers", seed, workers)
			for key, expected := range reference {
				account := et.account(t, key)
				require.NotNil(t, account)
				require.Equal(t, expected, *account, "seed %d, %d workers, account %s", seed, workers, key)
			}
			require.True(t, result.StateRoot.Equal(et.stateRoot(t)))

			stateRoots = append(stateRoots, result.StateRoot)
			waves = append(waves, result.Waves)
		}
		for i := 1; i < len(stateRoots); i++ {
			require.True(t, stateRoots[0].Equal(stateRoots[i]), "seed %d: state roots differ", seed)
			require.Equal(t, waves[0], waves[i], "seed %d: wave counts differ", seed)
		}
	}
}

func TestExecuteBlockWaves(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "waves", 6)
	a, b, c, d, guarded := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	tests := []struct {
		name          string
		transactions  func() []*externalapi.DomainTransaction
		expectedWaves int
	}{
		{
			name: "disjoint accounts",
			transactions: func() []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{
					testutils.Transfer(t, a, 0, 1, testutils.Pay(c, 10)),
					testutils.Transfer(t, b, 0, 1, testutils.Pay(d, 10)),
				}
			},
			expectedWaves: 1,
		},
		{
			name: "shared recipient",
			transactions: func() []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{
					testutils.Transfer(t, a, 0, 1, testutils.Pay(c, 10)),
					testutils.Transfer(t, b, 0, 1, testutils.Pay(c, 10)),
				}
			},
			expectedWaves: 2,
		},
		{
			name: "shared guard",
			transactions: func() []*externalapi.DomainTransaction {
				first := &externalapi.DomainTransaction{
					Outputs: []*externalapi.TransferOutput{testutils.Pay(c, 10)},
					Guards:  []*externalapi.BalanceGuard{{Account: guarded.Key, MinBalance: 1}},
				}
				second := &externalapi.DomainTransaction{
					Outputs: []*externalapi.TransferOutput{testutils.Pay(d, 10)},
					Guards:  []*externalapi.BalanceGuard{{Account: guarded.Key, MinBalance: 1}},
				}
				return []*externalapi.DomainTransaction{
					testutils.SignTransaction(t, first, a),
					testutils.SignTransaction(t, second, b),
				}
			},
			expectedWaves: 1,
		},
		{
			name: "guard on a written account",
			transactions: func() []*externalapi.DomainTransaction {
				guard := &externalapi.DomainTransaction{
					Outputs: []*externalapi.TransferOutput{testutils.Pay(d, 10)},
					Guards:  []*externalapi.BalanceGuard{{Account: c.Key, MinBalance: 1}},
				}
				return []*externalapi.DomainTransaction{
					testutils.Transfer(t, a, 0, 1, testutils.Pay(c, 10)),
					testutils.SignTransaction(t, guard, b),
				}
			},
			expectedWaves: 2,
		},
		{
			name: "same sender",
			transactions: func() []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{
					testutils.Transfer(t, a, 0, 1, testutils.Pay(c, 10)),
					testutils.Transfer(t, a, 1, 1, testutils.Pay(d, 10)),
					testutils.Transfer(t, a, 2, 1, testutils.Pay(b, 10)),
				}
			},
			expectedWaves: 3,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			et := newExecutorTest(t, 8)
			et.fund(t, accounts)

			result := et.execute(t, blockHash(1), test.transactions())
			require.Equal(t, test.expectedWaves, result.Waves)
			require.Equal(t, len(result.Statuses), result.AcceptedCount())
		})
	}
}

func TestExecuteBlockMoreTransactionsThanWorkers(t *testing.T) {
	senders := testutils.NewTestAccounts(t, "senders", accountlockmanager.MaxThreads+1)
	recipients := testutils.NewTestAccounts(t, "recipients", accountlockmanager.MaxThreads+1)

	transactions := make([]*externalapi.DomainTransaction, len(senders))
	for i, sender := range senders {
		transactions[i] = testutils.Transfer(t, sender, 0, 0, testutils.Pay(recipients[i], 1))
	}

	et := newExecutorTest(t, accountlockmanager.MaxThreads)
	et.fund(t, senders)

	result := et.execute(t, blockHash(1), transactions)
	require.Equal(t, 1, result.Waves)
	require.Equal(t, len(transactions), result.AcceptedCount())
	for _, recipient := range recipients {
		require.Equal(t, &externalapi.Account{Balance: 1}, et.account(t, recipient.Key))
	}
}

func TestExecuteBlockTooManyAccounts(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "too many accounts", 2)
	sender, other := accounts[0], accounts[1]

	outputs := make([]*externalapi.TransferOutput, accountlockmanager.MaxTransactionAccounts)
	for i := range outputs {
		outputs[i] = &externalapi.TransferOutput{Recipient: externalapi.AccountKey{byte(i), 0xee}, Amount: 1}
	}
	transactions := []*externalapi.DomainTransaction{
		testutils.Transfer(t, sender, 0, 0, outputs...),
		testutils.Transfer(t, sender, 0, 0, testutils.Pay(other, 5)),
	}

	et := newExecutorTest(t, 4)
	et.fund(t, accounts)

	result := et.execute(t, blockHash(1), transactions)
	require.Equal(t, []externalapi.TransactionStatus{
		externalapi.TransactionRejectedTooManyAccounts,
		externalapi.TransactionAccepted,
	}, result.Statuses)
	require.Equal(t, &externalapi.Account{Balance: initialBalance - 5, Nonce: 1}, et.account(t, sender.Key))
	require.Nil(t, et.account(t, externalapi.AccountKey{0, 0xee}))
}

func TestExecuteBlockRejections(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "rejections", 3)
	a, b, c := accounts[0], accounts[1], accounts[2]

	badSignature := testutils.Transfer(t, a, 0, 0, testutils.Pay(b, 1))
	badSignature.Outputs[0].Amount = 2

	guarded := testutils.SignTransaction(t, &externalapi.DomainTransaction{
		Nonce:   0,
		Outputs: []*externalapi.TransferOutput{testutils.Pay(c, 1)},
		Guards:  []*externalapi.BalanceGuard{{Account: a.Key, MinBalance: initialBalance + 1}},
	}, b)

	transactions := []*externalapi.DomainTransaction{
		badSignature,
		testutils.Transfer(t, a, 1, 0, testutils.Pay(b, 1)),
		testutils.Transfer(t, a, 0, 1, testutils.Pay(b, initialBalance)),
		testutils.Transfer(t, a, 0, 0, testutils.Pay(b, math.MaxUint64), testutils.Pay(c, 1)),
		guarded,
		testutils.Transfer(t, a, 0, 0, testutils.Pay(b, 7)),
	}

	et := newExecutorTest(t, 8)
	et.fund(t, accounts)

	result := et.execute(t, blockHash(1), transactions)
	require.Equal(t, []externalapi.TransactionStatus{
		externalapi.TransactionRejectedSignature,
		externalapi.TransactionRejectedNonce,
		externalapi.TransactionRejectedBalance,
		externalapi.TransactionRejectedBalance,
		externalapi.TransactionRejectedGuard,
		externalapi.TransactionAccepted,
	}, result.Statuses)
	require.Equal(t, &externalapi.Account{Balance: initialBalance - 7, Nonce: 1}, et.account(t, a.Key))
	require.Equal(t, &externalapi.Account{Balance: initialBalance + 7}, et.account(t, b.Key))
	require.Equal(t, &externalapi.Account{Balance: initialBalance}, et.account(t, c.Key))
}

func TestRevertBlock(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "revert", 8)
	stranger := testutils.NewTestAccounts(t, "stranger", 1)[0]

	et := newExecutorTest(t, 8)
	et.fund(t, accounts)
	fundedRoot := et.stateRoot(t)

	first, _, _ := randomWorkload(t, 7, accounts, 40)
	et.execute(t, blockHash(1), first)
	firstRoot := et.stateRoot(t)
	firstAccounts := make(map[externalapi.AccountKey]*externalapi.Account)
	for _, account := range accounts {
		firstAccounts[account.Key] = et.account(t, account.Key)
	}

	second := []*externalapi.DomainTransaction{
		testutils.Transfer(t, accounts[0], firstAccounts[accounts[0].Key].Nonce, 0, testutils.Pay(stranger, 0)),
	}
	result := et.execute(t, blockHash(2), second)
	require.Equal(t, 1, result.AcceptedCount())
	require.Equal(t, &externalapi.Account{}, et.account(t, stranger.Key))

	stagingArea := model.NewStagingArea()
	require.NoError(t, et.executor.RevertBlock(stagingArea, blockHash(2)))
	et.commit(t, stagingArea)

	require.True(t, firstRoot.Equal(et.stateRoot(t)))
	require.Nil(t, et.account(t, stranger.Key))
	for _, account := range accounts {
		require.Equal(t, firstAccounts[account.Key], et.account(t, account.Key))
	}
	hasSecond, err := et.executionStore.Has(et.databaseContext, model.NewStagingArea(), blockHash(2))
	require.NoError(t, err)
	require.False(t, hasSecond)

	stagingArea = model.NewStagingArea()
	require.NoError(t, et.executor.RevertBlock(stagingArea, blockHash(1)))
	et.commit(t, stagingArea)

	require.True(t, fundedRoot.Equal(et.stateRoot(t)))
	for _, account := range accounts {
		require.Equal(t, &externalapi.Account{Balance: initialBalance}, et.account(t, account.Key))
	}
}

func TestRevertBlockDetectsCorruption(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "corruption", 2)

	et := newExecutorTest(t, 2)
	et.fund(t, accounts)
	et.execute(t, blockHash(1), []*externalapi.DomainTransaction{
		testutils.Transfer(t, accounts[0], 0, 0, testutils.Pay(accounts[1], 10)),
	})

	stagingArea := model.NewStagingArea()
	et.accountStore.Stage(stagingArea, accounts[1].Key, &externalapi.Account{Balance: 1})
	err := et.executor.RevertBlock(stagingArea, blockHash(1))

	var executionError *parallelexecutor.ExecutionError
	require.True(t, errors.As(err, &executionError))
	require.Equal(t, parallelexecutor.ErrorKindCorruptedState, executionError.Kind)
}

func TestExecuteBlockCancelled(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "cancelled", 2)

	et := newExecutorTest(t, 2)
	et.fund(t, accounts)
	rootBefore := et.stateRoot(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stagingArea := model.NewStagingArea()
	_, err := et.executor.ExecuteBlock(ctx, stagingArea, blockHash(1), []*externalapi.DomainTransaction{
		testutils.Transfer(t, accounts[0], 0, 0, testutils.Pay(accounts[1], 10)),
	})

	var executionError *parallelexecutor.ExecutionError
	require.True(t, errors.As(err, &executionError))
	require.Equal(t, parallelexecutor.ErrorKindCancelled, executionError.Kind)
	require.True(t, errors.Is(err, context.Canceled))
	require.True(t, rootBefore.Equal(et.stateRoot(t)))
}

func TestExecuteBlockAfterLockFailure(t *testing.T) {
	accounts := testutils.NewTestAccounts(t, "lock failure", 2)
	sender, recipient := accounts[0], accounts[1]

	et := newExecutorTest(t, 1)
	et.fund(t, accounts)
	rootBefore := et.stateRoot(t)

	// A lock nobody releases makes the next block fail its acquisition
	transfer := testutils.Transfer(t, sender, 0, 0, testutils.Pay(recipient, 10))
	acquired, err := et.lockManager.TryLockSet(transfer.AccessSet(), accountlockmanager.MaxThreads-1)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = et.executor.ExecuteBlock(context.Background(), model.NewStagingArea(), blockHash(1),
		[]*externalapi.DomainTransaction{transfer})
	var executionError *parallelexecutor.ExecutionError
	require.True(t, errors.As(err, &executionError))
	require.Equal(t, parallelexecutor.ErrorKindLockInvariant, executionError.Kind)
	require.True(t, errors.Is(err, accountlockmanager.ErrInvariantViolation))
	require.True(t, rootBefore.Equal(et.stateRoot(t)))

	// The failed block leaves no lock behind
	require.NoError(t, et.lockManager.CheckRelease())
	require.False(t, et.lockManager.Snapshot(sender.Key).HasWriter())

	result := et.execute(t, blockHash(2), []*externalapi.DomainTransaction{transfer})
	require.Equal(t, []externalapi.TransactionStatus{externalapi.TransactionAccepted}, result.Statuses)
	require.Equal(t, &externalapi.Account{Balance: initialBalance - 10, Nonce: 1}, et.account(t, sender.Key))
	require.Equal(t, &externalapi.Account{Balance: initialBalance + 10}, et.account(t, recipient.Key))
	require.NoError(t, et.lockManager.CheckRelease())
}
