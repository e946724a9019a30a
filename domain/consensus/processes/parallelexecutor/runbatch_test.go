package parallelexecutor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
)

func unsignedTransfer(sender, recipient byte) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Sender:  externalapi.AccountKey{sender},
		Outputs: []*externalapi.TransferOutput{{Recipient: externalapi.AccountKey{recipient}, Amount: 1}},
	}
}

func newBatchTest(workers int) (*parallelExecutor, []*externalapi.DomainTransaction, []*externalapi.AccessSet) {
	transactions := []*externalapi.DomainTransaction{unsignedTransfer(1, 2), unsignedTransfer(3, 4)}
	accessSets := make([]*externalapi.AccessSet, len(transactions))
	for i, tx := range transactions {
		accessSets[i] = tx.AccessSet()
	}
	pe := &parallelExecutor{workers: workers, lockManager: accountlockmanager.New()}
	return pe, transactions, accessSets
}

func TestRunBatchSkipsWorkAfterCancellation(t *testing.T) {
	pe, transactions, accessSets := newBatchTest(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := make([]*transactionResult, len(transactions))
	err := pe.runBatch(ctx, batch{indexes: []int{0, 1}}, transactions, accessSets, stateView{}, results)
	require.True(t, errors.Is(err, context.Canceled), "unexpected error: %+v", err)
	require.Nil(t, results[0])
	require.Nil(t, results[1])
	require.NoError(t, pe.lockManager.CheckRelease())
}

func TestRunBatchStopsSiblingsAfterLockFailure(t *testing.T) {
	pe, transactions, accessSets := newBatchTest(1)

	acquired, err := pe.lockManager.TryLockSet(accessSets[0], accountlockmanager.MaxThreads-1)
	require.NoError(t, err)
	require.True(t, acquired)

	results := make([]*transactionResult, len(transactions))
	err = pe.runBatch(context.Background(), batch{indexes: []int{0, 1}}, transactions, accessSets,
		stateView{}, results)
	require.True(t, errors.Is(err, accountlockmanager.ErrInvariantViolation), "unexpected error: %+v", err)
	require.Nil(t, results[0])
	require.Nil(t, results[1], "the second worker ran after the first one failed")
	require.False(t, pe.lockManager.Snapshot(transactions[1].Sender).HasWriter())
}

func TestRunBatchExecutesEveryTransaction(t *testing.T) {
	pe, transactions, accessSets := newBatchTest(2)

	results := make([]*transactionResult, len(transactions))
	err := pe.runBatch(context.Background(), batch{indexes: []int{0, 1}}, transactions, accessSets,
		stateView{}, results)
	require.NoError(t, err)
	for i, result := range results {
		require.NotNil(t, result, "transaction %d did not run", i)
		require.Equal(t, externalapi.TransactionRejectedSignature, result.status)
	}
	require.NoError(t, pe.lockManager.CheckRelease())
}
