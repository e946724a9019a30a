package mempool_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/testutils"
	"github.com/topodag/topod/domain/dagconfig"
	"github.com/topodag/topod/domain/miningmanager/mempool"
	miningmanagermodel "github.com/topodag/topod/domain/miningmanager/model"
)

const testBalance = 1_000

func newTestMempool(t *testing.T, testName string, config *mempool.Config) (
	consensus.TestConsensus, miningmanagermodel.Mempool, []*testutils.TestAccount) {

	accounts := testutils.NewTestAccounts(t, testName, 4)
	consensusConfig := consensus.NewConfig(&dagconfig.DevnetParams)
	consensusConfig.GenesisAllocations = testutils.Allocations(accounts, testBalance)

	tc, teardown, err := consensus.NewFactory().NewTestConsensus(consensusConfig, testName)
	require.NoError(t, err)
	t.Cleanup(func() { teardown(false) })
	return tc, mempool.New(config, tc), accounts
}

func defaultTestConfig() *mempool.Config {
	return &mempool.Config{
		MaximumTransactionCount: 100,
		MinimumTransactionFee:   1,
		MaxTransactionAccounts:  3,
	}
}

func requireRejectCode(t *testing.T, err error, expected mempool.RejectCode) {
	require.Error(t, err)
	code, ok := mempool.ExtractRejectCode(err)
	require.True(t, ok, "expected a rule error, got: %+v", err)
	require.Equal(t, expected, code, "%+v", err)
}

func TestRejectMalformed(t *testing.T) {
	_, mp, accounts := newTestMempool(t, "TestRejectMalformed", defaultTestConfig())

	tests := []struct {
		name string
		tx   *externalapi.DomainTransaction
	}{
		{
			name: "unknown version",
			tx: testutils.SignTransaction(t, &externalapi.DomainTransaction{Version: 1, Fee: 1,
				Outputs: []*externalapi.TransferOutput{testutils.Pay(accounts[1], 1)}}, accounts[0]),
		},
		{
			name: "no outputs",
			tx:   testutils.Transfer(t, accounts[0], 0, 1),
		},
		{
			name: "too many accounts",
			tx: testutils.Transfer(t, accounts[0], 0, 1,
				testutils.Pay(accounts[1], 1), testutils.Pay(accounts[2], 1), testutils.Pay(accounts[3], 1)),
		},
		{
			name: "amount overflow",
			tx: testutils.Transfer(t, accounts[0], 0, 1,
				testutils.Pay(accounts[1], math.MaxUint64), testutils.Pay(accounts[1], 1)),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			requireRejectCode(t, mp.ValidateAndInsertTransaction(test.tx), mempool.RejectMalformed)
		})
	}
	require.Zero(t, mp.TransactionCount())
}

func TestRejectInvalid(t *testing.T) {
	_, mp, accounts := newTestMempool(t, "TestRejectInvalid", defaultTestConfig())

	badSignature := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], 10))
	badSignature.Outputs[0].Amount = 11
	badSignature.ID = nil
	requireRejectCode(t, mp.ValidateAndInsertTransaction(badSignature), mempool.RejectInvalid)

	overspend := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], testBalance))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(overspend), mempool.RejectInvalid)

	unknownSender := testutils.NewTestAccounts(t, "TestRejectInvalidUnknownSender", 1)[0]
	unfunded := testutils.Transfer(t, unknownSender, 0, 1, testutils.Pay(accounts[1], 1))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(unfunded), mempool.RejectInvalid)

	exact := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], testBalance-1))
	require.NoError(t, mp.ValidateAndInsertTransaction(exact))
	require.Equal(t, 1, mp.TransactionCount())
}

func TestRejectObsolete(t *testing.T) {
	tc, mp, accounts := newTestMempool(t, "TestRejectObsolete", defaultTestConfig())

	spent := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], 1))
	_, _, err := tc.AddBlock([]*externalapi.DomainHash{tc.Config().GenesisHash}, []*externalapi.DomainTransaction{spent})
	require.NoError(t, err)

	account, err := tc.GetAccount(accounts[0].Key)
	require.NoError(t, err)
	require.Equal(t, uint64(1), account.Nonce)

	reused := testutils.Transfer(t, accounts[0], 0, 2, testutils.Pay(accounts[2], 1))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(reused), mempool.RejectObsolete)

	next := testutils.Transfer(t, accounts[0], 1, 1, testutils.Pay(accounts[2], 1))
	require.NoError(t, mp.ValidateAndInsertTransaction(next))
}

func TestRejectDuplicate(t *testing.T) {
	_, mp, accounts := newTestMempool(t, "TestRejectDuplicate", defaultTestConfig())

	original := testutils.Transfer(t, accounts[0], 0, 5, testutils.Pay(accounts[1], 10))
	require.NoError(t, mp.ValidateAndInsertTransaction(original))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(original.Clone()), mempool.RejectDuplicate)

	sameFee := testutils.Transfer(t, accounts[0], 0, 5, testutils.Pay(accounts[2], 10))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(sameFee), mempool.RejectDuplicate)

	lowerFee := testutils.Transfer(t, accounts[0], 0, 4, testutils.Pay(accounts[2], 10))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(lowerFee), mempool.RejectDuplicate)

	higherFee := testutils.Transfer(t, accounts[0], 0, 6, testutils.Pay(accounts[2], 10))
	require.NoError(t, mp.ValidateAndInsertTransaction(higherFee))
	require.Equal(t, 1, mp.TransactionCount())
	require.False(t, mp.HasTransaction(consensushashing.TransactionID(original)))
	require.True(t, mp.HasTransaction(consensushashing.TransactionID(higherFee)))
}

func TestRejectInsufficientFee(t *testing.T) {
	config := defaultTestConfig()
	config.MinimumTransactionFee = 10
	_, mp, accounts := newTestMempool(t, "TestRejectInsufficientFee", config)

	cheap := testutils.Transfer(t, accounts[0], 0, 9, testutils.Pay(accounts[1], 1))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(cheap), mempool.RejectInsufficientFee)

	enough := testutils.Transfer(t, accounts[0], 0, 10, testutils.Pay(accounts[1], 1))
	require.NoError(t, mp.ValidateAndInsertTransaction(enough))
}

func TestRejectPoolFull(t *testing.T) {
	config := defaultTestConfig()
	config.MaximumTransactionCount = 2
	_, mp, accounts := newTestMempool(t, "TestRejectPoolFull", config)

	low := testutils.Transfer(t, accounts[0], 0, 2, testutils.Pay(accounts[3], 1))
	high := testutils.Transfer(t, accounts[1], 0, 5, testutils.Pay(accounts[3], 1))
	require.NoError(t, mp.ValidateAndInsertTransaction(low))
	require.NoError(t, mp.ValidateAndInsertTransaction(high))

	tied := testutils.Transfer(t, accounts[2], 0, 2, testutils.Pay(accounts[3], 1))
	requireRejectCode(t, mp.ValidateAndInsertTransaction(tied), mempool.RejectPoolFull)
	require.Equal(t, 2, mp.TransactionCount())
	require.False(t, mp.HasTransaction(consensushashing.TransactionID(tied)))

	outbid := testutils.Transfer(t, accounts[2], 0, 3, testutils.Pay(accounts[3], 1))
	require.NoError(t, mp.ValidateAndInsertTransaction(outbid))
	require.Equal(t, 2, mp.TransactionCount())
	require.False(t, mp.HasTransaction(consensushashing.TransactionID(low)))
	require.True(t, mp.HasTransaction(consensushashing.TransactionID(high)))
}
