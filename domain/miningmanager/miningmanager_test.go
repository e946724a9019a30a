package miningmanager_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/testutils"
	"github.com/topodag/topod/domain/miningmanager"
	"github.com/topodag/topod/domain/miningmanager/mempool"
)

const testBalance = 1_000_000

func setup(t *testing.T, consensusConfig *consensus.Config, testName string) (
	consensus.TestConsensus, miningmanager.MiningManager, []*testutils.TestAccount, func(bool)) {

	accounts := testutils.NewTestAccounts(t, testName, 3)
	consensusConfig.GenesisAllocations = testutils.Allocations(accounts, testBalance)

	tc, teardown, err := consensus.NewFactory().NewTestConsensus(consensusConfig, testName)
	if err != nil {
		t.Fatalf("Error setting up TestConsensus: %+v", err)
	}
	miningManager := miningmanager.NewFactory().NewMiningManager(tc, &consensusConfig.Params, nil)
	return tc, miningManager, accounts, teardown
}

func expectRejectCode(t *testing.T, err error, expected mempool.RejectCode) {
	code, ok := mempool.ExtractRejectCode(err)
	if !ok {
		t.Fatalf("Expected a transaction rule error with code %s, got: %+v", expected, err)
	}
	if code != expected {
		t.Fatalf("Expected reject code %s, got %s: %+v", expected, code, err)
	}
}

// TestValidateAndInsertTransaction verifies that valid transactions are inserted into the mempool and invalid
// ones are rejected with the right reject code.
func TestValidateAndInsertTransaction(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		_, miningManager, accounts, teardown := setup(t, consensusConfig, "TestValidateAndInsertTransaction")
		defer teardown(false)

		for nonce := uint64(0); nonce < 3; nonce++ {
			tx := testutils.Transfer(t, accounts[0], nonce, 1, testutils.Pay(accounts[1], 10))
			err := miningManager.ValidateAndInsertTransaction(tx)
			if err != nil {
				t.Fatalf("ValidateAndInsertTransaction: %+v", err)
			}
		}
		if miningManager.TransactionCount() != 3 {
			t.Fatalf("Expected 3 transactions in the mempool, got %d", miningManager.TransactionCount())
		}

		duplicate := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], 10))
		expectRejectCode(t, miningManager.ValidateAndInsertTransaction(duplicate), mempool.RejectDuplicate)

		badSignature := testutils.Transfer(t, accounts[1], 0, 1, testutils.Pay(accounts[2], 10))
		badSignature.Outputs[0].Amount = 11
		badSignature.ID = nil
		expectRejectCode(t, miningManager.ValidateAndInsertTransaction(badSignature), mempool.RejectInvalid)

		unknownVersion := &externalapi.DomainTransaction{Version: 1, Fee: 1,
			Outputs: []*externalapi.TransferOutput{testutils.Pay(accounts[2], 1)}}
		testutils.SignTransaction(t, unknownVersion, accounts[1])
		expectRejectCode(t, miningManager.ValidateAndInsertTransaction(unknownVersion), mempool.RejectMalformed)

		if miningManager.TransactionCount() != 3 {
			t.Fatalf("Rejected transactions were added to the mempool")
		}
	})
}

func TestReplaceByFee(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		_, miningManager, accounts, teardown := setup(t, consensusConfig, "TestReplaceByFee")
		defer teardown(false)

		original := testutils.Transfer(t, accounts[0], 0, 5, testutils.Pay(accounts[1], 10))
		err := miningManager.ValidateAndInsertTransaction(original)
		if err != nil {
			t.Fatalf("ValidateAndInsertTransaction: %+v", err)
		}

		cheaper := testutils.Transfer(t, accounts[0], 0, 5, testutils.Pay(accounts[2], 10))
		expectRejectCode(t, miningManager.ValidateAndInsertTransaction(cheaper), mempool.RejectDuplicate)

		pricier := testutils.Transfer(t, accounts[0], 0, 6, testutils.Pay(accounts[2], 10))
		err = miningManager.ValidateAndInsertTransaction(pricier)
		if err != nil {
			t.Fatalf("ValidateAndInsertTransaction: %+v", err)
		}
		if miningManager.TransactionCount() != 1 {
			t.Fatalf("Expected the replaced transaction to leave the mempool, got %d transactions",
				miningManager.TransactionCount())
		}

		template, err := miningManager.GetBlockTemplate(0)
		if err != nil {
			t.Fatalf("GetBlockTemplate: %+v", err)
		}
		if len(template.Transactions) != 1 || !template.Transactions[0].Equal(pricier) {
			t.Fatalf("Expected the template to hold only the replacing transaction")
		}
	})
}

// TestTemplateKeepsSenderNonceOrder verifies that a sender's later nonce
// never precedes its earlier one, whatever the fees
func TestTemplateKeepsSenderNonceOrder(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		_, miningManager, accounts, teardown := setup(t, consensusConfig, "TestTemplateKeepsSenderNonceOrder")
		defer teardown(false)

		transactions := []*externalapi.DomainTransaction{
			testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[2], 10)),
			testutils.Transfer(t, accounts[0], 1, 9, testutils.Pay(accounts[2], 10)),
			testutils.Transfer(t, accounts[1], 0, 5, testutils.Pay(accounts[2], 10)),
		}
		for _, tx := range transactions {
			err := miningManager.ValidateAndInsertTransaction(tx)
			if err != nil {
				t.Fatalf("ValidateAndInsertTransaction: %+v", err)
			}
		}

		template, err := miningManager.GetBlockTemplate(0)
		if err != nil {
			t.Fatalf("GetBlockTemplate: %+v", err)
		}
		expected := []*externalapi.DomainTransaction{transactions[0], transactions[2], transactions[1]}
		if len(template.Transactions) != len(expected) {
			t.Fatalf("Expected %d transactions in the template, got %d", len(expected), len(template.Transactions))
		}
		for i, tx := range expected {
			if !template.Transactions[i].Equal(tx) {
				t.Fatalf("Unexpected transaction at position %d of the template", i)
			}
		}
	})
}

// TestMineTemplate inserts a template into consensus and verifies that its
// transactions are executed and leave the mempool
func TestMineTemplate(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		tc, miningManager, accounts, teardown := setup(t, consensusConfig, "TestMineTemplate")
		defer teardown(false)

		for i := 0; i < 2; i++ {
			tx := testutils.Transfer(t, accounts[i], 0, 1, testutils.Pay(accounts[2], 100))
			err := miningManager.ValidateAndInsertTransaction(tx)
			if err != nil {
				t.Fatalf("ValidateAndInsertTransaction: %+v", err)
			}
		}

		template, err := miningManager.GetBlockTemplate(0)
		if err != nil {
			t.Fatalf("GetBlockTemplate: %+v", err)
		}
		result, err := tc.ValidateAndInsertBlock(context.Background(), template)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlock: %+v", err)
		}
		err = miningManager.HandleNewBlock(template)
		if err != nil {
			t.Fatalf("HandleNewBlock: %+v", err)
		}
		if miningManager.TransactionCount() != 0 {
			t.Fatalf("Expected the mined transactions to leave the mempool, %d are left",
				miningManager.TransactionCount())
		}

		execution, err := tc.GetBlockExecution(consensushashing.BlockHash(template))
		if err != nil {
			t.Fatalf("GetBlockExecution: %+v", err)
		}
		for i, status := range execution.Statuses {
			if !status.IsAccepted() {
				t.Fatalf("Transaction %d of the template was rejected: %s", i, status)
			}
		}
		if !result.VirtualChangeSet.SelectedTip.Equal(consensushashing.BlockHash(template)) {
			t.Fatalf("Expected the template to become the selected tip")
		}

		recipient, err := tc.GetAccount(accounts[2].Key)
		if err != nil {
			t.Fatalf("GetAccount: %+v", err)
		}
		if recipient.Balance != testBalance+200 {
			t.Fatalf("Expected the recipient balance to be %d, got %d", testBalance+200, recipient.Balance)
		}

		obsolete := testutils.Transfer(t, accounts[0], 0, 2, testutils.Pay(accounts[1], 1))
		err = miningManager.ValidateAndInsertTransaction(obsolete)
		var ruleErr mempool.RuleError
		if !errors.As(err, &ruleErr) {
			t.Fatalf("Expected a mempool rule error for a used nonce, got: %+v", err)
		}
		expectRejectCode(t, err, mempool.RejectObsolete)
	})
}
