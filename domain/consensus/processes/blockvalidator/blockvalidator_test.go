package blockvalidator_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/testutils"
)

func newTestConsensus(t *testing.T, consensusConfig *consensus.Config, testName string) (
	consensus.TestConsensus, func(keepDataDir bool)) {

	factory := consensus.NewFactory()
	tc, teardown, err := factory.NewTestConsensus(consensusConfig, testName)
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	return tc, teardown
}

func addBlock(t *testing.T, tc consensus.TestConsensus, parents ...*externalapi.DomainHash) *externalapi.DomainHash {
	blockHash, _, err := tc.AddBlock(parents, nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	return blockHash
}

func buildBlock(t *testing.T, tc consensus.TestConsensus, parents ...*externalapi.DomainHash) *externalapi.DomainBlock {
	block, err := tc.BuildBlockWithParents(parents, nil)
	if err != nil {
		t.Fatalf("BuildBlockWithParents: %+v", err)
	}
	return block
}

func expectRuleError(t *testing.T, tc consensus.TestConsensus, block *externalapi.DomainBlock, expected error) {
	_, err := tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, expected) {
		t.Fatalf("Expected %s but got: %+v", expected, err)
	}
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("Expected a rule error but got: %+v", err)
	}
	blockInfo, err := tc.GetBlockInfo(consensushashing.BlockHash(block))
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if blockInfo.Exists {
		t.Fatalf("A rejected block was written to the database")
	}
}

func TestValidateHeaderInIsolation(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		consensusConfig.MaxBlockParents = 2
		tc, teardown := newTestConsensus(t, consensusConfig, "TestValidateHeaderInIsolation")
		defer teardown(false)

		genesisHash := consensusConfig.GenesisHash
		tipA := addBlock(t, tc, genesisHash)
		tipB := addBlock(t, tc, genesisHash)
		tipC := addBlock(t, tc, genesisHash)

		noParents := buildBlock(t, tc, tipA)
		noParents.Header.Parents = []*externalapi.DomainHash{}
		expectRuleError(t, tc, noParents, ruleerrors.ErrNoParents)

		duplicateParents := buildBlock(t, tc, tipA, tipA)
		expectRuleError(t, tc, duplicateParents, ruleerrors.ErrDuplicateParents)

		tooManyParents := buildBlock(t, tc, tipA, tipB, tipC)
		expectRuleError(t, tc, tooManyParents, ruleerrors.ErrTooManyParents)

		unknownVersion := buildBlock(t, tc, tipA)
		unknownVersion.Header.Version = 1
		expectRuleError(t, tc, unknownVersion, ruleerrors.ErrBlockVersionIsUnknown)

		wrongBits := buildBlock(t, tc, tipA)
		wrongBits.Header.Bits = 0x1d00ffff
		expectRuleError(t, tc, wrongBits, ruleerrors.ErrUnexpectedDifficulty)
	})
}

func TestValidateBodyInIsolation(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		consensusConfig.MaxBlockTransactions = 2
		tc, teardown := newTestConsensus(t, consensusConfig, "TestValidateBodyInIsolation")
		defer teardown(false)

		accounts := testutils.NewTestAccounts(t, "TestValidateBodyInIsolation", 2)
		tx := testutils.Transfer(t, accounts[0], 0, 1, testutils.Pay(accounts[1], 1))
		otherTx := testutils.Transfer(t, accounts[0], 1, 1, testutils.Pay(accounts[1], 1))
		thirdTx := testutils.Transfer(t, accounts[0], 2, 1, testutils.Pay(accounts[1], 1))
		genesisHash := consensusConfig.GenesisHash

		badRoot := buildBlock(t, tc, genesisHash)
		badRoot.Transactions = []*externalapi.DomainTransaction{tx}
		expectRuleError(t, tc, badRoot, ruleerrors.ErrBadMerkleRoot)

		duplicateTx, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{genesisHash},
			[]*externalapi.DomainTransaction{tx, tx})
		if err != nil {
			t.Fatalf("BuildBlockWithParents: %+v", err)
		}
		expectRuleError(t, tc, duplicateTx, ruleerrors.ErrDuplicateTx)

		tooManyTransactions, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{genesisHash},
			[]*externalapi.DomainTransaction{tx, otherTx, thirdTx})
		if err != nil {
			t.Fatalf("BuildBlockWithParents: %+v", err)
		}
		expectRuleError(t, tc, tooManyTransactions, ruleerrors.ErrTooManyTransactions)

		_, _, err = tc.AddBlock([]*externalapi.DomainHash{genesisHash}, []*externalapi.DomainTransaction{tx, otherTx})
		if err != nil {
			t.Fatalf("A block at the transaction limit was rejected: %+v", err)
		}
	})
}

func TestValidateParentsExist(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		tc, teardown := newTestConsensus(t, consensusConfig, "TestValidateParentsExist")
		defer teardown(false)

		missingParent := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x01, 0x02})
		block := buildBlock(t, tc, consensusConfig.GenesisHash)
		block.Header.Parents = append(block.Header.Parents, missingParent)

		_, err := tc.ValidateAndInsertBlock(context.Background(), block)
		var missingParentsErr ruleerrors.ErrMissingParents
		if !errors.As(err, &missingParentsErr) {
			t.Fatalf("Expected ErrMissingParents but got: %+v", err)
		}
		if !externalapi.HashesEqual(missingParentsErr.MissingParentHashes, []*externalapi.DomainHash{missingParent}) {
			t.Fatalf("Expected the missing parents to be %s but got %s",
				missingParent, missingParentsErr.MissingParentHashes)
		}
	})
}

func TestValidateParentsRelation(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		tc, teardown := newTestConsensus(t, consensusConfig, "TestValidateParentsRelation")
		defer teardown(false)

		parent := addBlock(t, tc, consensusConfig.GenesisHash)
		child := addBlock(t, tc, parent)

		expectRuleError(t, tc, buildBlock(t, tc, parent, child), ruleerrors.ErrInvalidParentsRelation)
		expectRuleError(t, tc, buildBlock(t, tc, child, consensusConfig.GenesisHash), ruleerrors.ErrInvalidParentsRelation)
	})
}

func TestCheckMergeSizeLimit(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		consensusConfig.MergeSetSizeLimit = 3
		tc, teardown := newTestConsensus(t, consensusConfig, "TestCheckMergeSizeLimit")
		defer teardown(false)

		tips := make([]*externalapi.DomainHash, 4)
		for i := range tips {
			tips[i] = addBlock(t, tc, consensusConfig.GenesisHash)
		}

		expectRuleError(t, tc, buildBlock(t, tc, tips...), ruleerrors.ErrViolatingMergeLimit)
		addBlock(t, tc, tips[:3]...)
	})
}

func TestCheckTimestamp(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		tc, teardown := newTestConsensus(t, consensusConfig, "TestCheckTimestamp")
		defer teardown(false)

		parent := addBlock(t, tc, consensusConfig.GenesisHash)
		parentHeader, err := tc.GetBlockHeader(parent)
		if err != nil {
			t.Fatalf("GetBlockHeader: %+v", err)
		}
		tolerance := consensusConfig.TimestampDeviationTolerance.Milliseconds()

		tooOld := buildBlock(t, tc, parent)
		tooOld.Header.TimeInMilliseconds = parentHeader.TimeInMilliseconds - tolerance - 1
		expectRuleError(t, tc, tooOld, ruleerrors.ErrTimeTooOld)

		atTolerance := buildBlock(t, tc, parent)
		atTolerance.Header.TimeInMilliseconds = parentHeader.TimeInMilliseconds - tolerance
		_, err = tc.ValidateAndInsertBlock(context.Background(), atTolerance)
		if err != nil {
			t.Fatalf("A block within the timestamp tolerance was rejected: %+v", err)
		}
	})
}

func TestDuplicateBlockAndGenesis(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, consensusConfig *consensus.Config) {
		tc, teardown := newTestConsensus(t, consensusConfig, "TestDuplicateBlockAndGenesis")
		defer teardown(false)

		block := buildBlock(t, tc, consensusConfig.GenesisHash)
		_, err := tc.ValidateAndInsertBlock(context.Background(), block)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlock: %+v", err)
		}
		_, err = tc.ValidateAndInsertBlock(context.Background(), block)
		if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
			t.Fatalf("Expected ErrDuplicateBlock but got: %+v", err)
		}

		_, err = tc.ValidateAndInsertBlock(context.Background(), consensusConfig.GenesisBlock)
		if !errors.Is(err, ruleerrors.ErrGenesisOnInitializedConsensus) {
			t.Fatalf("Expected ErrGenesisOnInitializedConsensus but got: %+v", err)
		}
	})
}
