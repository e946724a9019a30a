package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/txsigning"
	"github.com/topodag/topod/domain/miningmanager"
	"github.com/topodag/topod/domain/miningmanager/mempool"
	"github.com/topodag/topod/util/mstime"
)

const (
	simulatedTransactionsPerBlock = 8
	simulatedTransferAmount       = 10
	simulatedTransactionFee       = 1

	// Every branchInterval-th round builds branchWidth sibling blocks over
	// the same tips, so the next template has to merge them
	branchInterval = 4
	branchWidth    = 3
)

type simulatedAccount struct {
	keyPair   *secp256k1.SchnorrKeyPair
	key       externalapi.AccountKey
	nextNonce uint64
}

// simulator drives the whole block pipeline without any network: it feeds
// transfers between the development accounts into the mempool and inserts
// blocks built from templates
type simulator struct {
	consensus     consensus.Consensus
	miningManager miningmanager.MiningManager
	accounts      []*simulatedAccount
	blockCount    uint64
	interval      time.Duration
	random        *rand.Rand
}

func newSimulator(consensus consensus.Consensus, miningManager miningmanager.MiningManager,
	accountSeeds []string, blockCount uint64, interval time.Duration) (*simulator, error) {

	accounts := make([]*simulatedAccount, len(accountSeeds))
	for i, seed := range accountSeeds {
		keyPair, err := txsigning.KeyPairFromSeed([]byte(seed))
		if err != nil {
			return nil, err
		}
		key, err := txsigning.AccountKeyFromKeyPair(keyPair)
		if err != nil {
			return nil, err
		}
		account, err := consensus.GetAccount(key)
		if err != nil {
			return nil, err
		}
		accounts[i] = &simulatedAccount{keyPair: keyPair, key: key, nextNonce: account.Nonce}
	}

	return &simulator{
		consensus:     consensus,
		miningManager: miningManager,
		accounts:      accounts,
		blockCount:    blockCount,
		interval:      interval,
		random:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// run inserts blockCount blocks, or fewer if ctx is cancelled first
func (s *simulator) run(ctx context.Context) error {
	log.Infof("Simulating %d blocks over %d accounts", s.blockCount, len(s.accounts))

	inserted := uint64(0)
	for round := 0; inserted < s.blockCount; round++ {
		if ctx.Err() != nil {
			log.Infof("Simulation stopped after %d blocks", inserted)
			return nil
		}

		err := s.submitTransactions()
		if err != nil {
			return err
		}

		width := 1
		if round%branchInterval == branchInterval-1 {
			width = branchWidth
		}
		if remaining := s.blockCount - inserted; uint64(width) > remaining {
			width = int(remaining)
		}

		blocks := make([]*externalapi.DomainBlock, width)
		for i := range blocks {
			blocks[i], err = s.miningManager.GetBlockTemplate(mstime.TimeToUnixMilli(mstime.Now()))
			if err != nil {
				return err
			}
		}
		for _, block := range blocks {
			err := s.insertBlock(ctx, block)
			if err != nil {
				if ctx.Err() != nil {
					log.Infof("Simulation stopped after %d blocks", inserted)
					return nil
				}
				return err
			}
			inserted++
		}

		select {
		case <-ctx.Done():
		case <-time.After(s.interval):
		}
	}

	log.Infof("Simulation finished after %d blocks", inserted)
	return nil
}

func (s *simulator) insertBlock(ctx context.Context, block *externalapi.DomainBlock) error {
	result, err := s.consensus.ValidateAndInsertBlock(ctx, block)
	if err != nil {
		return errors.Wrapf(err, "simulated block %s was rejected", consensushashing.BlockHash(block))
	}

	err = s.miningManager.HandleNewBlock(block)
	if err != nil {
		return err
	}

	changeSet := result.VirtualChangeSet
	if changeSet.ReorgRange != nil {
		log.Debugf("Simulated block %s with %d transactions, topoheights %d-%d reordered",
			result.BlockHash, len(block.Transactions), changeSet.ReorgRange.Start, changeSet.ReorgRange.End)
	} else {
		log.Debugf("Simulated side block %s with %d transactions", result.BlockHash, len(block.Transactions))
	}
	return nil
}

// submitTransactions adds transfers between random development accounts to
// the mempool. Once the mempool has drained, every nonce is resynchronized
// from the consensus state, since included transfers may have failed.
func (s *simulator) submitTransactions() error {
	if len(s.accounts) < 2 {
		return nil
	}

	if s.miningManager.TransactionCount() == 0 {
		for _, account := range s.accounts {
			err := s.syncNonce(account)
			if err != nil {
				return err
			}
		}
	}

	for i := 0; i < simulatedTransactionsPerBlock; i++ {
		sender := s.accounts[s.random.Intn(len(s.accounts))]
		recipient := s.accounts[s.random.Intn(len(s.accounts))]
		for recipient == sender {
			recipient = s.accounts[s.random.Intn(len(s.accounts))]
		}

		tx := &externalapi.DomainTransaction{
			Sender: sender.key,
			Nonce:  sender.nextNonce,
			Fee:    simulatedTransactionFee,
			Outputs: []*externalapi.TransferOutput{
				{Recipient: recipient.key, Amount: simulatedTransferAmount},
			},
		}
		err := txsigning.Sign(tx, sender.keyPair)
		if err != nil {
			return err
		}

		err = s.miningManager.ValidateAndInsertTransaction(tx)
		if err != nil {
			rejectCode, ok := mempool.ExtractRejectCode(err)
			if !ok {
				return err
			}
			log.Debugf("Simulated transaction %s rejected (%s): %s",
				consensushashing.TransactionID(tx), rejectCode, err)
			if rejectCode == mempool.RejectObsolete {
				err := s.syncNonce(sender)
				if err != nil {
					return err
				}
			}
			continue
		}
		sender.nextNonce++
	}
	return nil
}

func (s *simulator) syncNonce(account *simulatedAccount) error {
	state, err := s.consensus.GetAccount(account.key)
	if err != nil {
		return err
	}
	account.nextNonce = state.Nonce
	return nil
}
