package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
)

// ValidateBodyInIsolation validates block bodies in isolation from the current
// consensus state
func (v *blockValidator) ValidateBodyInIsolation(block *externalapi.DomainBlock) error {
	if block.Header.IsGenesis() && len(block.Transactions) > 0 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedGenesis, "the genesis block carries %d transactions",
			len(block.Transactions))
	}

	if len(block.Transactions) > v.maxBlockTransactions {
		return errors.Wrapf(ruleerrors.ErrTooManyTransactions, "block has %d transactions, but the maximum "+
			"allowed amount is %d", len(block.Transactions), v.maxBlockTransactions)
	}

	err := checkBlockTransactionsRoot(block)
	if err != nil {
		return err
	}

	return checkDuplicateTransactions(block)
}

func checkBlockTransactionsRoot(block *externalapi.DomainBlock) error {
	calculatedRoot := consensushashing.TransactionsRoot(block.Transactions)
	if !block.Header.TransactionsRoot.Equal(calculatedRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block transactions root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			block.Header.TransactionsRoot, calculatedRoot)
	}
	return nil
}

func checkDuplicateTransactions(block *externalapi.DomainBlock) error {
	existingTxIDs := make(map[externalapi.DomainTransactionID]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		id := consensushashing.TransactionID(tx)
		if _, exists := existingTxIDs[*id]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTx, "block contains duplicate "+
				"transaction %s", id)
		}
		existingTxIDs[*id] = struct{}{}
	}
	return nil
}
