package mempool

import (
	"fmt"
	"math"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/txsigning"
	"github.com/topodag/topod/infrastructure/logger"
)

func (mp *mempool) validateAndInsertTransaction(transaction *externalapi.DomainTransaction) error {
	transactionID := consensushashing.TransactionID(transaction)
	onEnd := logger.LogAndMeasureExecutionTime(log,
		fmt.Sprintf("validateAndInsertTransaction %s", transactionID))
	defer onEnd()

	if _, ok := mp.transactionsPool.allTransactions[*transactionID]; ok {
		return txRuleError(RejectDuplicate,
			fmt.Sprintf("transaction %s is already in the mempool", transactionID))
	}

	err := mp.validateTransactionInIsolation(transactionID, transaction)
	if err != nil {
		return err
	}
	err = mp.validateTransactionInContext(transactionID, transaction)
	if err != nil {
		return err
	}

	replaced, ok := mp.transactionsPool.transactionsBySenderSlot[senderSlot(transaction)]
	if ok {
		if transaction.Fee <= replaced.Transaction().Fee {
			return txRuleError(RejectDuplicate, fmt.Sprintf("transaction %s uses nonce %d of %s, "+
				"which is already taken by %s with a fee that is not lower",
				transactionID, transaction.Nonce, transaction.Sender, replaced.TransactionID()))
		}
		log.Debugf("Transaction %s replaces %s", transactionID, replaced.TransactionID())
		err = mp.transactionsPool.removeTransaction(replaced)
		if err != nil {
			return err
		}
	}

	mempoolTransaction := mp.transactionsPool.addTransaction(transaction.Clone())
	evicted, err := mp.transactionsPool.limitTransactionCount()
	if err != nil {
		return err
	}
	if evicted[*mempoolTransaction.TransactionID()] {
		return txRuleError(RejectPoolFull, fmt.Sprintf("transaction %s pays a fee of %d, "+
			"not enough to enter a full mempool", transactionID, transaction.Fee))
	}
	log.Debugf("Accepted transaction %s from %s at nonce %d", transactionID, transaction.Sender, transaction.Nonce)
	return nil
}

func (mp *mempool) validateTransactionInIsolation(transactionID *externalapi.DomainTransactionID,
	transaction *externalapi.DomainTransaction) error {

	if transaction.Version != 0 {
		return txRuleError(RejectMalformed,
			fmt.Sprintf("transaction %s has unknown version %d", transactionID, transaction.Version))
	}
	if len(transaction.Outputs) == 0 {
		return txRuleError(RejectMalformed, fmt.Sprintf("transaction %s has no outputs", transactionID))
	}
	if _, ok := totalSpent(transaction); !ok {
		return txRuleError(RejectMalformed,
			fmt.Sprintf("transaction %s spends more than the maximum amount", transactionID))
	}
	accessSet := transaction.AccessSet()
	if accessSet.Len() > mp.config.MaxTransactionAccounts {
		return txRuleError(RejectMalformed, fmt.Sprintf("transaction %s touches %d accounts, "+
			"more than the maximum of %d", transactionID, accessSet.Len(), mp.config.MaxTransactionAccounts))
	}
	if transaction.Fee < mp.config.MinimumTransactionFee {
		return txRuleError(RejectInsufficientFee, fmt.Sprintf("transaction %s pays a fee of %d, "+
			"less than the minimum of %d", transactionID, transaction.Fee, mp.config.MinimumTransactionFee))
	}
	if !txsigning.Verify(transaction) {
		return txRuleError(RejectInvalid,
			fmt.Sprintf("transaction %s has an invalid signature", transactionID))
	}
	return nil
}

func (mp *mempool) validateTransactionInContext(transactionID *externalapi.DomainTransactionID,
	transaction *externalapi.DomainTransaction) error {

	account, err := mp.consensus.GetAccount(transaction.Sender)
	if err != nil {
		return err
	}
	if transaction.Nonce < account.Nonce {
		return txRuleError(RejectObsolete, fmt.Sprintf("transaction %s uses nonce %d, "+
			"but the nonce of %s is already %d", transactionID, transaction.Nonce, transaction.Sender, account.Nonce))
	}
	spent, _ := totalSpent(transaction)
	if account.Balance < spent {
		return txRuleError(RejectInvalid, fmt.Sprintf("transaction %s spends %d, "+
			"but %s holds only %d", transactionID, spent, transaction.Sender, account.Balance))
	}
	return nil
}

// totalSpent returns the fee plus every output amount, and false if the sum
// overflows
func totalSpent(transaction *externalapi.DomainTransaction) (uint64, bool) {
	total := transaction.Fee
	for _, output := range transaction.Outputs {
		if total > math.MaxUint64-output.Amount {
			return 0, false
		}
		total += output.Amount
	}
	return total, true
}
