package parallelexecutor

import (
	"math"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/txsigning"
)

// stateView is a read-only view of the accounts a wave touches, as of the
// start of the wave. A missing entry is an account that does not exist yet.
type stateView map[externalapi.AccountKey]*externalapi.Account

func (view stateView) account(key externalapi.AccountKey) externalapi.Account {
	if account, ok := view[key]; ok && account != nil {
		return *account
	}
	return externalapi.Account{}
}

// transactionResult is the outcome of executing one transaction. writes is
// empty unless the transaction was accepted.
type transactionResult struct {
	status externalapi.TransactionStatus
	writes map[externalapi.AccountKey]*externalapi.Account
}

func rejected(status externalapi.TransactionStatus) *transactionResult {
	return &transactionResult{status: status}
}

// executeTransaction validates tx against view and computes its writes. It
// never mutates view.
func executeTransaction(tx *externalapi.DomainTransaction, view stateView) *transactionResult {
	if !txsigning.Verify(tx) {
		return rejected(externalapi.TransactionRejectedSignature)
	}

	sender := view.account(tx.Sender)
	if tx.Nonce != sender.Nonce {
		return rejected(externalapi.TransactionRejectedNonce)
	}

	debit := tx.Fee
	for _, output := range tx.Outputs {
		if debit > math.MaxUint64-output.Amount {
			return rejected(externalapi.TransactionRejectedBalance)
		}
		debit += output.Amount
	}
	if sender.Balance < debit {
		return rejected(externalapi.TransactionRejectedBalance)
	}

	for _, guard := range tx.Guards {
		if view.account(guard.Account).Balance < guard.MinBalance {
			return rejected(externalapi.TransactionRejectedGuard)
		}
	}

	writes := make(map[externalapi.AccountKey]*externalapi.Account, len(tx.Outputs)+1)
	sender.Balance -= debit
	sender.Nonce++
	writes[tx.Sender] = &sender

	for _, output := range tx.Outputs {
		recipient, ok := writes[output.Recipient]
		if !ok {
			account := view.account(output.Recipient)
			recipient = &account
			writes[output.Recipient] = recipient
		}
		if recipient.Balance > math.MaxUint64-output.Amount {
			return rejected(externalapi.TransactionRejectedOverflow)
		}
		recipient.Balance += output.Amount
	}

	return &transactionResult{status: externalapi.TransactionAccepted, writes: writes}
}
