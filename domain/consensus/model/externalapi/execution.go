package externalapi

// TransactionStatus is the outcome of a transaction at its position in a block
type TransactionStatus uint8

const (
	// TransactionAccepted means the transaction's state transition was applied
	TransactionAccepted TransactionStatus = iota

	// TransactionRejectedSignature means the signature did not verify
	TransactionRejectedSignature

	// TransactionRejectedNonce means the nonce did not match the sender's
	TransactionRejectedNonce

	// TransactionRejectedBalance means the sender could not cover outputs and fee
	TransactionRejectedBalance

	// TransactionRejectedGuard means a balance guard was not satisfied
	TransactionRejectedGuard

	// TransactionRejectedOverflow means a credit would overflow a recipient's balance
	TransactionRejectedOverflow

	// TransactionRejectedTooManyAccounts means the transaction's access set
	// could never be locked and it was rejected before scheduling
	TransactionRejectedTooManyAccounts
)

var transactionStatusStrings = map[TransactionStatus]string{
	TransactionAccepted:                "Accepted",
	TransactionRejectedSignature:       "RejectedSignature",
	TransactionRejectedNonce:           "RejectedNonce",
	TransactionRejectedBalance:         "RejectedBalance",
	TransactionRejectedGuard:           "RejectedGuard",
	TransactionRejectedOverflow:        "RejectedOverflow",
	TransactionRejectedTooManyAccounts: "RejectedTooManyAccounts",
}

func (s TransactionStatus) String() string {
	if str, ok := transactionStatusStrings[s]; ok {
		return str
	}
	return "Unknown"
}

// IsAccepted returns whether the status is TransactionAccepted
func (s TransactionStatus) IsAccepted() bool {
	return s == TransactionAccepted
}

// AccountChange records the value of an account before and after a block's execution.
// A nil Before means the account did not exist.
type AccountChange struct {
	Account AccountKey
	Before  *Account
	After   *Account
}

// BlockExecutionResult is the outcome of applying a block's transactions
type BlockExecutionResult struct {
	BlockHash *DomainHash
	// Statuses is indexed by the transaction's position in the block
	Statuses []TransactionStatus
	// Changes is sorted by account key
	Changes   []*AccountChange
	StateRoot *DomainHash
	Waves     int
}

// AcceptedCount returns the number of accepted transactions
func (result *BlockExecutionResult) AcceptedCount() int {
	count := 0
	for _, status := range result.Statuses {
		if status.IsAccepted() {
			count++
		}
	}
	return count
}
