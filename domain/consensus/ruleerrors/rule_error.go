package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// Block rule violations. Wrap them with errors.Wrapf to add the offending
// block; IsRuleError still recognizes the result.
var (
	// ErrDuplicateBlock means the block was already inserted
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrBlockVersionIsUnknown means the header version is above the
	// highest known one
	ErrBlockVersionIsUnknown = newRuleError("ErrBlockVersionIsUnknown")

	// ErrTimeTooOld means the timestamp is earlier than the selected
	// parent's by more than TimestampDeviationTolerance
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrUnexpectedDifficulty means the header bits differ from the
	// network's fixed bits
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrNoParents means a non-genesis block lists no parents
	ErrNoParents = newRuleError("ErrNoParents")

	ErrDuplicateParents = newRuleError("ErrDuplicateParents")

	ErrSelfReferencingParent = newRuleError("ErrSelfReferencingParent")

	// ErrTooManyParents means more than MaxBlockParents parents
	ErrTooManyParents = newRuleError("ErrTooManyParents")

	// ErrInvalidParentsRelation means one parent is an ancestor of another
	ErrInvalidParentsRelation = newRuleError("ErrInvalidParentsRelation")

	// ErrBadMerkleRoot means the header commits to other transactions
	// than the body holds
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrDuplicateTx means two transactions of the body share an ID
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")

	ErrTooManyTransactions = newRuleError("ErrTooManyTransactions")

	// ErrViolatingMergeLimit means the merge set is larger than
	// MergeSetSizeLimit
	ErrViolatingMergeLimit = newRuleError("ErrViolatingMergeLimit")

	// ErrPrunedBlock means no parent is in the future of the pruning point
	ErrPrunedBlock = newRuleError("ErrPrunedBlock")

	// ErrPruningPointNotInSelectedChain means the selected parent chain of
	// the block does not pass through the pruning point
	ErrPruningPointNotInSelectedChain = newRuleError("ErrPruningPointNotInSelectedChain")

	// ErrUnexpectedGenesis means the genesis block carries transactions
	ErrUnexpectedGenesis = newRuleError("ErrUnexpectedGenesis")

	// ErrGenesisOnInitializedConsensus means genesis was submitted after
	// the state was initialized
	ErrGenesisOnInitializedConsensus = newRuleError("ErrGenesisOnInitializedConsensus")
)

// RuleError is a block that breaks a consensus rule, as opposed to a
// failure of the node itself. Use IsRuleError to tell them apart.
type RuleError struct {
	message string
	inner   error
}

func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause is for errors.Cause
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message}
}

// ErrMissingParents lists the parents of a block that are not in the DAG
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e ErrMissingParents) Error() string {
	return fmt.Sprintf("%d unknown parents: %v", len(e.MissingParentHashes), e.MissingParentHashes)
}

// NewErrMissingParents returns a RuleError around ErrMissingParents, so
// callers can both treat it as a rule violation and extract the hashes
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingParents",
		inner:   ErrMissingParents{missingParentHashes},
	})
}

// IsRuleError returns whether err was caused by a consensus rule violation
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}
