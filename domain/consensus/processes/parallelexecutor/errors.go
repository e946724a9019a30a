package parallelexecutor

import (
	"fmt"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// ErrorKind classifies fatal execution failures
type ErrorKind uint8

const (
	// ErrorKindLockInvariant means the lock manager reported a state that
	// the schedule makes impossible
	ErrorKindLockInvariant ErrorKind = iota

	// ErrorKindStore means reading or staging state failed
	ErrorKindStore

	// ErrorKindCorruptedState means persisted state contradicts itself,
	// e.g. an account differs from what its undo record expects
	ErrorKindCorruptedState

	// ErrorKindCancelled means the context was cancelled mid-block
	ErrorKindCancelled
)

var errorKindStrings = map[ErrorKind]string{
	ErrorKindLockInvariant:  "lock invariant violation",
	ErrorKindStore:          "store failure",
	ErrorKindCorruptedState: "corrupted state",
	ErrorKindCancelled:      "cancelled",
}

func (kind ErrorKind) String() string {
	if str, ok := errorKindStrings[kind]; ok {
		return str
	}
	return fmt.Sprintf("unknown kind %d", kind)
}

// ExecutionError is a fatal failure to execute a block. Unlike a rejected
// transaction, it aborts the block insertion that caused it.
type ExecutionError struct {
	Kind      ErrorKind
	BlockHash *externalapi.DomainHash
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed executing block %s (%s): %s", e.BlockHash, e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newExecutionError(kind ErrorKind, blockHash *externalapi.DomainHash, err error) error {
	return &ExecutionError{Kind: kind, BlockHash: blockHash, Err: err}
}
