package accountlockmanager

import "github.com/pkg/errors"

var (
	// ErrInvariantViolation means the lock state contradicts the caller's
	// view of it, e.g. releasing a lock that is not held
	ErrInvariantViolation = errors.New("account lock invariant violation")

	// ErrInvalidThreadID means a thread ID outside [0, MaxThreads) was used
	ErrInvalidThreadID = errors.New("invalid thread ID")
)
