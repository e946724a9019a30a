// Package accountlockmanager implements try-locks over accounts for a pool
// of at most MaxThreads worker threads. Every worker thread is identified
// by a bit position in a per-account holders bitset, so locks never block:
// a failed acquisition returns false and the caller decides what to do.
package accountlockmanager

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// MaxThreads is the number of worker threads a lock bitset can describe
const MaxThreads = 64

// MaxTransactionAccounts is the largest access set a single transaction may
// declare. Larger transactions are rejected before scheduling.
const MaxTransactionAccounts = MaxThreads

// LockMode is the kind of access a lock grants
type LockMode uint8

const (
	// LockModeRead allows concurrent readers
	LockModeRead LockMode = iota

	// LockModeWrite allows a single thread and no readers from other threads
	LockModeWrite
)

func (mode LockMode) String() string {
	if mode == LockModeWrite {
		return "write"
	}
	return "read"
}

// LockSnapshot is a point-in-time view of an account's lock entry
type LockSnapshot struct {
	Readers uint64
	Writer  int32
}

// HasWriter returns whether some thread holds the write lock
func (snapshot LockSnapshot) HasWriter() bool {
	return snapshot.Writer != noWriter
}

// AccountLockManager manages the lock entries of all accounts
type AccountLockManager struct {
	entries sync.Map
}

// New instantiates a new AccountLockManager
func New() *AccountLockManager {
	return &AccountLockManager{}
}

func validateThreadID(threadID int) error {
	if threadID < 0 || threadID >= MaxThreads {
		return errors.Wrapf(ErrInvalidThreadID, "thread ID %d is out of range [0, %d)", threadID, MaxThreads)
	}
	return nil
}

func (alm *AccountLockManager) entry(account externalapi.AccountKey) *lockEntry {
	if existing, ok := alm.entries.Load(account); ok {
		return existing.(*lockEntry)
	}
	actual, _ := alm.entries.LoadOrStore(account, newLockEntry())
	return actual.(*lockEntry)
}

// TryLock attempts to acquire account in the given mode for threadID without
// blocking. A thread that already holds the account always succeeds, except
// for a read-to-write upgrade while other threads are reading.
func (alm *AccountLockManager) TryLock(account externalapi.AccountKey, mode LockMode, threadID int) (bool, error) {
	err := validateThreadID(threadID)
	if err != nil {
		return false, err
	}

	entry := alm.entry(account)
	if mode == LockModeWrite {
		return entry.tryWrite(threadID), nil
	}
	return entry.tryRead(threadID), nil
}

// Unlock releases one acquisition of account by threadID
func (alm *AccountLockManager) Unlock(account externalapi.AccountKey, threadID int) error {
	err := validateThreadID(threadID)
	if err != nil {
		return err
	}

	value, ok := alm.entries.Load(account)
	if !ok || !value.(*lockEntry).release(threadID) {
		return errors.Wrapf(ErrInvariantViolation, "thread %d released account %s which it does not hold",
			threadID, account)
	}
	return nil
}

type lockRequest struct {
	account externalapi.AccountKey
	mode    LockMode
}

// lockOrder returns the accounts of set in ascending key order. An account
// both read and written is requested once, for writing.
func lockOrder(set *externalapi.AccessSet) []lockRequest {
	requests := make([]lockRequest, 0, set.Len())
	for _, account := range set.Writes {
		requests = append(requests, lockRequest{account: account, mode: LockModeWrite})
	}
	for _, account := range set.Reads {
		requests = append(requests, lockRequest{account: account, mode: LockModeRead})
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].account.Less(requests[j].account)
	})

	deduplicated := requests[:0]
	for _, request := range requests {
		last := len(deduplicated) - 1
		if last >= 0 && deduplicated[last].account == request.account {
			if request.mode == LockModeWrite {
				deduplicated[last].mode = LockModeWrite
			}
			continue
		}
		deduplicated = append(deduplicated, request)
	}
	return deduplicated
}

// TryLockSet acquires every account of set for threadID, or none of them
func (alm *AccountLockManager) TryLockSet(set *externalapi.AccessSet, threadID int) (bool, error) {
	err := validateThreadID(threadID)
	if err != nil {
		return false, err
	}

	requests := lockOrder(set)
	if len(requests) > MaxTransactionAccounts {
		return false, nil
	}

	for i, request := range requests {
		acquired, err := alm.TryLock(request.account, request.mode, threadID)
		if err != nil {
			return false, err
		}
		if acquired {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			err := alm.Unlock(requests[j].account, threadID)
			if err != nil {
				return false, err
			}
		}
		log.Tracef("Thread %d could not acquire %s for %s", threadID, request.account, request.mode)
		return false, nil
	}
	return true, nil
}

// UnlockSet releases an acquisition made by TryLockSet
func (alm *AccountLockManager) UnlockSet(set *externalapi.AccessSet, threadID int) error {
	requests := lockOrder(set)
	for i := len(requests) - 1; i >= 0; i-- {
		err := alm.Unlock(requests[i].account, threadID)
		if err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the current lock state of account
func (alm *AccountLockManager) Snapshot(account externalapi.AccountKey) LockSnapshot {
	value, ok := alm.entries.Load(account)
	if !ok {
		return LockSnapshot{Writer: noWriter}
	}
	entry := value.(*lockEntry)
	return LockSnapshot{
		Readers: entry.holders.Load(),
		Writer:  entry.writer.Load(),
	}
}

// CheckRelease returns ErrInvariantViolation if any account is still held
func (alm *AccountLockManager) CheckRelease() error {
	var held []externalapi.AccountKey
	alm.entries.Range(func(key, value interface{}) bool {
		if !value.(*lockEntry).isFree() {
			held = append(held, key.(externalapi.AccountKey))
		}
		return true
	})
	if len(held) > 0 {
		return errors.Wrapf(ErrInvariantViolation, "%d accounts are still locked, e.g. %s", len(held), held[0])
	}
	return nil
}

// Reset forgets every entry, including any lock a failed execution left
// held. No thread may be using the manager while it runs.
func (alm *AccountLockManager) Reset() {
	alm.entries.Range(func(key, _ interface{}) bool {
		alm.entries.Delete(key)
		return true
	})
}
