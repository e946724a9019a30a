package accountlockmanager

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"go.uber.org/atomic"
)

func account(b byte) externalapi.AccountKey {
	var key externalapi.AccountKey
	key[0] = b
	return key
}

func TestReadersShareWritersExclude(t *testing.T) {
	manager := New()

	for threadID := 0; threadID < 3; threadID++ {
		acquired, err := manager.TryLock(account(1), LockModeRead, threadID)
		require.NoError(t, err)
		require.True(t, acquired)
	}
	acquired, err := manager.TryLock(account(1), LockModeWrite, 5)
	require.NoError(t, err)
	require.False(t, acquired, "a writer cannot join readers")

	snapshot := manager.Snapshot(account(1))
	require.Equal(t, uint64(0b111), snapshot.Readers)
	require.False(t, snapshot.HasWriter())

	for threadID := 0; threadID < 3; threadID++ {
		require.NoError(t, manager.Unlock(account(1), threadID))
	}
	acquired, err = manager.TryLock(account(1), LockModeWrite, 5)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = manager.TryLock(account(1), LockModeRead, 0)
	require.NoError(t, err)
	require.False(t, acquired, "a reader cannot join a foreign writer")

	require.NoError(t, manager.Unlock(account(1), 5))
	require.NoError(t, manager.CheckRelease())
}

func TestReentryAndUpgrade(t *testing.T) {
	manager := New()

	acquired, err := manager.TryLock(account(1), LockModeRead, 3)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = manager.TryLock(account(1), LockModeWrite, 3)
	require.NoError(t, err)
	require.True(t, acquired, "the sole reader may upgrade")
	require.Equal(t, int32(3), manager.Snapshot(account(1)).Writer)

	acquired, err = manager.TryLock(account(1), LockModeRead, 3)
	require.NoError(t, err)
	require.True(t, acquired, "re-entry always succeeds")

	require.NoError(t, manager.Unlock(account(1), 3))
	require.NoError(t, manager.Unlock(account(1), 3))
	require.Error(t, manager.CheckRelease(), "one acquisition is still outstanding")

	require.NoError(t, manager.Unlock(account(1), 3))
	require.NoError(t, manager.CheckRelease())

	acquired, err = manager.TryLock(account(2), LockModeRead, 1)
	require.NoError(t, err)
	require.True(t, acquired)
	acquired, err = manager.TryLock(account(2), LockModeRead, 2)
	require.NoError(t, err)
	require.True(t, acquired)
	acquired, err = manager.TryLock(account(2), LockModeWrite, 1)
	require.NoError(t, err)
	require.False(t, acquired, "upgrading is refused while another thread reads")
	require.False(t, manager.Snapshot(account(2)).HasWriter())
}

func TestMisuse(t *testing.T) {
	manager := New()

	_, err := manager.TryLock(account(1), LockModeRead, MaxThreads)
	require.True(t, errors.Is(err, ErrInvalidThreadID))
	_, err = manager.TryLock(account(1), LockModeRead, -1)
	require.True(t, errors.Is(err, ErrInvalidThreadID))

	err = manager.Unlock(account(1), 0)
	require.True(t, errors.Is(err, ErrInvariantViolation))

	acquired, err := manager.TryLock(account(1), LockModeRead, 0)
	require.NoError(t, err)
	require.True(t, acquired)
	err = manager.Unlock(account(1), 1)
	require.True(t, errors.Is(err, ErrInvariantViolation), "a thread cannot release another thread's lock")
}

func TestTryLockSetIsAllOrNothing(t *testing.T) {
	manager := New()

	acquired, err := manager.TryLock(account(3), LockModeWrite, 7)
	require.NoError(t, err)
	require.True(t, acquired)

	set := &externalapi.AccessSet{
		Writes: []externalapi.AccountKey{account(1), account(3)},
		Reads:  []externalapi.AccountKey{account(2)},
	}
	acquired, err = manager.TryLockSet(set, 0)
	require.NoError(t, err)
	require.False(t, acquired)
	require.Equal(t, uint64(0), manager.Snapshot(account(1)).Readers, "partial acquisitions are rolled back")
	require.Equal(t, uint64(0), manager.Snapshot(account(2)).Readers)

	require.NoError(t, manager.Unlock(account(3), 7))
	acquired, err = manager.TryLockSet(set, 0)
	require.NoError(t, err)
	require.True(t, acquired)
	require.Equal(t, int32(0), manager.Snapshot(account(3)).Writer)
	require.False(t, manager.Snapshot(account(2)).HasWriter())

	require.NoError(t, manager.UnlockSet(set, 0))
	require.NoError(t, manager.CheckRelease())
}

func TestTryLockSetRejectsOversizedSets(t *testing.T) {
	manager := New()
	set := &externalapi.AccessSet{}
	for i := 0; i <= MaxTransactionAccounts; i++ {
		var key externalapi.AccountKey
		key[0] = byte(i)
		key[1] = byte(i >> 8)
		set.Writes = append(set.Writes, key)
	}
	acquired, err := manager.TryLockSet(set, 0)
	require.NoError(t, err)
	require.False(t, acquired)
	require.NoError(t, manager.CheckRelease())
}

// TestExclusivityUnderContention hammers a few accounts from every thread
// and checks that a writer never overlaps with any other holder
func TestExclusivityUnderContention(t *testing.T) {
	const iterations = 2000
	manager := New()
	accounts := []externalapi.AccountKey{account(1), account(2), account(3)}

	activeWriters := make([]atomic.Int32, len(accounts))
	activeReaders := make([]atomic.Int32, len(accounts))
	violations := atomic.NewInt32(0)

	var wg sync.WaitGroup
	for threadID := 0; threadID < MaxThreads; threadID++ {
		wg.Add(1)
		go func(threadID int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				index := (threadID + i) % len(accounts)
				mode := LockModeRead
				if (threadID+i)%3 == 0 {
					mode = LockModeWrite
				}

				acquired, err := manager.TryLock(accounts[index], mode, threadID)
				if err != nil {
					violations.Inc()
					return
				}
				if !acquired {
					continue
				}

				if mode == LockModeWrite {
					if activeWriters[index].Inc() != 1 || activeReaders[index].Load() != 0 {
						violations.Inc()
					}
					activeWriters[index].Dec()
				} else {
					activeReaders[index].Inc()
					if activeWriters[index].Load() != 0 {
						violations.Inc()
					}
					activeReaders[index].Dec()
				}

				if err := manager.Unlock(accounts[index], threadID); err != nil {
					violations.Inc()
					return
				}
			}
		}(threadID)
	}
	wg.Wait()

	require.Zero(t, violations.Load())
	require.NoError(t, manager.CheckRelease())
}

func TestResetDropsAbandonedLocks(t *testing.T) {
	manager := New()
	set := &externalapi.AccessSet{
		Writes: []externalapi.AccountKey{account(1), account(2)},
		Reads:  []externalapi.AccountKey{account(3)},
	}

	acquired, err := manager.TryLockSet(set, 4)
	require.NoError(t, err)
	require.True(t, acquired)
	require.True(t, errors.Is(manager.CheckRelease(), ErrInvariantViolation))

	manager.Reset()
	require.NoError(t, manager.CheckRelease())
	require.False(t, manager.Snapshot(account(1)).HasWriter())
	require.Zero(t, manager.Snapshot(account(3)).Readers)

	acquired, err = manager.TryLockSet(set, 0)
	require.NoError(t, err)
	require.True(t, acquired, "another thread takes the accounts after a reset")
	require.NoError(t, manager.UnlockSet(set, 0))
}
