package accountlockmanager

import (
	"go.uber.org/atomic"
)

const noWriter int32 = -1

// lockEntry is the lock state of a single account. holders has a bit set
// for every thread holding the account in any mode. writer is the thread
// holding it for writing, if any. nesting[t] is only touched by thread t.
type lockEntry struct {
	holders atomic.Uint64
	writer  atomic.Int32
	nesting [MaxThreads]atomic.Uint32
}

func newLockEntry() *lockEntry {
	entry := &lockEntry{}
	entry.writer.Store(noWriter)
	return entry
}

func threadBit(threadID int) uint64 {
	return uint64(1) << uint(threadID)
}

func (e *lockEntry) setHolder(bit uint64) {
	for {
		old := e.holders.Load()
		if e.holders.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (e *lockEntry) clearHolder(bit uint64) {
	for {
		old := e.holders.Load()
		if e.holders.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// tryRead marks the thread as a holder and then checks for a foreign
// writer. A writer marks itself and then checks for foreign holders, so at
// least one of the two always observes the other.
func (e *lockEntry) tryRead(threadID int) bool {
	bit := threadBit(threadID)
	if e.holders.Load()&bit != 0 {
		e.nesting[threadID].Inc()
		return true
	}
	if e.writer.Load() != noWriter {
		return false
	}

	e.setHolder(bit)
	if writer := e.writer.Load(); writer != noWriter && writer != int32(threadID) {
		e.clearHolder(bit)
		return false
	}
	e.nesting[threadID].Store(1)
	return true
}

func (e *lockEntry) tryWrite(threadID int) bool {
	bit := threadBit(threadID)
	if e.writer.Load() == int32(threadID) {
		e.nesting[threadID].Inc()
		return true
	}

	alreadyReading := e.holders.Load()&bit != 0
	if e.holders.Load()&^bit != 0 {
		return false
	}
	if !e.writer.CompareAndSwap(noWriter, int32(threadID)) {
		return false
	}
	if !alreadyReading {
		e.setHolder(bit)
	}
	if e.holders.Load() != bit {
		if !alreadyReading {
			e.clearHolder(bit)
		}
		e.writer.Store(noWriter)
		return false
	}

	if alreadyReading {
		e.nesting[threadID].Inc()
	} else {
		e.nesting[threadID].Store(1)
	}
	return true
}

// release returns false if the thread does not hold the entry
func (e *lockEntry) release(threadID int) bool {
	bit := threadBit(threadID)
	if e.holders.Load()&bit == 0 || e.nesting[threadID].Load() == 0 {
		return false
	}
	if e.nesting[threadID].Dec() > 0 {
		return true
	}
	if e.writer.Load() == int32(threadID) {
		e.writer.Store(noWriter)
	}
	e.clearHolder(bit)
	return true
}

func (e *lockEntry) isFree() bool {
	return e.holders.Load() == 0 && e.writer.Load() == noWriter
}
