package parallelexecutor

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/gammazero/deque"
)

// batch is a slice of a wave small enough to run with one transaction per
// worker thread. Slot t of a batch runs as thread t.
type batch struct {
	wave    int
	indexes []int
}

// schedule splits every wave into batches of at most workers transactions,
// in wave order
func schedule(waves [][]int, workers int) *deque.Deque[batch] {
	batches := new(deque.Deque[batch])
	for waveIndex, wave := range waves {
		for start := 0; start < len(wave); start += workers {
			end := start + workers
			if end > len(wave) {
				end = len(wave)
			}
			batches.PushBack(batch{wave: waveIndex, indexes: wave[start:end]})
		}
	}
	return batches
}

// progress tracks which transactions are still pending and which were
// already committed
type progress struct {
	pending   *roaring.Bitmap
	committed *roaring.Bitmap
}

func newProgress(indexes []int) *progress {
	pending := roaring.New()
	for _, index := range indexes {
		pending.Add(uint32(index))
	}
	return &progress{pending: pending, committed: roaring.New()}
}

func (p *progress) isReady(predecessors []int) bool {
	for _, predecessor := range predecessors {
		if !p.committed.Contains(uint32(predecessor)) {
			return false
		}
	}
	return true
}

func (p *progress) commit(index int) {
	p.pending.Remove(uint32(index))
	p.committed.Add(uint32(index))
}

func (p *progress) isDone() bool {
	return p.pending.IsEmpty()
}
