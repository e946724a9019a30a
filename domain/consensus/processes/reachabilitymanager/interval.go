package reachabilitymanager

import (
	"math"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
)

func newReachabilityInterval(start uint64, end uint64) *model.ReachabilityInterval {
	return &model.ReachabilityInterval{Start: start, End: end}
}

// intervalSize counts both ends. An interval with End == Start-1 is empty.
func intervalSize(ri *model.ReachabilityInterval) uint64 {
	return ri.End - ri.Start + 1
}

func intervalContains(ri *model.ReachabilityInterval, other *model.ReachabilityInterval) bool {
	return ri.Start <= other.Start && other.End <= ri.End
}

// intervalSplitInHalf returns the two halves of ri. The left half gets the
// extra slot of an odd-sized interval.
func intervalSplitInHalf(ri *model.ReachabilityInterval) (left, right *model.ReachabilityInterval, err error) {
	size := intervalSize(ri)
	if size == 0 {
		return nil, nil, errors.Errorf("cannot split the empty interval [%d, %d]", ri.Start, ri.End)
	}
	leftSize := size - size/2
	return newReachabilityInterval(ri.Start, ri.Start+leftSize-1),
		newReachabilityInterval(ri.Start+leftSize, ri.End), nil
}

func sumSizes(sizes []uint64) uint64 {
	sum := uint64(0)
	for _, size := range sizes {
		sum += size
	}
	return sum
}

// intervalSplitExact cuts ri into consecutive parts of the given sizes,
// which must add up to exactly the size of ri
func intervalSplitExact(ri *model.ReachabilityInterval, sizes []uint64) ([]*model.ReachabilityInterval, error) {
	if sumSizes(sizes) != intervalSize(ri) {
		return nil, errors.Errorf("sizes add up to %d but the interval holds %d", sumSizes(sizes), intervalSize(ri))
	}

	parts := make([]*model.ReachabilityInterval, len(sizes))
	start := ri.Start
	for i, size := range sizes {
		parts[i] = newReachabilityInterval(start, start+size-1)
		start += size
	}
	return parts, nil
}

// intervalSplitWithExponentialBias gives part i at least sizes[i] slots and
// hands out the slack in proportion to 2^sizes[i]. The heaviest subtree is
// the one most likely to keep growing, so it receives nearly all of it.
func intervalSplitWithExponentialBias(ri *model.ReachabilityInterval, sizes []uint64) ([]*model.ReachabilityInterval, error) {
	total := intervalSize(ri)
	required := sumSizes(sizes)
	if required > total {
		return nil, errors.Errorf("sizes add up to %d but the interval holds only %d", required, total)
	}

	slack := total - required
	remaining := slack
	biased := make([]uint64, len(sizes))
	weights := exponentialWeights(sizes)
	for i, weight := range weights {
		bias := remaining
		if i < len(weights)-1 {
			if share := math.Round(float64(slack) * weight); share < float64(remaining) {
				bias = uint64(share)
			}
		}
		biased[i] = sizes[i] + bias
		remaining -= bias
	}
	return intervalSplitExact(ri, biased)
}

// exponentialWeights normalizes 2^size over sizes. Every exponent is
// shifted down by the largest size so the powers stay in float range; the
// weights that underflow to zero were negligible anyway.
func exponentialWeights(sizes []uint64) []float64 {
	maxSize := uint64(0)
	for _, size := range sizes {
		if size > maxSize {
			maxSize = size
		}
	}

	weights := make([]float64, len(sizes))
	sum := float64(0)
	for i, size := range sizes {
		weights[i] = math.Exp2(-float64(maxSize - size))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
