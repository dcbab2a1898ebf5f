package kernels

import (
	"math"
	"sync/atomic"
)

// GroupAccumulators holds the fixed-size per-group accumulator arrays filled
// by GroupedAggregate. The group-id space must be known before dispatch; the
// arrays are indexed directly by group id.
type GroupAccumulators struct {
	Counts  []uint64
	sumBits []uint64
	minBits []uint64
	maxBits []uint64
}

// Count returns the element count for group id.
func (a *GroupAccumulators) Count(id int) uint64 {
	return a.Counts[id]
}

// Sum returns the accumulated sum for group id.
func (a *GroupAccumulators) Sum(id int) float64 {
	return math.Float64frombits(a.sumBits[id])
}

// Min returns the accumulated minimum for group id, NaN for an empty group.
func (a *GroupAccumulators) Min(id int) float64 {
	if a.Counts[id] == 0 {
		return math.NaN()
	}
	return FromSortableBits(a.minBits[id])
}

// Max returns the accumulated maximum for group id, NaN for an empty group.
func (a *GroupAccumulators) Max(id int) float64 {
	if a.Counts[id] == 0 {
		return math.NaN()
	}
	return FromSortableBits(a.maxBits[id])
}

// GroupedAggregate scatters values into bounded per-group accumulators: each
// element atomically updates the count, sum, min and max slots of its group.
// keys and values must have equal length and every key must satisfy
// 0 <= key < groups.
func GroupedAggregate(g Grid, keys []int, values []float64, groups int) *GroupAccumulators {
	acc := &GroupAccumulators{
		Counts:  make([]uint64, groups),
		sumBits: make([]uint64, groups),
		minBits: make([]uint64, groups),
		maxBits: make([]uint64, groups),
	}
	minInit := SortableBits(math.Inf(1))
	maxInit := SortableBits(math.Inf(-1))
	for i := 0; i < groups; i++ {
		acc.minBits[i] = minInit
		acc.maxBits[i] = maxInit
	}

	g.forEachBlock(len(values), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			id := keys[i]
			v := values[i]
			atomic.AddUint64(&acc.Counts[id], 1)
			atomicAddFloat(&acc.sumBits[id], v)
			enc := SortableBits(v)
			atomicMinBits(&acc.minBits[id], enc)
			atomicMaxBits(&acc.maxBits[id], enc)
		}
	})
	return acc
}
