package hostcalc

import "math"

// GroupTotals holds per-group accumulator arrays indexed by group id.
type GroupTotals struct {
	counts []uint64
	sums   []float64
	mins   []float64
	maxs   []float64
}

func newGroupTotals(groups int) *GroupTotals {
	t := &GroupTotals{
		counts: make([]uint64, groups),
		sums:   make([]float64, groups),
		mins:   make([]float64, groups),
		maxs:   make([]float64, groups),
	}
	for i := 0; i < groups; i++ {
		t.mins[i] = math.Inf(1)
		t.maxs[i] = math.Inf(-1)
	}
	return t
}

func (t *GroupTotals) add(id int, v float64) {
	t.counts[id]++
	t.sums[id] += v
	if v < t.mins[id] {
		t.mins[id] = v
	}
	if v > t.maxs[id] {
		t.maxs[id] = v
	}
}

func (t *GroupTotals) merge(o *GroupTotals) {
	for id := range t.counts {
		if o.counts[id] == 0 {
			continue
		}
		t.counts[id] += o.counts[id]
		t.sums[id] += o.sums[id]
		if o.mins[id] < t.mins[id] {
			t.mins[id] = o.mins[id]
		}
		if o.maxs[id] > t.maxs[id] {
			t.maxs[id] = o.maxs[id]
		}
	}
}

// Count returns the element count for group id.
func (t *GroupTotals) Count(id int) uint64 { return t.counts[id] }

// Sum returns the accumulated sum for group id.
func (t *GroupTotals) Sum(id int) float64 { return t.sums[id] }

// Min returns the accumulated minimum for group id, NaN for an empty group.
func (t *GroupTotals) Min(id int) float64 {
	if t.counts[id] == 0 {
		return math.NaN()
	}
	return t.mins[id]
}

// Max returns the accumulated maximum for group id, NaN for an empty group.
func (t *GroupTotals) Max(id int) float64 {
	if t.counts[id] == 0 {
		return math.NaN()
	}
	return t.maxs[id]
}

// GroupedAggregate accumulates count, sum, min and max per group with
// per-shard local totals merged in shard order. Every key must satisfy
// 0 <= key < groups.
func (c *Calc) GroupedAggregate(keys []int, values []float64, groups int) *GroupTotals {
	if len(values) == 0 {
		return newGroupTotals(groups)
	}
	locals := make([]*GroupTotals, c.workers)
	used := c.shards(len(values), func(shard, lo, hi int) {
		t := newGroupTotals(groups)
		for i := lo; i < hi; i++ {
			t.add(keys[i], values[i])
		}
		locals[shard] = t
	})
	if used == 1 {
		return locals[0]
	}
	out := newGroupTotals(groups)
	for s := 0; s < used; s++ {
		out.merge(locals[s])
	}
	return out
}
