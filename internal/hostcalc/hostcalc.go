// Package hostcalc is the CPU reference implementation of every primitive the
// device kernels provide. Results must agree with the device path within
// floating tolerance; that symmetry is what makes device fallback invisible
// to callers. Reductions lean on gonum; large inputs shard across a fixed
// number of host workers since the CPU path gets no other speed advantage.
package hostcalc

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minShard is the smallest input worth splitting across workers.
const minShard = 4096

// Calc performs reference computations with a bounded worker count.
type Calc struct {
	workers int
}

// New returns a Calc using the given worker count; workers <= 0 selects
// runtime.NumCPU().
func New(workers int) *Calc {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Calc{workers: workers}
}

// Workers reports the configured worker count.
func (c *Calc) Workers() int { return c.workers }

// shards invokes fn once per worker shard over [0, n) and waits. Shard
// boundaries depend only on n and the worker count, so results that combine
// per-shard partials in shard order are deterministic.
func (c *Calc) shards(n int, fn func(shard, lo, hi int)) int {
	if n == 0 {
		return 0
	}
	workers := c.workers
	if n < minShard || workers <= 1 {
		fn(0, 0, n)
		return 1
	}
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers

	var wg sync.WaitGroup
	shard := 0
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(shard, lo, hi int) {
			defer wg.Done()
			fn(shard, lo, hi)
		}(shard, lo, hi)
		shard++
	}
	wg.Wait()
	return shard
}

func kahan(parts []float64) float64 {
	var sum, comp float64
	for _, p := range parts {
		y := p - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}

// Sum computes the sum of x.
func (c *Calc) Sum(x []float64) float64 {
	if len(x) < minShard || c.workers <= 1 {
		return floats.Sum(x)
	}
	parts := make([]float64, c.workers)
	used := c.shards(len(x), func(shard, lo, hi int) {
		parts[shard] = floats.Sum(x[lo:hi])
	})
	return kahan(parts[:used])
}

// Mean computes the arithmetic mean of x.
func (c *Calc) Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	if len(x) < minShard || c.workers <= 1 {
		return stat.Mean(x, nil)
	}
	return c.Sum(x) / float64(len(x))
}

// MinMax computes the minimum and maximum of x.
func (c *Calc) MinMax(x []float64) (min, max float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(x) < minShard || c.workers <= 1 {
		return floats.Min(x), floats.Max(x)
	}
	mins := make([]float64, c.workers)
	maxs := make([]float64, c.workers)
	used := c.shards(len(x), func(shard, lo, hi int) {
		mins[shard] = floats.Min(x[lo:hi])
		maxs[shard] = floats.Max(x[lo:hi])
	})
	min, max = mins[0], maxs[0]
	for i := 1; i < used; i++ {
		if mins[i] < min {
			min = mins[i]
		}
		if maxs[i] > max {
			max = maxs[i]
		}
	}
	return min, max
}

// PopVariance computes the population variance of x with the same two-pass
// scheme the device uses.
func (c *Calc) PopVariance(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	if len(x) < minShard || c.workers <= 1 {
		return stat.PopVariance(x, nil)
	}
	mean := c.Mean(x)
	return c.squaredDeviations(x, mean) / float64(len(x))
}

// PopStdDev computes the population standard deviation of x.
func (c *Calc) PopStdDev(x []float64) float64 {
	if len(x) < minShard || c.workers <= 1 {
		if len(x) == 0 {
			return math.NaN()
		}
		return stat.PopStdDev(x, nil)
	}
	return math.Sqrt(c.PopVariance(x))
}

func (c *Calc) squaredDeviations(x []float64, mean float64) float64 {
	parts := make([]float64, c.workers)
	used := c.shards(len(x), func(shard, lo, hi int) {
		var ss float64
		for _, v := range x[lo:hi] {
			d := v - mean
			ss += d * d
		}
		parts[shard] = ss
	})
	return kahan(parts[:used])
}

// CentralMoments computes Σ(x-mean)², Σ(x-mean)³ and Σ(x-mean)⁴ about the
// given mean.
func (c *Calc) CentralMoments(x []float64, mean float64) (m2, m3, m4 float64) {
	if len(x) == 0 {
		return 0, 0, 0
	}
	p2 := make([]float64, c.workers)
	p3 := make([]float64, c.workers)
	p4 := make([]float64, c.workers)
	used := c.shards(len(x), func(shard, lo, hi int) {
		var s2, s3, s4 float64
		for _, v := range x[lo:hi] {
			d := v - mean
			dd := d * d
			s2 += dd
			s3 += dd * d
			s4 += dd * dd
		}
		p2[shard], p3[shard], p4[shard] = s2, s3, s4
	})
	return kahan(p2[:used]), kahan(p3[:used]), kahan(p4[:used])
}

// CorrelationSums accumulates the five Pearson sums Σx, Σy, Σxy, Σx², Σy².
// x and y must have equal length.
func (c *Calc) CorrelationSums(x, y []float64) (sx, sy, sxy, sxx, syy float64) {
	n := len(x)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	px := make([]float64, c.workers)
	py := make([]float64, c.workers)
	pxy := make([]float64, c.workers)
	pxx := make([]float64, c.workers)
	pyy := make([]float64, c.workers)
	used := c.shards(n, func(shard, lo, hi int) {
		var bx, by, bxy, bxx, byy float64
		for i := lo; i < hi; i++ {
			xv, yv := x[i], y[i]
			bx += xv
			by += yv
			bxy += xv * yv
			bxx += xv * xv
			byy += yv * yv
		}
		px[shard], py[shard], pxy[shard], pxx[shard], pyy[shard] = bx, by, bxy, bxx, byy
	})
	return kahan(px[:used]), kahan(py[:used]), kahan(pxy[:used]),
		kahan(pxx[:used]), kahan(pyy[:used])
}

// Histogram counts x into bins equal-width buckets spanning [min, max],
// merging per-shard counts.
func (c *Calc) Histogram(x []float64, min, max float64, bins int) []uint64 {
	counts := make([]uint64, bins)
	if len(x) == 0 {
		return counts
	}
	width := (max - min) / float64(bins)
	shardCounts := make([][]uint64, c.workers)
	used := c.shards(len(x), func(shard, lo, hi int) {
		local := make([]uint64, bins)
		for _, v := range x[lo:hi] {
			idx := bins - 1
			if width > 0 {
				idx = int((v - min) / width)
				if idx < 0 {
					idx = 0
				} else if idx >= bins {
					idx = bins - 1
				}
			}
			local[idx]++
		}
		shardCounts[shard] = local
	})
	for i := 0; i < used; i++ {
		for b, n := range shardCounts[i] {
			counts[b] += n
		}
	}
	return counts
}
