package hostcalc

import (
	"math"
	"sort"
)

// GrowthRate computes the elementwise percentage change, 0 wherever
// prev <= 0. curr and prev must have equal length.
func (c *Calc) GrowthRate(curr, prev []float64) []float64 {
	out := make([]float64, len(curr))
	c.shards(len(curr), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			if prev[i] > 0 {
				out[i] = (curr[i] - prev[i]) / prev[i] * 100
			}
		}
	})
	return out
}

// BoundsFlags flags elements outside [lower, upper].
func (c *Calc) BoundsFlags(x []float64, lower, upper float64) []bool {
	out := make([]bool, len(x))
	c.shards(len(x), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = x[i] < lower || x[i] > upper
		}
	})
	return out
}

// ZScoreFlags flags elements whose |z| exceeds threshold. A zero std flags
// nothing.
func (c *Calc) ZScoreFlags(x []float64, mean, std, threshold float64) []bool {
	out := make([]bool, len(x))
	if std == 0 {
		return out
	}
	c.shards(len(x), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = math.Abs((x[i]-mean)/std) > threshold
		}
	})
	return out
}

// MovingAverageValid computes the trailing moving average over full windows
// only, producing len(x)-window+1 values.
func (c *Calc) MovingAverageValid(x []float64, window int) []float64 {
	n := len(x) - window + 1
	out := make([]float64, n)
	w := float64(window)
	c.shards(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			var sum float64
			for j := i; j < i+window; j++ {
				sum += x[j]
			}
			out[i] = sum / w
		}
	})
	return out
}

// MovingAverageCentered computes a centered moving average of length len(x)
// with windows clamped at the series boundaries.
func (c *Calc) MovingAverageCentered(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := window / 2
	c.shards(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			from := i - half
			if from < 0 {
				from = 0
			}
			to := i + half
			if to >= n {
				to = n - 1
			}
			var sum float64
			for j := from; j <= to; j++ {
				sum += x[j]
			}
			out[i] = sum / float64(to-from+1)
		}
	})
	return out
}

// SortedCopy returns an ascending sorted copy of x.
func SortedCopy(x []float64) []float64 {
	out := append([]float64(nil), x...)
	sort.Float64s(out)
	return out
}

// Quantile returns the p-th percentile (0..100) of sorted data using linear
// interpolation between closest ranks. Both backends derive exact percentiles
// through this one function so their results are bitwise identical on
// identically sorted input.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
