package kernels

import "sync/atomic"

// Histogram counts data into bins equal-width buckets spanning [min, max].
// Every element increments exactly one bucket through an atomic counter;
// values at max land in the last bucket. bins must be > 0 and max >= min.
func Histogram(g Grid, data []float64, min, max float64, bins int) []uint64 {
	counts := make([]uint64, bins)
	n := len(data)
	if n == 0 {
		return counts
	}
	width := (max - min) / float64(bins)
	g.forEachBlock(n, func(_, lo, hi int) {
		for _, v := range data[lo:hi] {
			idx := bins - 1
			if width > 0 {
				idx = int((v - min) / width)
				if idx < 0 {
					idx = 0
				} else if idx >= bins {
					idx = bins - 1
				}
			}
			atomic.AddUint64(&counts[idx], 1)
		}
	})
	return counts
}

// HistogramQuantile estimates the q-quantile (0..1) from cumulative bucket
// counts, interpolating linearly within the containing bucket. The error is
// bounded by one bucket width.
func HistogramQuantile(counts []uint64, min, max float64, total uint64, q float64) float64 {
	if total == 0 || len(counts) == 0 {
		return min
	}
	width := (max - min) / float64(len(counts))
	rank := q * float64(total-1)
	var cum uint64
	for i, c := range counts {
		if c == 0 {
			continue
		}
		if float64(cum+c) > rank {
			within := 0.0
			if c > 1 {
				within = (rank - float64(cum)) / float64(c)
				if within < 0 {
					within = 0
				} else if within > 1 {
					within = 1
				}
			}
			return min + (float64(i)+within)*width
		}
		cum += c
	}
	return max
}
