package kernels

import "math"

// GrowthRate computes the elementwise percentage change
// (curr - prev) / prev * 100, writing 0 wherever prev <= 0 so the kernel can
// never divide by zero. curr and prev must have equal length.
func GrowthRate(g Grid, curr, prev []float64) []float64 {
	out := make([]float64, len(curr))
	g.forEachBlock(len(curr), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			if prev[i] > 0 {
				out[i] = (curr[i] - prev[i]) / prev[i] * 100
			}
		}
	})
	return out
}

// BoundsFlags flags every element outside [lower, upper]. The bounds are
// precomputed on the host (IQR fences).
func BoundsFlags(g Grid, data []float64, lower, upper float64) []bool {
	out := make([]bool, len(data))
	g.forEachBlock(len(data), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = data[i] < lower || data[i] > upper
		}
	})
	return out
}

// ZScoreFlags flags every element whose |(x-mean)/std| exceeds threshold.
// A zero std flags nothing (a constant series has no outliers).
func ZScoreFlags(g Grid, data []float64, mean, std, threshold float64) []bool {
	out := make([]bool, len(data))
	if std == 0 {
		return out
	}
	g.forEachBlock(len(data), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = math.Abs((data[i]-mean)/std) > threshold
		}
	})
	return out
}

// MovingAverageValid computes the trailing moving average over full windows
// only: out[i] = mean(data[i : i+window]), producing len(data)-window+1
// values. window must satisfy 0 < window <= len(data).
func MovingAverageValid(g Grid, data []float64, window int) []float64 {
	n := len(data) - window + 1
	out := make([]float64, n)
	w := float64(window)
	g.forEachBlock(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			var sum float64
			for j := i; j < i+window; j++ {
				sum += data[j]
			}
			out[i] = sum / w
		}
	})
	return out
}

// MovingAverageCentered computes a centered moving average of length
// len(data): for each index the window [i-window/2, i+window/2] is clamped to
// the valid range, so the window shrinks at the series boundaries instead of
// padding with a sentinel.
func MovingAverageCentered(g Grid, data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	half := window / 2
	g.forEachBlock(n, func(_, lo, hi int) {
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
				sum += data[j]
			}
			out[i] = sum / float64(to-from+1)
		}
	})
	return out
}
