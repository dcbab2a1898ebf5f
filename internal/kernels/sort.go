package kernels

import "math"

// BitonicSort returns an ascending sorted copy of data using a bitonic
// sorting network: the input is padded to the next power of two with +Inf,
// then log²N compare-exchange stages run, each stage fully block-parallel.
// Exact but O(N log²N); callers choose between this and the histogram
// estimator through the percentile strategy.
func BitonicSort(g Grid, data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	m := nextPow2(n)
	buf := make([]float64, m)
	copy(buf, data)
	for i := n; i < m; i++ {
		buf[i] = math.Inf(1)
	}

	for k := 2; k <= m; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			stageCompareExchange(g, buf, j, k)
		}
	}
	return buf[:n]
}

// stageCompareExchange runs one compare-exchange stage of the network across
// the grid. Partner pairs within a stage are disjoint, so blocks never race.
func stageCompareExchange(g Grid, buf []float64, j, k int) {
	g.forEachBlock(len(buf), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			partner := i ^ j
			if partner <= i {
				continue
			}
			ascending := i&k == 0
			if (ascending && buf[i] > buf[partner]) || (!ascending && buf[i] < buf[partner]) {
				buf[i], buf[partner] = buf[partner], buf[i]
			}
		}
	})
}

func nextPow2(n int) int {
	m := 1
	for m < n {
		m <<= 1
	}
	return m
}
