package kernels

import "math"

// ReduceSum computes the sum of data with an in-block pairwise tree reduction
// followed by a compensated combination of the block partials. The tree plus
// compensated finish bounds rounding error on large, high-magnitude series.
func ReduceSum(g Grid, data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	partials := make([]float64, g.numBlocks(n))
	g.forEachBlock(n, func(block, lo, hi int) {
		partials[block] = treeSum(data[lo:hi])
	})
	return kahanSum(partials)
}

// treeSum reduces a block pairwise, mirroring a shared-memory tree reduction.
func treeSum(block []float64) float64 {
	n := len(block)
	if n == 1 {
		return block[0]
	}
	scratch := make([]float64, n)
	copy(scratch, block)
	for stride := n; stride > 1; {
		half := (stride + 1) / 2
		for i := 0; i+half < stride; i++ {
			scratch[i] += scratch[i+half]
		}
		stride = half
	}
	return scratch[0]
}

// ReduceMinMax computes the minimum and maximum of data. Each block reduces
// locally, then publishes through atomic compare-and-swap on the
// order-preserving integer encoding (see SortableBits).
func ReduceMinMax(g Grid, data []float64) (min, max float64) {
	n := len(data)
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	minBits := SortableBits(math.Inf(1))
	maxBits := SortableBits(math.Inf(-1))
	g.forEachBlock(n, func(_, lo, hi int) {
		blockMin, blockMax := data[lo], data[lo]
		for _, v := range data[lo+1 : hi] {
			if v < blockMin {
				blockMin = v
			}
			if v > blockMax {
				blockMax = v
			}
		}
		atomicMinBits(&minBits, SortableBits(blockMin))
		atomicMaxBits(&maxBits, SortableBits(blockMax))
	})
	return FromSortableBits(minBits), FromSortableBits(maxBits)
}

// SquaredDeviations is the second pass of the two-pass variance algorithm:
// given the mean from ReduceSum, it reduces Σ(x-mean)². Two passes are used
// instead of a streaming estimator for numerical stability.
func SquaredDeviations(g Grid, data []float64, mean float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	partials := make([]float64, g.numBlocks(n))
	g.forEachBlock(n, func(block, lo, hi int) {
		var ss float64
		for _, v := range data[lo:hi] {
			d := v - mean
			ss += d * d
		}
		partials[block] = ss
	})
	return kahanSum(partials)
}

// CentralMoments reduces the second, third and fourth central moments about
// mean in a single multiplexed pass. The three sums share one traversal the
// same way the correlation kernel multiplexes its five.
func CentralMoments(g Grid, data []float64, mean float64) (m2, m3, m4 float64) {
	n := len(data)
	if n == 0 {
		return 0, 0, 0
	}
	blocks := g.numBlocks(n)
	p2 := make([]float64, blocks)
	p3 := make([]float64, blocks)
	p4 := make([]float64, blocks)
	g.forEachBlock(n, func(block, lo, hi int) {
		var s2, s3, s4 float64
		for _, v := range data[lo:hi] {
			d := v - mean
			dd := d * d
			s2 += dd
			s3 += dd * d
			s4 += dd * dd
		}
		p2[block], p3[block], p4[block] = s2, s3, s4
	})
	return kahanSum(p2), kahanSum(p3), kahanSum(p4)
}

// CorrelationSums accumulates the five sums of the closed-form Pearson
// coefficient (Σx, Σy, Σxy, Σx², Σy²) in one multiplexed reduction pass.
// The coefficient itself is derived on the host. x and y must have equal
// length.
func CorrelationSums(g Grid, x, y []float64) (sx, sy, sxy, sxx, syy float64) {
	n := len(x)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	blocks := g.numBlocks(n)
	px := make([]float64, blocks)
	py := make([]float64, blocks)
	pxy := make([]float64, blocks)
	pxx := make([]float64, blocks)
	pyy := make([]float64, blocks)
	g.forEachBlock(n, func(block, lo, hi int) {
		var bx, by, bxy, bxx, byy float64
		for i := lo; i < hi; i++ {
			xv, yv := x[i], y[i]
			bx += xv
			by += yv
			bxy += xv * yv
			bxx += xv * xv
			byy += yv * yv
		}
		px[block], py[block], pxy[block], pxx[block], pyy[block] = bx, by, bxy, bxx, byy
	})
	return kahanSum(px), kahanSum(py), kahanSum(pxy), kahanSum(pxx), kahanSum(pyy)
}
