// Package kernels implements the device-side parallel primitives used by the
// accelerated analytics engine: reductions, histograms, a bitonic sorting
// network, grouped accumulators and elementwise transforms.
//
// Kernels follow a grid/block execution model: the input is divided into
// fixed-size blocks, one goroutine executes each block, and per-block partial
// results are combined either through a deterministic compensated pass or
// through atomic compare-and-swap on float bit patterns, depending on what the
// primitive requires. Every kernel is a pure, stateless transform over its
// input slices.
package kernels

import (
	"math"
	"sync"
	"sync/atomic"
)

// DefaultBlockSize is the number of elements processed by one block.
const DefaultBlockSize = 256

// Grid describes the launch geometry for a kernel.
type Grid struct {
	// BlockSize is the number of elements per block. Values < 2 fall back
	// to DefaultBlockSize.
	BlockSize int
}

// DefaultGrid returns the default launch geometry.
func DefaultGrid() Grid {
	return Grid{BlockSize: DefaultBlockSize}
}

func (g Grid) blockSize() int {
	if g.BlockSize < 2 {
		return DefaultBlockSize
	}
	return g.BlockSize
}

// forEachBlock runs fn once per block covering [0, n), one goroutine per
// block, and waits for all blocks to finish. fn receives the block index and
// the half-open element range assigned to it.
func (g Grid) forEachBlock(n int, fn func(block, lo, hi int)) {
	bs := g.blockSize()
	blocks := (n + bs - 1) / bs
	if blocks <= 1 {
		if n > 0 {
			fn(0, 0, n)
		}
		return
	}

	var wg sync.WaitGroup
	for b := 0; b < blocks; b++ {
		lo := b * bs
		hi := lo + bs
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(block, lo, hi int) {
			defer wg.Done()
			fn(block, lo, hi)
		}(b, lo, hi)
	}
	wg.Wait()
}

// numBlocks reports how many blocks cover n elements.
func (g Grid) numBlocks(n int) int {
	bs := g.blockSize()
	return (n + bs - 1) / bs
}

const signMask = uint64(1) << 63

// SortableBits maps a float64 to an unsigned integer whose natural ordering
// matches the float ordering, including across the negative/positive
// boundary: non-negative values get the sign bit set, negative values are
// bitwise inverted. Required because atomic compare-and-swap operates on
// integers, not floats. Not defined for NaN inputs.
func SortableBits(f float64) uint64 {
	b := math.Float64bits(f)
	if b&signMask != 0 {
		return ^b
	}
	return b | signMask
}

// FromSortableBits inverts SortableBits.
func FromSortableBits(u uint64) float64 {
	if u&signMask != 0 {
		return math.Float64frombits(u &^ signMask)
	}
	return math.Float64frombits(^u)
}

// atomicMinBits lowers *addr to enc if enc encodes a smaller float.
func atomicMinBits(addr *uint64, enc uint64) {
	for {
		old := atomic.LoadUint64(addr)
		if enc >= old {
			return
		}
		if atomic.CompareAndSwapUint64(addr, old, enc) {
			return
		}
	}
}

// atomicMaxBits raises *addr to enc if enc encodes a larger float.
func atomicMaxBits(addr *uint64, enc uint64) {
	for {
		old := atomic.LoadUint64(addr)
		if enc <= old {
			return
		}
		if atomic.CompareAndSwapUint64(addr, old, enc) {
			return
		}
	}
}

// atomicAddFloat adds delta to the float64 stored as bits at addr.
func atomicAddFloat(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		nw := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, nw) {
			return
		}
	}
}

// kahanSum combines partial sums with compensated summation. Block partials
// are combined on a single thread so the result is deterministic for a given
// grid geometry.
func kahanSum(partials []float64) float64 {
	var sum, comp float64
	for _, p := range partials {
		y := p - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}
