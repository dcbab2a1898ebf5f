package kernels

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func almostEqual(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) != math.IsNaN(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	diff := math.Abs(got - want)
	scale := math.Max(math.Abs(got), math.Abs(want))
	if scale > 1 {
		diff /= scale
	}
	if diff > tol {
		t.Fatalf("got %v, want %v (rel diff %v)", got, want, diff)
	}
}

func TestSortableBitsMonotonic(t *testing.T) {
	values := []float64{
		math.Inf(-1), -1e300, -12345.678, -1.0, -1e-300, math.Copysign(0, -1),
		0, 1e-300, 1.0, 12345.678, 1e300, math.Inf(1),
	}
	for i := 1; i < len(values); i++ {
		a, b := SortableBits(values[i-1]), SortableBits(values[i])
		if a > b {
			t.Errorf("encoding not monotonic: enc(%v)=%d > enc(%v)=%d",
				values[i-1], a, values[i], b)
		}
	}
	for _, v := range values {
		back := FromSortableBits(SortableBits(v))
		if back != v && !(v == 0 && back == 0) {
			t.Errorf("round trip of %v gave %v", v, back)
		}
	}
}

func TestReduceSum(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"small", []float64{1, 2, 3, 4, 5}, 15},
		{"negatives", []float64{-3, 1, -4, 1, -5}, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			almostEqual(t, ReduceSum(DefaultGrid(), tt.data), tt.want, 1e-12)
		})
	}
}

func TestReduceSumLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]float64, 100_003)
	var want float64
	for i := range data {
		data[i] = rng.NormFloat64() * 50000
		want += data[i]
	}
	almostEqual(t, ReduceSum(Grid{BlockSize: 64}, data), want, 1e-9)
}

func TestReduceMinMax(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		min, max float64
	}{
		{"small", []float64{3, 1, 4, 1, 5}, 1, 5},
		{"negatives", []float64{-3, -1, -4, -1, -5}, -5, -1},
		{"mixed", []float64{-2.5, 0, 7.25, -10, 3}, -10, 7.25},
		{"single", []float64{-0.5}, -0.5, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ReduceMinMax(Grid{BlockSize: 2}, tt.data)
			if min != tt.min || max != tt.max {
				t.Fatalf("got (%v, %v), want (%v, %v)", min, max, tt.min, tt.max)
			}
		})
	}
}

func TestVarianceTwoPass(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	g := DefaultGrid()
	mean := ReduceSum(g, data) / float64(len(data))
	variance := SquaredDeviations(g, data, mean) / float64(len(data))
	almostEqual(t, variance, 2.0, 1e-12)
	almostEqual(t, math.Sqrt(variance), 1.4142135623, 1e-9)
}

func TestCentralMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := make([]float64, 10_000)
	for i := range data {
		data[i] = rng.Float64()*200 - 100
	}
	g := Grid{BlockSize: 128}
	mean := ReduceSum(g, data) / float64(len(data))

	var w2, w3, w4 float64
	for _, v := range data {
		d := v - mean
		w2 += d * d
		w3 += d * d * d
		w4 += d * d * d * d
	}
	m2, m3, m4 := CentralMoments(g, data, mean)
	almostEqual(t, m2, w2, 1e-9)
	almostEqual(t, m3, w3, 1e-9)
	almostEqual(t, m4, w4, 1e-9)
}

func TestCorrelationSums(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{2, 4, 6}
	sx, sy, sxy, sxx, syy := CorrelationSums(Grid{BlockSize: 2}, x, y)
	almostEqual(t, sx, 6, 1e-12)
	almostEqual(t, sy, 12, 1e-12)
	almostEqual(t, sxy, 28, 1e-12)
	almostEqual(t, sxx, 14, 1e-12)
	almostEqual(t, syy, 56, 1e-12)
}

func TestBitonicSort(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 64, 100, 1023, 4096}
	rng := rand.New(rand.NewSource(1))
	for _, n := range sizes {
		data := make([]float64, n)
		for i := range data {
			data[i] = math.Floor(rng.NormFloat64() * 10) // negatives + duplicates
		}
		want := append([]float64(nil), data...)
		sort.Float64s(want)

		got := BitonicSort(Grid{BlockSize: 32}, data)
		if len(got) != n {
			t.Fatalf("n=%d: got %d elements", n, len(got))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("n=%d: mismatch at %d: got %v, want %v", n, i, got[i], want[i])
			}
		}
	}
}

func TestHistogram(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i)
	}
	counts := Histogram(Grid{BlockSize: 64}, data, 0, 999, 10)
	var total uint64
	for _, c := range counts {
		total += c
	}
	if total != 1000 {
		t.Fatalf("histogram total = %d, want 1000", total)
	}

	// Quantile estimate must land within one bucket width of the exact value.
	width := 999.0 / 10
	for _, q := range []float64{0.25, 0.5, 0.75, 0.99} {
		got := HistogramQuantile(counts, 0, 999, total, q)
		exact := q * 999
		if math.Abs(got-exact) > width {
			t.Errorf("q=%v: estimate %v beyond bucket width of exact %v", q, got, exact)
		}
	}
}

func TestGroupedAggregate(t *testing.T) {
	keys := []int{0, 1, 0, 2, 1, 0}
	values := []float64{10, 20, 30, 40, 50, -5}
	acc := GroupedAggregate(Grid{BlockSize: 2}, keys, values, 3)

	if acc.Counts[0] != 3 || acc.Counts[1] != 2 || acc.Counts[2] != 1 {
		t.Fatalf("counts = %v", acc.Counts)
	}
	almostEqual(t, acc.Sum(0), 35, 1e-12)
	almostEqual(t, acc.Sum(1), 70, 1e-12)
	almostEqual(t, acc.Sum(2), 40, 1e-12)
	if acc.Min(0) != -5 || acc.Max(0) != 30 {
		t.Fatalf("group 0 min/max = %v/%v", acc.Min(0), acc.Max(0))
	}

	// Per-group sums must total the plain sum.
	groupTotal := acc.Sum(0) + acc.Sum(1) + acc.Sum(2)
	almostEqual(t, groupTotal, ReduceSum(DefaultGrid(), values), 1e-12)
}

func TestGrowthRate(t *testing.T) {
	curr := []float64{110, 90, 50, 10}
	prev := []float64{100, 100, 0, -5}
	got := GrowthRate(DefaultGrid(), curr, prev)
	want := []float64{10, -10, 0, 0}
	for i := range want {
		almostEqual(t, got[i], want[i], 1e-12)
	}
}

func TestBoundsFlags(t *testing.T) {
	data := []float64{1, 5, 10, 50, -20}
	got := BoundsFlags(DefaultGrid(), data, 0, 20)
	want := []bool{false, false, false, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flag[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestZScoreFlagsConstantSeries(t *testing.T) {
	data := []float64{4, 4, 4, 4}
	got := ZScoreFlags(DefaultGrid(), data, 4, 0, 3)
	for i, f := range got {
		if f {
			t.Errorf("constant series flagged outlier at %d", i)
		}
	}
}

func TestMovingAverageValid(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := MovingAverageValid(Grid{BlockSize: 4}, data, 3)
	want := []float64{2, 3, 4, 5, 6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		almostEqual(t, got[i], want[i], 1e-12)
	}

	// window=1 is the identity.
	id := MovingAverageValid(DefaultGrid(), data, 1)
	for i := range data {
		if id[i] != data[i] {
			t.Fatalf("window=1 not identity at %d", i)
		}
	}
}

func TestMovingAverageCentered(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	got := MovingAverageCentered(DefaultGrid(), data, 3)
	want := []float64{1.5, 2, 3, 4, 4.5} // windows clamp at both edges
	if len(got) != len(data) {
		t.Fatalf("got %d values, want %d", len(got), len(data))
	}
	for i := range want {
		almostEqual(t, got[i], want[i], 1e-12)
	}
}
