package parstat

import (
	"fmt"
	"math"

	"github.com/parstat-io/parstat/internal/hostcalc"
	"github.com/parstat-io/parstat/internal/kernels"
)

// Statistics computes count, sum, mean, population variance and standard
// deviation, min, max, median, skewness, excess kurtosis and the configured
// percentile set over one series. The percentile strategy actually used is
// recorded in the result.
func (e *Engine) Statistics(series []float64) (*StatisticsResult, error) {
	if len(series) == 0 {
		return nil, inputError(OpStatistics, ErrEmptySeries, "statistics requires a non-empty series")
	}
	out, mode, warning, err := e.execute(OpStatistics, &opRequest{data: series})
	if err != nil {
		return nil, err
	}
	res := out.(*StatisticsResult)
	res.Mode = mode
	res.Warning = warning
	return res, nil
}

func statisticsDevice(e *Engine, req *opRequest) (any, error) {
	data := req.data
	buf, err := e.pool.Acquire(len(data))
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(buf)
	buf.CopyToDevice(data)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpStatistics, "kernel launch failed", err)
	}

	g := e.device.Grid()
	dev := buf.Floats()[:len(data)]
	sum := kernels.ReduceSum(g, dev)
	mean := sum / float64(len(data))
	min, max := kernels.ReduceMinMax(g, dev)
	m2, m3, m4 := kernels.CentralMoments(g, dev, mean)
	res := newStatisticsResult(len(data), sum, mean, min, max, m2, m3, m4)

	switch e.cfg.Percentile.Strategy {
	case PercentileHistogram:
		counts := kernels.Histogram(g, dev, min, max, e.cfg.Percentile.HistogramBins)
		fillHistogramPercentiles(res, counts, min, max, e.cfg.Percentile.Points)
	default:
		sorted := kernels.BitonicSort(g, dev)
		fillExactPercentiles(res, sorted, e.cfg.Percentile.Points)
	}
	res.PercentileMethod = e.cfg.Percentile.Strategy
	return res, nil
}

func statisticsHost(e *Engine, req *opRequest) (any, error) {
	data := req.data
	sum := e.host.Sum(data)
	mean := sum / float64(len(data))
	min, max := e.host.MinMax(data)
	m2, m3, m4 := e.host.CentralMoments(data, mean)
	res := newStatisticsResult(len(data), sum, mean, min, max, m2, m3, m4)

	switch e.cfg.Percentile.Strategy {
	case PercentileHistogram:
		counts := e.host.Histogram(data, min, max, e.cfg.Percentile.HistogramBins)
		fillHistogramPercentiles(res, counts, min, max, e.cfg.Percentile.Points)
	default:
		sorted := hostcalc.SortedCopy(data)
		fillExactPercentiles(res, sorted, e.cfg.Percentile.Points)
	}
	res.PercentileMethod = e.cfg.Percentile.Strategy
	return res, nil
}

// newStatisticsResult derives the moment-based statistics shared by both
// backends from the raw central moment sums.
func newStatisticsResult(count int, sum, mean, min, max, m2, m3, m4 float64) *StatisticsResult {
	n := float64(count)
	variance := m2 / n
	std := math.Sqrt(variance)
	res := &StatisticsResult{
		Count:    count,
		Sum:      sum,
		Mean:     mean,
		Variance: variance,
		StdDev:   std,
		Min:      min,
		Max:      max,
	}
	// A constant series has zero spread; skewness and kurtosis stay 0
	// rather than dividing by zero.
	if std > 0 {
		res.Skewness = (m3 / n) / (std * std * std)
		res.Kurtosis = (m4/n)/(variance*variance) - 3
	}
	return res
}

func percentileLabel(p float64) string {
	return fmt.Sprintf("p%g", p)
}

// fillExactPercentiles derives percentiles by direct indexing into the
// sorted series. Both backends call the same interpolation helper, so exact
// percentiles are identical across modes.
func fillExactPercentiles(res *StatisticsResult, sorted []float64, points []float64) {
	res.Median = hostcalc.Quantile(sorted, 50)
	res.Percentiles = make(map[string]float64, len(points))
	for _, p := range points {
		res.Percentiles[percentileLabel(p)] = hostcalc.Quantile(sorted, p)
	}
}

// fillHistogramPercentiles derives approximate percentiles from cumulative
// bucket counts; error is bounded by one bucket width.
func fillHistogramPercentiles(res *StatisticsResult, counts []uint64, min, max float64, points []float64) {
	total := uint64(res.Count)
	res.Median = kernels.HistogramQuantile(counts, min, max, total, 0.5)
	res.Percentiles = make(map[string]float64, len(points))
	for _, p := range points {
		res.Percentiles[percentileLabel(p)] = kernels.HistogramQuantile(counts, min, max, total, p/100)
	}
}
