package parstat

import (
	"fmt"

	"github.com/parstat-io/parstat/internal/kernels"
)

// Histogram counts a series into bins equal-width buckets spanning
// [min, max] of the data. The result carries the bucket edges so callers
// can render or re-derive quantiles without the raw series.
func (e *Engine) Histogram(series []float64, bins int) (*HistogramResult, error) {
	if len(series) == 0 {
		return nil, inputError(OpHistogram, ErrEmptySeries, "histogram requires a non-empty series")
	}
	if bins < 1 {
		return nil, newComputeError(ComputeErrorTypeInput, OpHistogram,
			fmt.Sprintf("bin count %d below 1", bins), nil)
	}
	out, mode, warning, err := e.execute(OpHistogram, &opRequest{data: series, bins: bins})
	if err != nil {
		return nil, err
	}
	res := out.(*HistogramResult)
	res.Mode = mode
	res.Warning = warning
	return res, nil
}

func histogramDevice(e *Engine, req *opRequest) (any, error) {
	buf, err := e.pool.Acquire(len(req.data))
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(buf)
	buf.CopyToDevice(req.data)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpHistogram, "kernel launch failed", err)
	}
	g := e.device.Grid()
	dev := buf.Floats()[:len(req.data)]
	min, max := kernels.ReduceMinMax(g, dev)
	counts := kernels.Histogram(g, dev, min, max, req.bins)
	return buildHistogramResult(len(req.data), req.bins, min, max, counts), nil
}

func histogramHost(e *Engine, req *opRequest) (any, error) {
	min, max := e.host.MinMax(req.data)
	counts := e.host.Histogram(req.data, min, max, req.bins)
	return buildHistogramResult(len(req.data), req.bins, min, max, counts), nil
}

func buildHistogramResult(count, bins int, min, max float64, counts []uint64) *HistogramResult {
	edges := make([]float64, bins+1)
	width := (max - min) / float64(bins)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[bins] = max
	return &HistogramResult{
		Count:  count,
		Bins:   bins,
		Min:    min,
		Max:    max,
		Edges:  edges,
		Counts: counts,
	}
}
