package parstat

import (
	"fmt"
	"math"

	"github.com/parstat-io/parstat/internal/hostcalc"
	"github.com/parstat-io/parstat/internal/kernels"
)

// DetectOutliers flags outlying elements using either the IQR fences
// (Q1 - k·IQR, Q3 + k·IQR) or a z-score threshold. The report carries the
// exact parameters used so it is reproducible without recomputation.
func (e *Engine) DetectOutliers(series []float64, method OutlierMethod) (*OutlierReport, error) {
	if len(series) == 0 {
		return nil, inputError(OpOutliers, ErrEmptySeries, "outlier detection requires a non-empty series")
	}
	if method == "" {
		method = OutlierIQR
	}
	switch method {
	case OutlierIQR, OutlierZScore:
	default:
		return nil, newComputeError(ComputeErrorTypeInput, OpOutliers,
			fmt.Sprintf("unknown outlier method %q", method), nil)
	}
	out, mode, warning, err := e.execute(OpOutliers, &opRequest{data: series, method: method})
	if err != nil {
		return nil, err
	}
	res := out.(*OutlierReport)
	res.Mode = mode
	res.Warning = warning
	return res, nil
}

func outliersDevice(e *Engine, req *opRequest) (any, error) {
	data := req.data
	buf, err := e.pool.Acquire(len(data))
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(buf)
	buf.CopyToDevice(data)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpOutliers, "kernel launch failed", err)
	}

	g := e.device.Grid()
	dev := buf.Floats()[:len(data)]

	if req.method == OutlierZScore {
		mean := kernels.ReduceSum(g, dev) / float64(len(data))
		std := math.Sqrt(kernels.SquaredDeviations(g, dev, mean) / float64(len(data)))
		flags := kernels.ZScoreFlags(g, dev, mean, std, e.cfg.Outlier.ZScoreThreshold)
		return buildZScoreReport(data, flags, mean, std, e.cfg.Outlier.ZScoreThreshold), nil
	}

	sorted := kernels.BitonicSort(g, dev)
	q1 := hostcalc.Quantile(sorted, 25)
	q3 := hostcalc.Quantile(sorted, 75)
	k := e.cfg.Outlier.IQRMultiplier
	lower := q1 - k*(q3-q1)
	upper := q3 + k*(q3-q1)
	flags := kernels.BoundsFlags(g, dev, lower, upper)
	return buildIQRReport(data, flags, q1, q3, k, lower, upper), nil
}

func outliersHost(e *Engine, req *opRequest) (any, error) {
	data := req.data

	if req.method == OutlierZScore {
		mean := e.host.Mean(data)
		std := e.host.PopStdDev(data)
		flags := e.host.ZScoreFlags(data, mean, std, e.cfg.Outlier.ZScoreThreshold)
		return buildZScoreReport(data, flags, mean, std, e.cfg.Outlier.ZScoreThreshold), nil
	}

	sorted := hostcalc.SortedCopy(data)
	q1 := hostcalc.Quantile(sorted, 25)
	q3 := hostcalc.Quantile(sorted, 75)
	k := e.cfg.Outlier.IQRMultiplier
	lower := q1 - k*(q3-q1)
	upper := q3 + k*(q3-q1)
	flags := e.host.BoundsFlags(data, lower, upper)
	return buildIQRReport(data, flags, q1, q3, k, lower, upper), nil
}

func buildIQRReport(data []float64, flags []bool, q1, q3, k, lower, upper float64) *OutlierReport {
	res := &OutlierReport{
		Count:      len(data),
		Method:     OutlierIQR,
		Flags:      flags,
		Q1:         q1,
		Q3:         q3,
		Multiplier: k,
		LowerBound: lower,
		UpperBound: upper,
	}
	collectFlagged(res, data)
	return res
}

func buildZScoreReport(data []float64, flags []bool, mean, std, threshold float64) *OutlierReport {
	res := &OutlierReport{
		Count:     len(data),
		Method:    OutlierZScore,
		Flags:     flags,
		Mean:      mean,
		StdDev:    std,
		Threshold: threshold,
	}
	collectFlagged(res, data)
	return res
}

func collectFlagged(res *OutlierReport, data []float64) {
	for i, f := range res.Flags {
		if f {
			res.Indices = append(res.Indices, i)
			res.Values = append(res.Values, data[i])
		}
	}
}
