package parstat

import (
	"fmt"

	"github.com/parstat-io/parstat/internal/kernels"
)

// MovingAverage smooths a series with a trailing window over full windows
// only, producing len(series)-window+1 values. The window must satisfy
// 0 < window <= len(series).
func (e *Engine) MovingAverage(series []float64, window int) (*MovingAverageResult, error) {
	return e.movingAverage(series, window, false)
}

// CenteredMovingAverage smooths a series with a window centered on each
// index and clamped at the boundaries, producing len(series) values.
func (e *Engine) CenteredMovingAverage(series []float64, window int) (*MovingAverageResult, error) {
	return e.movingAverage(series, window, true)
}

func (e *Engine) movingAverage(series []float64, window int, centered bool) (*MovingAverageResult, error) {
	if len(series) == 0 {
		return nil, inputError(OpMovingAverage, ErrEmptySeries, "moving average requires a non-empty series")
	}
	if window < 1 || window > len(series) {
		return nil, inputError(OpMovingAverage, ErrInvalidWindow,
			fmt.Sprintf("window %d for series of %d", window, len(series)))
	}
	out, mode, warning, err := e.execute(OpMovingAverage, &opRequest{
		data:     series,
		window:   window,
		centered: centered,
	})
	if err != nil {
		return nil, err
	}
	values := out.([]float64)
	return &MovingAverageResult{
		Count:    len(values),
		Window:   window,
		Centered: centered,
		Values:   values,
		Mode:     mode,
		Warning:  warning,
	}, nil
}

func movingAverageDevice(e *Engine, req *opRequest) (any, error) {
	buf, err := e.pool.Acquire(len(req.data))
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(buf)
	buf.CopyToDevice(req.data)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpMovingAverage, "kernel launch failed", err)
	}
	dev := buf.Floats()[:len(req.data)]
	g := e.device.Grid()
	if req.centered {
		return kernels.MovingAverageCentered(g, dev, req.window), nil
	}
	return kernels.MovingAverageValid(g, dev, req.window), nil
}

func movingAverageHost(e *Engine, req *opRequest) (any, error) {
	if req.centered {
		return e.host.MovingAverageCentered(req.data, req.window), nil
	}
	return e.host.MovingAverageValid(req.data, req.window), nil
}

// GrowthRate computes elementwise percentage change between two equal-length
// series. Growth is 0 wherever the previous value is <= 0; the operation
// never raises a division error.
func (e *Engine) GrowthRate(current, previous []float64) (*GrowthResult, error) {
	if len(current) == 0 || len(previous) == 0 {
		return nil, inputError(OpGrowthRate, ErrEmptySeries, "growth rate requires non-empty series")
	}
	if len(current) != len(previous) {
		return nil, inputError(OpGrowthRate, ErrLengthMismatch,
			fmt.Sprintf("%d vs %d elements", len(current), len(previous)))
	}
	out, mode, warning, err := e.execute(OpGrowthRate, &opRequest{data: current, aux: previous})
	if err != nil {
		return nil, err
	}
	values := out.([]float64)
	return &GrowthResult{
		Count:   len(values),
		Values:  values,
		Mode:    mode,
		Warning: warning,
	}, nil
}

func growthRateDevice(e *Engine, req *opRequest) (any, error) {
	n := len(req.data)
	bufCurr, err := e.pool.Acquire(n)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(bufCurr)
	bufPrev, err := e.pool.Acquire(n)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(bufPrev)

	bufCurr.CopyToDevice(req.data)
	bufPrev.CopyToDevice(req.aux)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpGrowthRate, "kernel launch failed", err)
	}
	return kernels.GrowthRate(e.device.Grid(), bufCurr.Floats()[:n], bufPrev.Floats()[:n]), nil
}

func growthRateHost(e *Engine, req *opRequest) (any, error) {
	return e.host.GrowthRate(req.data, req.aux), nil
}
