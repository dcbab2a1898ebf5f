package parstat

import (
	"fmt"
	"math"

	"github.com/parstat-io/parstat/internal/kernels"
)

// correlationSums carries the five raw Pearson sums from either backend.
type correlationSums struct {
	sx, sy, sxy, sxx, syy float64
}

// Correlation computes the Pearson coefficient between two equal-length
// series from five multiplexed sums, which are retained on the result. A
// zero-variance input is rejected with ErrComputation rather than silently
// producing NaN.
func (e *Engine) Correlation(x, y []float64) (*CorrelationResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, inputError(OpCorrelation, ErrEmptySeries, "correlation requires non-empty series")
	}
	if len(x) != len(y) {
		return nil, inputError(OpCorrelation, ErrLengthMismatch,
			fmt.Sprintf("%d vs %d elements", len(x), len(y)))
	}
	out, mode, warning, err := e.execute(OpCorrelation, &opRequest{data: x, aux: y})
	if err != nil {
		return nil, err
	}
	sums := out.(*correlationSums)

	// Closed-form Pearson coefficient, derived on the host after the
	// reduction pass.
	n := float64(len(x))
	varX := n*sums.sxx - sums.sx*sums.sx
	varY := n*sums.syy - sums.sy*sums.sy
	if varX <= 0 || varY <= 0 {
		return nil, newComputeError(ComputeErrorTypeComputation, OpCorrelation,
			"correlation undefined for zero-variance series", ErrComputation)
	}
	r := (n*sums.sxy - sums.sx*sums.sy) / (math.Sqrt(varX) * math.Sqrt(varY))

	return &CorrelationResult{
		Count:       len(x),
		Coefficient: r,
		SumX:        sums.sx,
		SumY:        sums.sy,
		SumXY:       sums.sxy,
		SumXX:       sums.sxx,
		SumYY:       sums.syy,
		Mode:        mode,
		Warning:     warning,
	}, nil
}

func correlationDevice(e *Engine, req *opRequest) (any, error) {
	n := len(req.data)
	bufX, err := e.pool.Acquire(n)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(bufX)
	bufY, err := e.pool.Acquire(n)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(bufY)

	bufX.CopyToDevice(req.data)
	bufY.CopyToDevice(req.aux)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, OpCorrelation, "kernel launch failed", err)
	}

	sums := &correlationSums{}
	sums.sx, sums.sy, sums.sxy, sums.sxx, sums.syy = kernels.CorrelationSums(
		e.device.Grid(), bufX.Floats()[:n], bufY.Floats()[:n])
	return sums, nil
}

func correlationHost(e *Engine, req *opRequest) (any, error) {
	sums := &correlationSums{}
	sums.sx, sums.sy, sums.sxy, sums.sxx, sums.syy = e.host.CorrelationSums(req.data, req.aux)
	return sums, nil
}
