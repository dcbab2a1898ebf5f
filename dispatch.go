package parstat

import (
	"errors"
	"fmt"
)

// Operation identifies a logical statistics operation.
type Operation int

const (
	OpStatistics Operation = iota
	OpGroupedStatistics
	OpGroupedAggregate
	OpOutliers
	OpCorrelation
	OpMovingAverage
	OpGrowthRate
	OpHistogram
)

func (op Operation) String() string {
	names := [...]string{
		"statistics", "grouped_statistics", "grouped_aggregate", "outliers",
		"correlation", "moving_average", "growth_rate", "histogram",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}

// operations lists every dispatchable operation, in declaration order.
var operations = []Operation{
	OpStatistics, OpGroupedStatistics, OpGroupedAggregate, OpOutliers,
	OpCorrelation, OpMovingAverage, OpGrowthRate, OpHistogram,
}

// opRequest carries the validated inputs of one call through dispatch.
type opRequest struct {
	data []float64 // primary series
	aux  []float64 // second series (correlation y, growth-rate previous)

	keys   []int // grouped operations
	groups int

	window   int
	centered bool

	agg    AggregateOp
	method OutlierMethod
	bins   int
}

// opImpl pairs the device and host implementations of one operation. Both
// halves share identical semantics so a fallback is invisible to the caller.
type opImpl struct {
	device func(e *Engine, req *opRequest) (any, error)
	host   func(e *Engine, req *opRequest) (any, error)
}

// buildDispatch constructs the operation dispatch table.
func buildDispatch() map[Operation]opImpl {
	return map[Operation]opImpl{
		OpStatistics:        {device: statisticsDevice, host: statisticsHost},
		OpGroupedStatistics: {device: groupedStatisticsDevice, host: groupedStatisticsHost},
		OpGroupedAggregate:  {device: groupedAggregateDevice, host: groupedAggregateHost},
		OpOutliers:          {device: outliersDevice, host: outliersHost},
		OpCorrelation:       {device: correlationDevice, host: correlationHost},
		OpMovingAverage:     {device: movingAverageDevice, host: movingAverageHost},
		OpGrowthRate:        {device: growthRateDevice, host: growthRateHost},
		OpHistogram:         {device: histogramDevice, host: histogramHost},
	}
}

// checkDispatch verifies every operation has both a device and a host
// implementation. A missing half is a programming error; catching it at
// construction guarantees no operation can exist on one backend only.
func checkDispatch(table map[Operation]opImpl) error {
	for _, op := range operations {
		impl, ok := table[op]
		if !ok {
			return fmt.Errorf("dispatch table missing operation %s", op)
		}
		if impl.device == nil || impl.host == nil {
			return fmt.Errorf("dispatch table incomplete for %s", op)
		}
	}
	return nil
}

// execute runs one dispatched operation, choosing the backend and handling
// fallback. The returned warning is non-empty only when a device failure was
// recovered on the host path.
func (e *Engine) execute(op Operation, req *opRequest) (out any, mode Mode, warning string, err error) {
	impl := e.dispatch[op]

	if e.useDevice(len(req.data)) {
		out, err = impl.device(e, req)
		if err == nil {
			e.recordSuccess(op, ModeGPU)
			return out, ModeGPU, "", nil
		}
		if errors.Is(err, ErrPoolExhausted) {
			// Oversized request, not a device fault. Route to the host
			// path without marking the device suspect.
			e.poolFallbacks.Add(1)
			e.log.Debug("buffer pool exhausted, using host path",
				"op", op.String(), "n", len(req.data))
		} else {
			warning = fmt.Sprintf("device failure, recovered on CPU: %v", err)
			e.recordDeviceFailure(op, err)
		}
		e.fallbacks.Add(1)
	}

	out, err = impl.host(e, req)
	if err != nil {
		return nil, ModeCPU, "", err
	}
	e.recordSuccess(op, ModeCPU)
	return out, ModeCPU, warning, nil
}
