package parstat

import (
	"fmt"

	"github.com/parstat-io/parstat/internal/kernels"
)

// groupAccum is the common view over the device and host per-group
// accumulators.
type groupAccum interface {
	Count(id int) uint64
	Sum(id int) float64
	Min(id int) float64
	Max(id int) float64
}

// GroupedStatistics computes count, sum, mean, min and max per group.
// keys[i] assigns values[i] to a group; the group-id space is bounded, so
// every key must satisfy 0 <= key < MaxGroups.
func (e *Engine) GroupedStatistics(keys []int, values []float64) (*GroupedResult, error) {
	groups, err := e.validateGrouped(OpGroupedStatistics, keys, values)
	if err != nil {
		return nil, err
	}
	out, mode, warning, err := e.execute(OpGroupedStatistics, &opRequest{
		data:   values,
		keys:   keys,
		groups: groups,
	})
	if err != nil {
		return nil, err
	}
	res := out.(*GroupedResult)
	res.Mode = mode
	res.Warning = warning
	return res, nil
}

// GroupedAggregate computes a single aggregate (sum, avg, min, max or count)
// per group.
func (e *Engine) GroupedAggregate(keys []int, values []float64, agg AggregateOp) (*GroupedAggregateResult, error) {
	groups, err := e.validateGrouped(OpGroupedAggregate, keys, values)
	if err != nil {
		return nil, err
	}
	if agg < AggSum || agg > AggCount {
		return nil, newComputeError(ComputeErrorTypeInput, OpGroupedAggregate,
			fmt.Sprintf("unknown aggregate %d", agg), nil)
	}
	out, mode, warning, err := e.execute(OpGroupedAggregate, &opRequest{
		data:   values,
		keys:   keys,
		groups: groups,
		agg:    agg,
	})
	if err != nil {
		return nil, err
	}
	res := out.(*GroupedAggregateResult)
	res.Mode = mode
	res.Warning = warning
	return res, nil
}

// validateGrouped checks shape and the bounded group-id space, returning the
// number of groups to dispatch with.
func (e *Engine) validateGrouped(op Operation, keys []int, values []float64) (int, error) {
	if len(values) == 0 {
		return 0, inputError(op, ErrEmptySeries, "grouped operation requires a non-empty series")
	}
	if len(keys) != len(values) {
		return 0, inputError(op, ErrLengthMismatch,
			fmt.Sprintf("%d keys vs %d values", len(keys), len(values)))
	}
	groups := 0
	for i, k := range keys {
		if k < 0 || k >= e.cfg.MaxGroups {
			return 0, inputError(op, ErrInvalidGroupKey,
				fmt.Sprintf("key %d at index %d outside [0, %d)", k, i, e.cfg.MaxGroups))
		}
		if k+1 > groups {
			groups = k + 1
		}
	}
	return groups, nil
}

func groupedStatisticsDevice(e *Engine, req *opRequest) (any, error) {
	acc, err := groupedDeviceAccum(e, OpGroupedStatistics, req)
	if err != nil {
		return nil, err
	}
	return buildGroupedResult(len(req.data), req.groups, acc), nil
}

func groupedStatisticsHost(e *Engine, req *opRequest) (any, error) {
	acc := e.host.GroupedAggregate(req.keys, req.data, req.groups)
	return buildGroupedResult(len(req.data), req.groups, acc), nil
}

func groupedAggregateDevice(e *Engine, req *opRequest) (any, error) {
	acc, err := groupedDeviceAccum(e, OpGroupedAggregate, req)
	if err != nil {
		return nil, err
	}
	return buildGroupedAggregateResult(len(req.data), req.groups, req.agg, acc), nil
}

func groupedAggregateHost(e *Engine, req *opRequest) (any, error) {
	acc := e.host.GroupedAggregate(req.keys, req.data, req.groups)
	return buildGroupedAggregateResult(len(req.data), req.groups, req.agg, acc), nil
}

// groupedDeviceAccum runs the grouped scatter kernel over device-resident
// values. Group keys index the fixed-size accumulators directly.
func groupedDeviceAccum(e *Engine, op Operation, req *opRequest) (*kernels.GroupAccumulators, error) {
	buf, err := e.pool.Acquire(len(req.data))
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(buf)
	buf.CopyToDevice(req.data)
	if err := e.device.launch(); err != nil {
		return nil, newComputeError(ComputeErrorTypeDevice, op, "kernel launch failed", err)
	}
	dev := buf.Floats()[:len(req.data)]
	return kernels.GroupedAggregate(e.device.Grid(), req.keys, dev, req.groups), nil
}

func buildGroupedResult(count, groups int, acc groupAccum) *GroupedResult {
	res := &GroupedResult{Count: count}
	for id := 0; id < groups; id++ {
		n := acc.Count(id)
		if n == 0 {
			continue
		}
		res.Groups = append(res.Groups, GroupStats{
			Group: id,
			Count: int(n),
			Sum:   acc.Sum(id),
			Mean:  acc.Sum(id) / float64(n),
			Min:   acc.Min(id),
			Max:   acc.Max(id),
		})
	}
	return res
}

func buildGroupedAggregateResult(count, groups int, agg AggregateOp, acc groupAccum) *GroupedAggregateResult {
	res := &GroupedAggregateResult{
		Count:     count,
		Aggregate: agg.String(),
		Values:    make(map[int]float64),
	}
	for id := 0; id < groups; id++ {
		n := acc.Count(id)
		if n == 0 {
			continue
		}
		switch agg {
		case AggSum:
			res.Values[id] = acc.Sum(id)
		case AggAvg:
			res.Values[id] = acc.Sum(id) / float64(n)
		case AggMin:
			res.Values[id] = acc.Min(id)
		case AggMax:
			res.Values[id] = acc.Max(id)
		case AggCount:
			res.Values[id] = float64(n)
		}
	}
	return res
}
