package parstat

// Mode identifies which backend produced a result.
type Mode string

const (
	// ModeGPU marks a result computed on the accelerator device.
	ModeGPU Mode = "GPU"
	// ModeCPU marks a result computed on the host reference path.
	ModeCPU Mode = "CPU"
)

// StatisticsResult holds distribution statistics over one series.
type StatisticsResult struct {
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess kurtosis

	// Percentiles maps point labels ("p25", "p99") to values.
	Percentiles map[string]float64 `json:"percentiles"`

	// PercentileMethod records which strategy produced the percentiles,
	// so exact and approximate results are never conflated.
	PercentileMethod PercentileStrategy `json:"percentile_method"`

	Mode    Mode   `json:"mode"`
	Warning string `json:"warning,omitempty"`
}

// GroupStats holds the aggregate subset for one group.
type GroupStats struct {
	Group int     `json:"group"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// GroupedResult holds per-group statistics, ordered by group id. Empty
// groups are omitted.
type GroupedResult struct {
	Count   int          `json:"count"`
	Groups  []GroupStats `json:"groups"`
	Mode    Mode         `json:"mode"`
	Warning string       `json:"warning,omitempty"`
}

// AggregateOp selects the aggregate computed by GroupedAggregate.
type AggregateOp int

const (
	AggSum AggregateOp = iota
	AggAvg
	AggMin
	AggMax
	AggCount
)

func (op AggregateOp) String() string {
	names := [...]string{"sum", "avg", "min", "max", "count"}
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}

// GroupedAggregateResult holds one aggregate value per non-empty group.
type GroupedAggregateResult struct {
	Count     int             `json:"count"`
	Aggregate string          `json:"aggregate"`
	Values    map[int]float64 `json:"values"`
	Mode      Mode            `json:"mode"`
	Warning   string          `json:"warning,omitempty"`
}

// OutlierReport holds per-element outlier flags plus the exact method
// parameters used, so results are reproducible without recomputation.
type OutlierReport struct {
	Count   int           `json:"count"`
	Method  OutlierMethod `json:"method"`
	Flags   []bool        `json:"flags"`
	Indices []int         `json:"indices"`
	Values  []float64     `json:"values"`

	// IQR method parameters.
	Q1         float64 `json:"q1,omitempty"`
	Q3         float64 `json:"q3,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	LowerBound float64 `json:"lower_bound,omitempty"`
	UpperBound float64 `json:"upper_bound,omitempty"`

	// Z-score method parameters.
	Mean      float64 `json:"mean,omitempty"`
	StdDev    float64 `json:"std_dev,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`

	Mode    Mode   `json:"mode"`
	Warning string `json:"warning,omitempty"`
}

// CorrelationResult holds the Pearson coefficient plus the five intermediate
// sums it was derived from, retained for auditability.
type CorrelationResult struct {
	Count       int     `json:"count"`
	Coefficient float64 `json:"coefficient"`
	SumX        float64 `json:"sum_x"`
	SumY        float64 `json:"sum_y"`
	SumXY       float64 `json:"sum_xy"`
	SumXX       float64 `json:"sum_xx"`
	SumYY       float64 `json:"sum_yy"`
	Mode        Mode    `json:"mode"`
	Warning     string  `json:"warning,omitempty"`
}

// MovingAverageResult holds a smoothed series.
type MovingAverageResult struct {
	Count    int       `json:"count"`
	Window   int       `json:"window"`
	Centered bool      `json:"centered"`
	Values   []float64 `json:"values"`
	Mode     Mode      `json:"mode"`
	Warning  string    `json:"warning,omitempty"`
}

// GrowthResult holds elementwise percentage change between two series.
type GrowthResult struct {
	Count   int       `json:"count"`
	Values  []float64 `json:"values"`
	Mode    Mode      `json:"mode"`
	Warning string    `json:"warning,omitempty"`
}

// HistogramResult holds equal-width bucket counts over a series.
type HistogramResult struct {
	Count   int       `json:"count"`
	Bins    int       `json:"bins"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Edges   []float64 `json:"edges"` // len Bins+1
	Counts  []uint64  `json:"counts"`
	Mode    Mode      `json:"mode"`
	Warning string    `json:"warning,omitempty"`
}

// Snapshot reports engine health and backend counters. For benchmark and
// health reporting only; not used for correctness.
type Snapshot struct {
	DeviceState       string           `json:"device_state"`
	DeviceName        string           `json:"device_name,omitempty"`
	DeviceMemoryTotal int64            `json:"device_memory_total,omitempty"`
	PoolCapacity      int64            `json:"pool_capacity,omitempty"`
	PoolInUse         int64            `json:"pool_in_use,omitempty"`
	DeviceOps         int64            `json:"device_ops"`
	HostOps           int64            `json:"host_ops"`
	Fallbacks         int64            `json:"fallbacks"`
	PoolFallbacks     int64            `json:"pool_fallbacks"`
	FailureStreak     int              `json:"failure_streak"`
	OperationCounts   map[string]int64 `json:"operation_counts"`
}
