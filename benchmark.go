package parstat

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// benchGroups is the group-id space used for synthetic grouped workloads.
const benchGroups = 8

// BenchmarkResult captures one operation benchmarked at one dataset size on
// both backends.
type BenchmarkResult struct {
	Operation string        `json:"operation"`
	DataSize  int           `json:"data_size"`
	GPUTime   time.Duration `json:"gpu_time,omitempty"`
	CPUTime   time.Duration `json:"cpu_time"`
	Speedup   float64       `json:"speedup,omitempty"`

	// Mode is the backend that actually produced the accelerated run;
	// a run may silently fall back to CPU.
	Mode Mode `json:"mode"`
}

// BenchmarkSuite drives synthetic workloads through the façade on two engine
// instances, one forced to each backend, and reports timing and speedup.
// Harness output feeds capacity planning only; it has no bearing on
// correctness.
type BenchmarkSuite struct {
	cfg          Config
	hostEngine   *Engine
	deviceEngine *Engine // nil when the device is disabled

	mu      sync.Mutex
	results []BenchmarkResult
}

// benchmarkOperations lists the operations exercised by RunAll.
var benchmarkOperations = []Operation{
	OpStatistics, OpGroupedStatistics, OpOutliers, OpCorrelation,
	OpMovingAverage, OpGrowthRate, OpHistogram,
}

// NewBenchmarkSuite builds the two backend engines. When cfg disables the
// device, only the host engine exists and results carry no GPU timing.
func NewBenchmarkSuite(cfg Config) (*BenchmarkSuite, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hostCfg := cfg
	hostCfg.Device.Enabled = false
	hostEngine, err := New(hostCfg)
	if err != nil {
		return nil, fmt.Errorf("benchmark: host engine: %w", err)
	}

	bs := &BenchmarkSuite{cfg: cfg, hostEngine: hostEngine}
	if cfg.Device.Enabled {
		devCfg := cfg
		// Benchmark every size on the device, below the dispatch
		// threshold included.
		devCfg.Device.MinSize = 1
		bs.deviceEngine, err = New(devCfg)
		if err != nil {
			return nil, fmt.Errorf("benchmark: device engine: %w", err)
		}
	}
	return bs, nil
}

// Close releases both engines.
func (bs *BenchmarkSuite) Close() error {
	bs.hostEngine.Close()
	if bs.deviceEngine != nil {
		bs.deviceEngine.Close()
	}
	return nil
}

// benchPayload is one synthetic workload.
type benchPayload struct {
	data []float64
	aux  []float64
	keys []int
}

// synthetic generates a reproducible salary-shaped workload.
func (bs *BenchmarkSuite) synthetic(op Operation, size int) benchPayload {
	rng := rand.New(rand.NewSource(bs.cfg.Benchmark.Seed))
	p := benchPayload{data: make([]float64, size)}
	for i := range p.data {
		p.data[i] = rng.NormFloat64()*25000 + 75000
	}
	switch op {
	case OpCorrelation:
		p.aux = make([]float64, size)
		for i := range p.aux {
			p.aux[i] = 1.5*p.data[i] + rng.NormFloat64()*5000
		}
	case OpGrowthRate:
		p.aux = make([]float64, size)
		for i := range p.aux {
			p.aux[i] = p.data[i] * (0.9 + 0.2*rng.Float64())
		}
	case OpGroupedStatistics, OpGroupedAggregate:
		p.keys = make([]int, size)
		for i := range p.keys {
			p.keys[i] = i % benchGroups
		}
	}
	return p
}

// Run benchmarks one operation at one dataset size on both backends.
func (bs *BenchmarkSuite) Run(op Operation, size int) (*BenchmarkResult, error) {
	if size < 1 {
		return nil, fmt.Errorf("benchmark: size %d below 1", size)
	}
	p := bs.synthetic(op, size)

	res := &BenchmarkResult{Operation: op.String(), DataSize: size, Mode: ModeCPU}

	cpu, _, err := bs.time(bs.hostEngine, op, p)
	if err != nil {
		return nil, err
	}
	res.CPUTime = cpu

	if bs.deviceEngine != nil {
		gpu, mode, err := bs.time(bs.deviceEngine, op, p)
		if err != nil {
			return nil, err
		}
		res.GPUTime = gpu
		res.Mode = mode
		if gpu > 0 {
			res.Speedup = float64(cpu) / float64(gpu)
		}
	}

	bs.mu.Lock()
	bs.results = append(bs.results, *res)
	bs.mu.Unlock()
	return res, nil
}

// RunAll benchmarks every operation across the configured sizes.
func (bs *BenchmarkSuite) RunAll() ([]BenchmarkResult, error) {
	var out []BenchmarkResult
	for _, size := range bs.cfg.Benchmark.Sizes {
		for _, op := range benchmarkOperations {
			r, err := bs.Run(op, size)
			if err != nil {
				return nil, fmt.Errorf("benchmark: %s at %d: %w", op, size, err)
			}
			out = append(out, *r)
		}
	}
	return out, nil
}

// Results returns all accumulated benchmark results.
func (bs *BenchmarkSuite) Results() []BenchmarkResult {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	out := make([]BenchmarkResult, len(bs.results))
	copy(out, bs.results)
	return out
}

// AverageSpeedup returns the mean device speedup across accumulated results.
func (bs *BenchmarkSuite) AverageSpeedup() float64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	var sum float64
	var n int
	for _, r := range bs.results {
		if r.Speedup > 0 {
			sum += r.Speedup
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// time runs warm-up rounds untimed, then averages the timed rounds.
// Excluding warm-up keeps first-call overhead out of the measurement.
func (bs *BenchmarkSuite) time(e *Engine, op Operation, p benchPayload) (time.Duration, Mode, error) {
	for i := 0; i < bs.cfg.Benchmark.Warmup; i++ {
		if _, err := bs.invoke(e, op, p); err != nil {
			return 0, "", err
		}
	}

	var mode Mode
	start := time.Now()
	for i := 0; i < bs.cfg.Benchmark.Rounds; i++ {
		m, err := bs.invoke(e, op, p)
		if err != nil {
			return 0, "", err
		}
		mode = m
	}
	return time.Since(start) / time.Duration(bs.cfg.Benchmark.Rounds), mode, nil
}

func (bs *BenchmarkSuite) invoke(e *Engine, op Operation, p benchPayload) (Mode, error) {
	switch op {
	case OpStatistics:
		r, err := e.Statistics(p.data)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpGroupedStatistics:
		r, err := e.GroupedStatistics(p.keys, p.data)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpGroupedAggregate:
		r, err := e.GroupedAggregate(p.keys, p.data, AggAvg)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpOutliers:
		r, err := e.DetectOutliers(p.data, OutlierIQR)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpCorrelation:
		r, err := e.Correlation(p.data, p.aux)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpMovingAverage:
		window := 7
		if window > len(p.data) {
			window = len(p.data)
		}
		r, err := e.MovingAverage(p.data, window)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpGrowthRate:
		r, err := e.GrowthRate(p.data, p.aux)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	case OpHistogram:
		r, err := e.Histogram(p.data, 64)
		if err != nil {
			return "", err
		}
		return r.Mode, nil
	default:
		return "", fmt.Errorf("benchmark: unsupported operation %s", op)
	}
}
