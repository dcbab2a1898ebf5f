package parstat

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// PercentileStrategy selects how percentiles are computed.
type PercentileStrategy string

const (
	// PercentileExact computes percentiles by fully sorting the series.
	// Exact, but costs O(N log²N) on the device path.
	PercentileExact PercentileStrategy = "exact"

	// PercentileHistogram estimates percentiles from a fixed-bucket
	// histogram. O(N), with error bounded by one bucket width.
	PercentileHistogram PercentileStrategy = "histogram"
)

// OutlierMethod selects the outlier detection method.
type OutlierMethod string

const (
	// OutlierIQR flags values beyond the quartile fences
	// [Q1 - k·IQR, Q3 + k·IQR].
	OutlierIQR OutlierMethod = "iqr"

	// OutlierZScore flags values whose |z| exceeds a threshold.
	OutlierZScore OutlierMethod = "zscore"
)

// ByteSize is a datasize.ByteSize that additionally unmarshals from YAML
// strings like "8GB".
type ByteSize struct {
	datasize.ByteSize
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.HR(), nil
}

// Config defines engine configuration.
type Config struct {
	// Device configures the accelerator device and backend selection.
	Device DeviceConfig `yaml:"device"`

	// Host configures the CPU reference path.
	Host HostConfig `yaml:"host"`

	// Percentile configures percentile computation.
	Percentile PercentileConfig `yaml:"percentile"`

	// Outlier configures outlier detection parameters.
	Outlier OutlierConfig `yaml:"outlier"`

	// Benchmark configures the benchmark harness.
	Benchmark BenchmarkConfig `yaml:"benchmark"`

	// MaxGroups bounds the group-id space accepted by grouped operations.
	// Device aggregation uses fixed-size per-group accumulators, so the
	// space must be known and small. Default: 1024.
	MaxGroups int `yaml:"max_groups"`

	// Logger receives structured engine logs. Default: slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DeviceConfig groups accelerator settings.
type DeviceConfig struct {
	// Enabled turns on device execution. When false every call runs on
	// the host path.
	// Default: true.
	Enabled bool `yaml:"enabled"`

	// MinSize is the smallest series dispatched to the device; below it
	// transfer overhead outweighs the kernel speedup.
	// Default: 10,000.
	MinSize int `yaml:"min_size"`

	// Memory is the device memory capacity.
	// Default: 8GB.
	Memory ByteSize `yaml:"memory"`

	// MemoryFraction is the share of device memory available to the
	// buffer pool, in (0, 1].
	// Default: 0.8.
	MemoryFraction float64 `yaml:"memory_fraction"`

	// BlockSize is the number of elements processed per kernel block.
	// Default: 256.
	BlockSize int `yaml:"block_size"`

	// FailureThreshold is the number of consecutive device failures after
	// which the device is marked unavailable for the rest of the engine's
	// life. Default: 5.
	FailureThreshold int `yaml:"failure_threshold"`
}

// HostConfig groups CPU path settings.
type HostConfig struct {
	// Workers is the number of goroutines the host path shards large
	// inputs across. Default: runtime.NumCPU().
	Workers int `yaml:"workers"`
}

// PercentileConfig groups percentile settings.
type PercentileConfig struct {
	// Points are the percentiles (0..100) computed by Statistics.
	// Default: 25, 50, 75, 90, 95, 99.
	Points []float64 `yaml:"points"`

	// Strategy selects exact or histogram percentiles.
	// Default: PercentileExact.
	Strategy PercentileStrategy `yaml:"strategy"`

	// HistogramBins is the bucket count for the histogram strategy.
	// Default: 1024.
	HistogramBins int `yaml:"histogram_bins"`
}

// OutlierConfig groups outlier detection settings.
type OutlierConfig struct {
	// IQRMultiplier is the fence multiplier k in Q1 - k·IQR, Q3 + k·IQR.
	// Default: 1.5.
	IQRMultiplier float64 `yaml:"iqr_multiplier"`

	// ZScoreThreshold is the |z| cutoff for the z-score method.
	// Default: 3.0.
	ZScoreThreshold float64 `yaml:"zscore_threshold"`
}

// BenchmarkConfig groups benchmark harness settings.
type BenchmarkConfig struct {
	// Sizes are the synthetic dataset sizes benchmarked.
	// Default: 1,000; 10,000; 100,000; 1,000,000.
	Sizes []int `yaml:"sizes"`

	// Rounds is the number of timed rounds per operation and size.
	// Default: 3.
	Rounds int `yaml:"rounds"`

	// Warmup is the number of untimed warm-up rounds, excluded so
	// first-call overhead does not skew results. Default: 1.
	Warmup int `yaml:"warmup"`

	// Seed seeds the synthetic data generator. Default: 42.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Enabled:          true,
			MinSize:          10000,
			Memory:           ByteSize{8 * datasize.GB},
			MemoryFraction:   0.8,
			BlockSize:        256,
			FailureThreshold: 5,
		},
		Host: HostConfig{
			Workers: runtime.NumCPU(),
		},
		Percentile: PercentileConfig{
			Points:        []float64{25, 50, 75, 90, 95, 99},
			Strategy:      PercentileExact,
			HistogramBins: 1024,
		},
		Outlier: OutlierConfig{
			IQRMultiplier:   1.5,
			ZScoreThreshold: 3.0,
		},
		Benchmark: BenchmarkConfig{
			Sizes:  []int{1000, 10000, 100000, 1000000},
			Rounds: 3,
			Warmup: 1,
			Seed:   42,
		},
		MaxGroups: 1024,
	}
}

// normalize fills zero-valued fields with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Device.MinSize == 0 {
		c.Device.MinSize = def.Device.MinSize
	}
	if c.Device.Memory.Bytes() == 0 {
		c.Device.Memory = def.Device.Memory
	}
	if c.Device.MemoryFraction == 0 {
		c.Device.MemoryFraction = def.Device.MemoryFraction
	}
	if c.Device.BlockSize == 0 {
		c.Device.BlockSize = def.Device.BlockSize
	}
	if c.Device.FailureThreshold == 0 {
		c.Device.FailureThreshold = def.Device.FailureThreshold
	}
	if c.Host.Workers == 0 {
		c.Host.Workers = def.Host.Workers
	}
	if len(c.Percentile.Points) == 0 {
		c.Percentile.Points = def.Percentile.Points
	}
	if c.Percentile.Strategy == "" {
		c.Percentile.Strategy = def.Percentile.Strategy
	}
	if c.Percentile.HistogramBins == 0 {
		c.Percentile.HistogramBins = def.Percentile.HistogramBins
	}
	if c.Outlier.IQRMultiplier == 0 {
		c.Outlier.IQRMultiplier = def.Outlier.IQRMultiplier
	}
	if c.Outlier.ZScoreThreshold == 0 {
		c.Outlier.ZScoreThreshold = def.Outlier.ZScoreThreshold
	}
	if len(c.Benchmark.Sizes) == 0 {
		c.Benchmark.Sizes = def.Benchmark.Sizes
	}
	if c.Benchmark.Rounds == 0 {
		c.Benchmark.Rounds = def.Benchmark.Rounds
	}
	if c.Benchmark.Seed == 0 {
		c.Benchmark.Seed = def.Benchmark.Seed
	}
	if c.MaxGroups == 0 {
		c.MaxGroups = def.MaxGroups
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks the configuration. A failing configuration aborts engine
// initialization; it is the only error class that prevents startup.
func (c *Config) Validate() error {
	if c.Device.MemoryFraction <= 0 || c.Device.MemoryFraction > 1 {
		return fmt.Errorf("%w: device memory fraction %v outside (0, 1]",
			ErrInvalidConfig, c.Device.MemoryFraction)
	}
	if c.Device.MinSize < 0 {
		return fmt.Errorf("%w: negative device min size %d", ErrInvalidConfig, c.Device.MinSize)
	}
	if c.Device.BlockSize < 2 {
		return fmt.Errorf("%w: device block size %d below 2", ErrInvalidConfig, c.Device.BlockSize)
	}
	if c.Device.FailureThreshold < 1 {
		return fmt.Errorf("%w: failure threshold %d below 1", ErrInvalidConfig, c.Device.FailureThreshold)
	}
	if c.Host.Workers < 1 {
		return fmt.Errorf("%w: host workers %d below 1", ErrInvalidConfig, c.Host.Workers)
	}
	switch c.Percentile.Strategy {
	case PercentileExact, PercentileHistogram:
	default:
		return fmt.Errorf("%w: unknown percentile strategy %q", ErrInvalidConfig, c.Percentile.Strategy)
	}
	for _, p := range c.Percentile.Points {
		if p < 0 || p > 100 {
			return fmt.Errorf("%w: percentile point %v outside [0, 100]", ErrInvalidConfig, p)
		}
	}
	if c.Percentile.HistogramBins < 1 {
		return fmt.Errorf("%w: histogram bins %d below 1", ErrInvalidConfig, c.Percentile.HistogramBins)
	}
	if c.Outlier.IQRMultiplier <= 0 {
		return fmt.Errorf("%w: IQR multiplier %v not positive", ErrInvalidConfig, c.Outlier.IQRMultiplier)
	}
	if c.Outlier.ZScoreThreshold <= 0 {
		return fmt.Errorf("%w: z-score threshold %v not positive", ErrInvalidConfig, c.Outlier.ZScoreThreshold)
	}
	if c.MaxGroups < 1 {
		return fmt.Errorf("%w: max groups %d below 1", ErrInvalidConfig, c.MaxGroups)
	}
	if c.Benchmark.Rounds < 1 {
		return fmt.Errorf("%w: benchmark rounds %d below 1", ErrInvalidConfig, c.Benchmark.Rounds)
	}
	if c.Benchmark.Warmup < 0 {
		return fmt.Errorf("%w: negative benchmark warmup %d", ErrInvalidConfig, c.Benchmark.Warmup)
	}
	for _, s := range c.Benchmark.Sizes {
		if s < 1 {
			return fmt.Errorf("%w: benchmark size %d below 1", ErrInvalidConfig, s)
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file. Unset fields take defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
