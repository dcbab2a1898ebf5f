package parstat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Device.Memory.Bytes() != uint64(8*datasize.GB) {
		t.Errorf("Memory = %s, want 8GB", cfg.Device.Memory.HR())
	}
	if cfg.Device.MinSize != 10000 {
		t.Errorf("MinSize = %d, want 10000", cfg.Device.MinSize)
	}
	if cfg.Percentile.Strategy != PercentileExact {
		t.Errorf("Strategy = %s, want exact", cfg.Percentile.Strategy)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg Config
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after normalize: %v", err)
	}
	if cfg.Host.Workers < 1 {
		t.Errorf("Workers = %d", cfg.Host.Workers)
	}
	if cfg.Device.BlockSize != 256 {
		t.Errorf("BlockSize = %d, want 256", cfg.Device.BlockSize)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
	if cfg.Outlier.IQRMultiplier != 1.5 {
		t.Errorf("IQRMultiplier = %v, want 1.5", cfg.Outlier.IQRMultiplier)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory fraction above one", func(c *Config) { c.Device.MemoryFraction = 1.5 }},
		{"memory fraction negative", func(c *Config) { c.Device.MemoryFraction = -0.1 }},
		{"negative min size", func(c *Config) { c.Device.MinSize = -1 }},
		{"block size below two", func(c *Config) { c.Device.BlockSize = 1 }},
		{"failure threshold below one", func(c *Config) { c.Device.FailureThreshold = 0 }},
		{"no workers", func(c *Config) { c.Host.Workers = -4 }},
		{"unknown percentile strategy", func(c *Config) { c.Percentile.Strategy = "tdigest" }},
		{"percentile point above 100", func(c *Config) { c.Percentile.Points = []float64{50, 101} }},
		{"histogram bins below one", func(c *Config) { c.Percentile.HistogramBins = -8 }},
		{"zero IQR multiplier", func(c *Config) { c.Outlier.IQRMultiplier = -1 }},
		{"zero z-score threshold", func(c *Config) { c.Outlier.ZScoreThreshold = -3 }},
		{"max groups below one", func(c *Config) { c.MaxGroups = -1 }},
		{"benchmark rounds below one", func(c *Config) { c.Benchmark.Rounds = -2 }},
		{"negative warmup", func(c *Config) { c.Benchmark.Warmup = -1 }},
		{"benchmark size below one", func(c *Config) { c.Benchmark.Sizes = []int{1000, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger = testLogger()
	cfg.Device.MemoryFraction = 2.0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfig(t *testing.T) {
	raw := `
device:
  enabled: true
  min_size: 5000
  memory: 2GB
  memory_fraction: 0.5
  block_size: 128
percentile:
  strategy: histogram
  histogram_bins: 256
  points: [50, 95]
outlier:
  iqr_multiplier: 2.0
max_groups: 64
`
	path := filepath.Join(t.TempDir(), "parstat.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Device.Enabled {
		t.Error("Enabled not parsed")
	}
	if cfg.Device.MinSize != 5000 {
		t.Errorf("MinSize = %d, want 5000", cfg.Device.MinSize)
	}
	if cfg.Device.Memory.Bytes() != uint64(2*datasize.GB) {
		t.Errorf("Memory = %s, want 2GB", cfg.Device.Memory.HR())
	}
	if cfg.Device.MemoryFraction != 0.5 {
		t.Errorf("MemoryFraction = %v", cfg.Device.MemoryFraction)
	}
	if cfg.Percentile.Strategy != PercentileHistogram {
		t.Errorf("Strategy = %s", cfg.Percentile.Strategy)
	}
	if len(cfg.Percentile.Points) != 2 || cfg.Percentile.Points[1] != 95 {
		t.Errorf("Points = %v", cfg.Percentile.Points)
	}
	if cfg.Outlier.IQRMultiplier != 2.0 {
		t.Errorf("IQRMultiplier = %v", cfg.Outlier.IQRMultiplier)
	}
	if cfg.MaxGroups != 64 {
		t.Errorf("MaxGroups = %d", cfg.MaxGroups)
	}
	// Unset fields take defaults.
	if cfg.Outlier.ZScoreThreshold != 3.0 {
		t.Errorf("ZScoreThreshold = %v, want default 3.0", cfg.Outlier.ZScoreThreshold)
	}
	if cfg.Benchmark.Seed != 42 {
		t.Errorf("Seed = %d, want default 42", cfg.Benchmark.Seed)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("percentile:\n  strategy: unknown\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
