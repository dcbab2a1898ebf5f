package parstat

import (
	"bytes"
	"strings"
	"testing"
)

func benchConfig(mutate ...func(*Config)) Config {
	cfg := DefaultConfig()
	cfg.Logger = testLogger()
	cfg.Benchmark.Sizes = []int{200}
	cfg.Benchmark.Rounds = 1
	cfg.Benchmark.Warmup = 0
	for _, m := range mutate {
		m(&cfg)
	}
	return cfg
}

func TestBenchmarkCPUOnly(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig(hostOnly))
	if err != nil {
		t.Fatalf("NewBenchmarkSuite: %v", err)
	}
	defer bs.Close()

	r, err := bs.Run(OpStatistics, 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Mode != ModeCPU {
		t.Errorf("Mode = %s, want CPU", r.Mode)
	}
	if r.GPUTime != 0 {
		t.Errorf("GPUTime = %v, want 0 with device disabled", r.GPUTime)
	}
	if r.CPUTime <= 0 {
		t.Errorf("CPUTime = %v, want > 0", r.CPUTime)
	}
	if r.Speedup != 0 {
		t.Errorf("Speedup = %v, want 0", r.Speedup)
	}
}

func TestBenchmarkBothBackends(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig())
	if err != nil {
		t.Fatalf("NewBenchmarkSuite: %v", err)
	}
	defer bs.Close()

	r, err := bs.Run(OpCorrelation, 200)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Mode != ModeGPU {
		t.Errorf("Mode = %s, want GPU", r.Mode)
	}
	if r.GPUTime <= 0 {
		t.Errorf("GPUTime = %v, want > 0", r.GPUTime)
	}
	if r.Speedup <= 0 {
		t.Errorf("Speedup = %v, want > 0", r.Speedup)
	}
}

func TestBenchmarkRunAll(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig())
	if err != nil {
		t.Fatalf("NewBenchmarkSuite: %v", err)
	}
	defer bs.Close()

	results, err := bs.RunAll()
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	want := len(benchmarkOperations)
	if len(results) != want {
		t.Fatalf("got %d results, want %d", len(results), want)
	}
	if got := bs.Results(); len(got) != want {
		t.Fatalf("accumulated %d results, want %d", len(got), want)
	}
	if bs.AverageSpeedup() <= 0 {
		t.Error("AverageSpeedup not positive after device runs")
	}
}

func TestBenchmarkRejectsBadSize(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig(hostOnly))
	if err != nil {
		t.Fatal(err)
	}
	defer bs.Close()
	if _, err := bs.Run(OpStatistics, 0); err == nil {
		t.Fatal("expected error for size 0")
	}
}

func TestReportRenders(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig(hostOnly))
	if err != nil {
		t.Fatal(err)
	}
	defer bs.Close()
	if _, err := bs.Run(OpStatistics, 200); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	bs.Report(&buf)
	out := buf.String()
	if !strings.Contains(out, "statistics") {
		t.Errorf("report missing operation name:\n%s", out)
	}
	if !strings.Contains(out, "Operation") {
		t.Errorf("report missing header:\n%s", out)
	}
	// No device timing means the GPU column shows a placeholder.
	if !strings.Contains(out, "-") {
		t.Errorf("report missing GPU placeholder:\n%s", out)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	bs, err := NewBenchmarkSuite(benchConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer bs.Close()
	if _, err := bs.Run(OpHistogram, 200); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bs.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	snap, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("Results = %d, want 1", len(snap.Results))
	}
	if snap.Results[0].Operation != "histogram" {
		t.Errorf("Operation = %q", snap.Results[0].Operation)
	}
	if snap.Device == nil {
		t.Fatal("device snapshot missing")
	}
	if snap.Device.DeviceOps != 1 {
		t.Errorf("DeviceOps = %d, want 1", snap.Device.DeviceOps)
	}
	if snap.Host.HostOps != 1 {
		t.Errorf("HostOps = %d, want 1", snap.Host.HostOps)
	}
	if snap.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}
