package parstat

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/golang/snappy"
	"github.com/olekukonko/tablewriter"
)

// Report renders the accumulated benchmark results as a table, with the
// executing backend highlighted per row.
func (bs *BenchmarkSuite) Report(w io.Writer) {
	results := bs.Results()

	gpu := color.New(color.FgGreen).SprintFunc()
	cpu := color.New(color.FgYellow).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Operation", "Size", "GPU Time", "CPU Time", "Speedup", "Mode"})
	table.SetAutoFormatHeaders(false)

	for _, r := range results {
		gpuTime := "-"
		speedup := "-"
		if r.GPUTime > 0 {
			gpuTime = r.GPUTime.String()
			speedup = fmt.Sprintf("%.2fx", r.Speedup)
		}
		mode := cpu(string(r.Mode))
		if r.Mode == ModeGPU {
			mode = gpu(string(r.Mode))
		}
		table.Append([]string{
			r.Operation,
			fmt.Sprintf("%d", r.DataSize),
			gpuTime,
			r.CPUTime.String(),
			speedup,
			mode,
		})
	}
	table.Render()

	if avg := bs.AverageSpeedup(); avg > 0 {
		fmt.Fprintf(w, "average speedup: %.2fx over %d runs\n", avg, len(results))
	}
}

// BenchmarkSnapshot is the export format produced by WriteSnapshot.
type BenchmarkSnapshot struct {
	Timestamp      time.Time         `json:"timestamp"`
	AverageSpeedup float64           `json:"average_speedup"`
	Results        []BenchmarkResult `json:"results"`
	Host           Snapshot          `json:"host"`
	Device         *Snapshot         `json:"device,omitempty"`
}

// WriteSnapshot streams the accumulated results and engine counters as
// snappy-compressed JSON, for capacity-planning tooling.
func (bs *BenchmarkSuite) WriteSnapshot(w io.Writer) error {
	snap := BenchmarkSnapshot{
		Timestamp:      time.Now().UTC(),
		AverageSpeedup: bs.AverageSpeedup(),
		Results:        bs.Results(),
		Host:           bs.hostEngine.PerformanceSnapshot(),
	}
	if bs.deviceEngine != nil {
		dev := bs.deviceEngine.PerformanceSnapshot()
		snap.Device = &dev
	}

	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(&snap); err != nil {
		sw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return sw.Close()
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*BenchmarkSnapshot, error) {
	var snap BenchmarkSnapshot
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
