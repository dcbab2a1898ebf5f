// Package parstat is a statistical analytics engine with an accelerator
// device path and a behaviorally equivalent CPU fallback. Every operation
// exists as a device/host implementation pair with identical semantics;
// backend choice and device-error recovery are invisible to the caller, who
// only sees the mode recorded on the result.
package parstat

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/parstat-io/parstat/internal/hostcalc"
)

// DeviceState tracks the availability of the accelerator device.
type DeviceState int32

const (
	// DeviceUnknown is the state before the startup probe.
	DeviceUnknown DeviceState = iota
	// DeviceAvailable means the device is usable.
	DeviceAvailable
	// DeviceUnavailable means the device is disabled, absent, or was
	// disqualified by sustained failures.
	DeviceUnavailable
)

func (s DeviceState) String() string {
	switch s {
	case DeviceAvailable:
		return "available"
	case DeviceUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Engine computes statistics over caller-supplied series. Each call is a
// self-contained, stateless computation; the only persistent state is the
// device availability flag and the backend counters.
type Engine struct {
	cfg      Config
	log      *slog.Logger
	device   *Device
	pool     *BufferPool
	host     *hostcalc.Calc
	dispatch map[Operation]opImpl

	state         atomic.Int32
	failureStreak atomic.Int32

	deviceOps     atomic.Int64
	hostOps       atomic.Int64
	fallbacks     atomic.Int64
	poolFallbacks atomic.Int64

	opMu     sync.Mutex
	opCounts map[Operation]int64
}

// New creates an engine, validates the configuration, probes the device once
// and builds the dispatch table. Configuration errors are the only class
// that prevents the engine from starting.
func New(cfg Config) (*Engine, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      cfg.Logger,
		host:     hostcalc.New(cfg.Host.Workers),
		dispatch: buildDispatch(),
		opCounts: make(map[Operation]int64),
	}
	if err := checkDispatch(e.dispatch); err != nil {
		return nil, err
	}

	if cfg.Device.Enabled {
		e.device = newDevice(cfg.Device)
		poolBytes := int64(float64(e.device.MemoryTotal()) * cfg.Device.MemoryFraction)
		e.pool = newBufferPool(e.device, poolBytes)
		e.state.Store(int32(DeviceAvailable))
		e.log.Info("accelerator device ready",
			"device", e.device.Name(),
			"memory", e.device.MemoryTotal(),
			"pool_capacity", poolBytes,
			"block_size", cfg.Device.BlockSize)
	} else {
		e.state.Store(int32(DeviceUnavailable))
		e.log.Info("device disabled, host path only", "workers", cfg.Host.Workers)
	}

	return e, nil
}

// Close releases pooled device buffers.
func (e *Engine) Close() error {
	if e.pool != nil {
		e.pool.Close()
	}
	return nil
}

// DeviceState returns the current device availability.
func (e *Engine) DeviceState() DeviceState {
	return DeviceState(e.state.Load())
}

// useDevice decides the backend for one call: the device must be enabled and
// available, and the series large enough that transfer overhead pays off.
func (e *Engine) useDevice(n int) bool {
	return e.cfg.Device.Enabled &&
		e.DeviceState() == DeviceAvailable &&
		n >= e.cfg.Device.MinSize
}

func (e *Engine) recordSuccess(op Operation, mode Mode) {
	if mode == ModeGPU {
		e.deviceOps.Add(1)
		e.failureStreak.Store(0)
	} else {
		e.hostOps.Add(1)
	}
	e.opMu.Lock()
	e.opCounts[op]++
	e.opMu.Unlock()
}

// recordDeviceFailure counts a device fault. After FailureThreshold
// consecutive failures the device transitions to unavailable for the rest of
// the engine's life.
func (e *Engine) recordDeviceFailure(op Operation, err error) {
	streak := e.failureStreak.Add(1)
	e.log.Warn("device execution failed, falling back to host",
		"op", op.String(), "err", err, "streak", streak)
	if int(streak) >= e.cfg.Device.FailureThreshold {
		e.state.Store(int32(DeviceUnavailable))
		e.log.Warn("device marked unavailable after consecutive failures",
			"failures", streak)
	}
}

// PerformanceSnapshot reports backend counters and pool occupancy. For
// health and benchmark reporting only.
func (e *Engine) PerformanceSnapshot() Snapshot {
	snap := Snapshot{
		DeviceState:   e.DeviceState().String(),
		DeviceOps:     e.deviceOps.Load(),
		HostOps:       e.hostOps.Load(),
		Fallbacks:     e.fallbacks.Load(),
		PoolFallbacks: e.poolFallbacks.Load(),
		FailureStreak: int(e.failureStreak.Load()),
	}
	if e.device != nil {
		snap.DeviceName = e.device.Name()
		snap.DeviceMemoryTotal = e.device.MemoryTotal()
	}
	if e.pool != nil {
		snap.PoolCapacity = e.pool.Capacity()
		snap.PoolInUse = e.pool.InUse()
	}
	e.opMu.Lock()
	snap.OperationCounts = make(map[string]int64, len(e.opCounts))
	for op, n := range e.opCounts {
		snap.OperationCounts[op.String()] = n
	}
	e.opMu.Unlock()
	return snap
}
