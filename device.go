package parstat

import (
	"fmt"
	"sync"

	"github.com/parstat-io/parstat/internal/kernels"
)

// Device models an accelerator with bounded memory and a grid launch
// geometry. The kernels execute as block-parallel goroutines (see
// internal/kernels); memory accounting and launch faults behave like a real
// device so the orchestration layer above is exercised honestly.
type Device struct {
	name        string
	memoryTotal int64
	grid        kernels.Grid

	mu         sync.Mutex
	memoryUsed int64

	faultMu sync.Mutex
	faults  []error
}

func newDevice(cfg DeviceConfig) *Device {
	return &Device{
		name:        "parstat-sim0",
		memoryTotal: int64(cfg.Memory.Bytes()),
		grid:        kernels.Grid{BlockSize: cfg.BlockSize},
	}
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// MemoryTotal returns total device memory in bytes.
func (d *Device) MemoryTotal() int64 { return d.memoryTotal }

// MemoryAvailable returns unallocated device memory in bytes.
func (d *Device) MemoryAvailable() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memoryTotal - d.memoryUsed
}

// Grid returns the launch geometry used for kernels on this device.
func (d *Device) Grid() kernels.Grid { return d.grid }

// allocate reserves device memory for n float64 elements.
func (d *Device) allocate(n int) (*Buffer, error) {
	size := int64(n) * 8
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.memoryUsed+size > d.memoryTotal {
		return nil, fmt.Errorf("device out of memory: need %d, have %d",
			size, d.memoryTotal-d.memoryUsed)
	}
	d.memoryUsed += size
	return &Buffer{device: d, size: size, data: make([]float64, n)}, nil
}

// launch begins a kernel dispatch, consuming one injected fault if queued.
func (d *Device) launch() error {
	d.faultMu.Lock()
	defer d.faultMu.Unlock()
	if len(d.faults) == 0 {
		return nil
	}
	err := d.faults[0]
	d.faults = d.faults[1:]
	return err
}

// injectFault queues a launch fault, consumed by the next kernel dispatch.
// Test hook for exercising the fallback path.
func (d *Device) injectFault(err error) {
	d.faultMu.Lock()
	d.faults = append(d.faults, err)
	d.faultMu.Unlock()
}

// Buffer is memory allocated on a device, holding float64 elements.
type Buffer struct {
	device *Device
	size   int64
	data   []float64
}

// Len returns the buffer capacity in elements.
func (b *Buffer) Len() int { return len(b.data) }

// CopyToDevice copies src into the buffer.
func (b *Buffer) CopyToDevice(src []float64) {
	copy(b.data, src)
}

// Floats exposes the device-resident elements to kernels.
func (b *Buffer) Floats() []float64 { return b.data }

// free releases the underlying device memory.
func (b *Buffer) free() {
	b.device.mu.Lock()
	b.device.memoryUsed -= b.size
	b.device.mu.Unlock()
	b.data = nil
}

// BufferPool reuses device buffers across calls instead of allocating per
// call. Capacity is a configured fraction of device memory; a request beyond
// capacity returns ErrPoolExhausted so the caller can fall back to the host
// path. Access is serialized with a mutex.
type BufferPool struct {
	device   *Device
	maxBytes int64

	mu        sync.Mutex
	usedBytes int64
	buffers   []*pooledBuffer
}

type pooledBuffer struct {
	buf   *Buffer
	inUse bool
}

func newBufferPool(device *Device, maxBytes int64) *BufferPool {
	return &BufferPool{device: device, maxBytes: maxBytes}
}

// Acquire returns a buffer holding at least n elements, reusing a released
// buffer when one is large enough.
func (p *BufferPool) Acquire(n int) (*Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pb := range p.buffers {
		if !pb.inUse && pb.buf.Len() >= n {
			pb.inUse = true
			return pb.buf, nil
		}
	}

	size := int64(n) * 8
	if p.usedBytes+size > p.maxBytes {
		return nil, fmt.Errorf("%w: need %d bytes, pool capacity %d, in use %d",
			ErrPoolExhausted, size, p.maxBytes, p.usedBytes)
	}
	buf, err := p.device.allocate(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}
	p.buffers = append(p.buffers, &pooledBuffer{buf: buf, inUse: true})
	p.usedBytes += size
	return buf, nil
}

// Release returns a buffer to the pool for reuse.
func (p *BufferPool) Release(buf *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pb := range p.buffers {
		if pb.buf == buf {
			pb.inUse = false
			return
		}
	}
}

// Capacity returns the pool capacity in bytes.
func (p *BufferPool) Capacity() int64 { return p.maxBytes }

// InUse returns the bytes held by buffers currently acquired.
func (p *BufferPool) InUse() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var used int64
	for _, pb := range p.buffers {
		if pb.inUse {
			used += pb.buf.size
		}
	}
	return used
}

// Close frees every pooled buffer.
func (p *BufferPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pb := range p.buffers {
		pb.buf.free()
	}
	p.buffers = nil
	p.usedBytes = 0
}
