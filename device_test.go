package parstat

import (
	"errors"
	"testing"

	"github.com/c2h5oh/datasize"
)

func TestDeviceMemoryAccounting(t *testing.T) {
	d := newDevice(DeviceConfig{Memory: ByteSize{1 * datasize.KB}, BlockSize: 256})

	if d.MemoryTotal() != 1024 {
		t.Fatalf("MemoryTotal = %d, want 1024", d.MemoryTotal())
	}

	buf, err := d.allocate(64) // 512 bytes
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := d.MemoryAvailable(); got != 512 {
		t.Errorf("MemoryAvailable = %d, want 512", got)
	}

	// A second allocation beyond the remaining memory fails.
	if _, err := d.allocate(128); err == nil {
		t.Fatal("expected out-of-memory error")
	}

	buf.free()
	if got := d.MemoryAvailable(); got != 1024 {
		t.Errorf("MemoryAvailable after free = %d, want 1024", got)
	}
}

func TestBufferCopyRoundTrip(t *testing.T) {
	d := newDevice(DeviceConfig{Memory: ByteSize{1 * datasize.KB}, BlockSize: 256})
	buf, err := d.allocate(4)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.free()

	src := []float64{1.5, -2, 3, 4}
	buf.CopyToDevice(src)
	got := buf.Floats()
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("element %d: %v != %v", i, got[i], src[i])
		}
	}
}

func TestBufferPoolReuse(t *testing.T) {
	d := newDevice(DeviceConfig{Memory: ByteSize{1 * datasize.MB}, BlockSize: 256})
	p := newBufferPool(d, 4096)
	defer p.Close()

	a, err := p.Acquire(100)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(a)

	// A smaller request reuses the released buffer instead of allocating.
	b, err := p.Acquire(50)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if a != b {
		t.Error("released buffer was not reused")
	}
	if got := p.InUse(); got != 800 {
		t.Errorf("InUse = %d, want 800", got)
	}
}

func TestBufferPoolExhaustion(t *testing.T) {
	d := newDevice(DeviceConfig{Memory: ByteSize{1 * datasize.MB}, BlockSize: 256})
	p := newBufferPool(d, 1000)
	defer p.Close()

	if _, err := p.Acquire(100); err != nil {
		t.Fatalf("Acquire within capacity: %v", err)
	}
	// 800 bytes held; another 800 exceeds the 1000-byte cap.
	_, err := p.Acquire(100)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("err = %v, want ErrPoolExhausted", err)
	}
}

func TestDeviceLaunchFaultQueue(t *testing.T) {
	d := newDevice(DeviceConfig{Memory: ByteSize{1 * datasize.KB}, BlockSize: 256})

	if err := d.launch(); err != nil {
		t.Fatalf("clean launch: %v", err)
	}

	want := errors.New("ecc error")
	d.injectFault(want)
	if err := d.launch(); !errors.Is(err, want) {
		t.Fatalf("err = %v, want injected fault", err)
	}
	// The fault is consumed; the next launch is clean.
	if err := d.launch(); err != nil {
		t.Fatalf("launch after fault: %v", err)
	}
}
