package compute

import (
	"fmt"
	"log/slog"
	"strings"
)

// Backend is a data-parallel execution device: it owns uint32 buffers and runs
// compiled kernels over a work size. Every Exec is a full barrier.
type Backend interface {
	Name() string
	Available() bool
	Alloc(label string, n int) (Buffer, error)
	Write(b Buffer, src []uint32) error
	Read(b Buffer, dst []uint32) error
	Compile(src Source) (Kernel, error)
	Cleanup()
}

// Buffer is device memory holding Len() uint32 values.
type Buffer interface {
	Label() string
	Len() int
	Release()
}

// Kernel is a compiled parallel routine. Args are Buffers and uint32 scalars,
// bound in the order given.
type Kernel interface {
	Name() string
	Exec(ws WorkSize, args ...any) error
}

// WorkSize declares a dispatch: Global lanes split into groups of Local lanes.
// Global is rounded up to a multiple of Local; kernels guard their own bounds.
type WorkSize struct {
	Local  int
	Global int
}

func NewWorkSize(local, global int) WorkSize {
	return WorkSize{Local: local, Global: global}
}

// Groups returns the number of work-groups the dispatch launches.
func (ws WorkSize) Groups() int {
	return (ws.Global + ws.Local - 1) / ws.Local
}

func (ws WorkSize) validate() error {
	if ws.Local <= 0 || ws.Global <= 0 {
		return fmt.Errorf("%w: work size %dx%d", ErrBadWorkSize, ws.Local, ws.Global)
	}
	return nil
}

// Source describes a kernel for every backend. WGSL is compiled by the webgpu
// backend (entry point "main"); Host runs one work-group on the cpu backend.
type Source struct {
	Name string
	WGSL string
	Host HostFunc
}

// HostFunc executes all lanes of one work-group. Lanes run in lane order.
type HostFunc func(g Group, a Args)

// Group identifies the work-group a HostFunc is running.
type Group struct {
	ID     int
	Size   int
	Global int
}

// Lane returns the global id of local lane lid.
func (g Group) Lane(lid int) int { return g.ID*g.Size + lid }

// Args carries the bound kernel arguments to a HostFunc.
type Args struct {
	Buffers [][]uint32
	Uints   []uint32
}

var backends = []string{"auto", "cpu", "webgpu"}

// Names lists the accepted backend names for Open.
func Names() []string {
	out := make([]string, len(backends))
	copy(out, backends)
	return out
}

// Open resolves a backend by name. workers sizes the cpu lane pool (0 = GOMAXPROCS).
func Open(name string, workers int) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return AutoSelectBackend(workers), nil
	case "cpu":
		return NewCPUBackend(workers), nil
	case "webgpu", "gpu":
		gpu, err := NewWebGPUBackend()
		if err != nil {
			return nil, err
		}
		return gpu, nil
	default:
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBackend, name, Names())
	}
}

// AutoSelectBackend prefers WebGPU and falls back to the cpu backend.
func AutoSelectBackend(workers int) Backend {
	gpu, err := NewWebGPUBackend()
	if err == nil && gpu.Available() {
		return gpu
	}
	slog.Debug("webgpu unavailable, using cpu backend", "err", err)
	return NewCPUBackend(workers)
}
