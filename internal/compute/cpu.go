package compute

import (
	"fmt"
	"runtime"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// CPUBackend emulates a data-parallel device. Work-groups are scheduled on a
// persistent worker pool; the lanes of one group run in order on one worker.
type CPUBackend struct {
	workers int
	pool    *workerpool.Pool
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUBackend{
		workers: workers,
		pool:    workerpool.New(workers),
	}
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        { c.pool.Close() }

type cpuBuffer struct {
	owner *CPUBackend
	label string
	data  []uint32
}

func (b *cpuBuffer) Label() string { return b.label }
func (b *cpuBuffer) Len() int      { return len(b.data) }
func (b *cpuBuffer) Release()      { b.data = nil }

func (c *CPUBackend) Alloc(label string, n int) (Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: alloc %s of %d elements", ErrSize, label, n)
	}
	return &cpuBuffer{owner: c, label: label, data: make([]uint32, n)}, nil
}

func (c *CPUBackend) buffer(b Buffer) (*cpuBuffer, error) {
	cb, ok := b.(*cpuBuffer)
	if !ok || cb.owner != c {
		return nil, fmt.Errorf("%w: buffer %q belongs to another backend", ErrBadArgument, b.Label())
	}
	if cb.data == nil {
		return nil, fmt.Errorf("%w: %s", ErrReleased, cb.label)
	}
	return cb, nil
}

func (c *CPUBackend) Write(b Buffer, src []uint32) error {
	cb, err := c.buffer(b)
	if err != nil {
		return err
	}
	if len(src) > len(cb.data) {
		return fmt.Errorf("%w: write %d into %s[%d]", ErrSize, len(src), cb.label, len(cb.data))
	}
	copy(cb.data, src)
	return nil
}

func (c *CPUBackend) Read(b Buffer, dst []uint32) error {
	cb, err := c.buffer(b)
	if err != nil {
		return err
	}
	if len(dst) > len(cb.data) {
		return fmt.Errorf("%w: read %d from %s[%d]", ErrSize, len(dst), cb.label, len(cb.data))
	}
	copy(dst, cb.data)
	return nil
}

func (c *CPUBackend) Compile(src Source) (Kernel, error) {
	if src.Host == nil {
		return nil, fmt.Errorf("%w: %s has no host implementation", ErrCompile, src.Name)
	}
	return &cpuKernel{backend: c, name: src.Name, fn: src.Host}, nil
}

type cpuKernel struct {
	backend *CPUBackend
	name    string
	fn      HostFunc
}

func (k *cpuKernel) Name() string { return k.name }

// Exec runs every work-group and returns once all of them finished.
func (k *cpuKernel) Exec(ws WorkSize, args ...any) error {
	if err := ws.validate(); err != nil {
		return err
	}
	a, err := k.backend.bind(args)
	if err != nil {
		return fmt.Errorf("%s: %w", k.name, err)
	}

	groups := ws.Groups()
	global := groups * ws.Local
	k.backend.pool.ParallelForAtomic(groups, func(g int) {
		k.fn(Group{ID: g, Size: ws.Local, Global: global}, a)
	})
	return nil
}

func (c *CPUBackend) bind(args []any) (Args, error) {
	var a Args
	for i, arg := range args {
		switch v := arg.(type) {
		case Buffer:
			cb, err := c.buffer(v)
			if err != nil {
				return Args{}, err
			}
			a.Buffers = append(a.Buffers, cb.data)
		case uint32:
			a.Uints = append(a.Uints, v)
		default:
			return Args{}, fmt.Errorf("%w: arg %d has type %T", ErrBadArgument, i, arg)
		}
	}
	return a, nil
}
