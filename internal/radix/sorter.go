package radix

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/radix/internal/compute"
)

// Sorter runs the LSD radix pipeline on a compute backend. Kernels are
// compiled once in New; every Sort call allocates and releases its own
// buffers, so a Sorter may be reused but not shared by concurrent calls.
type Sorter struct {
	backend   compute.Backend
	params    Params
	k         *kernels
	observers []PassObserver
	logger    *slog.Logger
}

// New validates p and compiles every stage. A compile failure is fatal.
func New(backend compute.Backend, p Params) (*Sorter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	k, err := compileKernels(backend, p)
	if err != nil {
		return nil, fmt.Errorf("radix: compile on %s: %w", backend.Name(), err)
	}
	return &Sorter{
		backend:   backend,
		params:    p,
		k:         k,
		observers: make([]PassObserver, 0),
		logger:    slog.Default(),
	}, nil
}

func (s *Sorter) AddObserver(o PassObserver) { s.observers = append(s.observers, o) }
func (s *Sorter) SetLogger(l *slog.Logger)   { s.logger = l }
func (s *Sorter) Params() Params             { return s.params }
func (s *Sorter) Backend() compute.Backend   { return s.backend }

// buffers are the five device buffers one Sort call owns. keys is the
// ping-pong pair; cur selects the slot holding the current permutation.
type buffers struct {
	keys   [2]compute.Buffer
	cur    int
	counts compute.Buffer
	buf    compute.Buffer
	psums  compute.Buffer
}

func (b *buffers) current() compute.Buffer { return b.keys[b.cur] }
func (b *buffers) next() compute.Buffer    { return b.keys[1-b.cur] }
func (b *buffers) swap()                   { b.cur = 1 - b.cur }

func (b *buffers) release() {
	for _, buf := range []compute.Buffer{b.keys[0], b.keys[1], b.counts, b.buf, b.psums} {
		if buf != nil {
			buf.Release()
		}
	}
}

func (s *Sorter) allocate(lay Layout) (*buffers, error) {
	b := &buffers{}
	specs := []struct {
		dst   *compute.Buffer
		label string
		n     int
	}{
		{&b.keys[0], "as", lay.N},
		{&b.keys[1], "bs", lay.N},
		{&b.counts, "counts", lay.CountSize},
		{&b.buf, "buf", lay.CountSize},
		{&b.psums, "psums", lay.CountSize},
	}
	for _, sp := range specs {
		buf, err := s.backend.Alloc(sp.label, sp.n)
		if err != nil {
			b.release()
			return nil, fmt.Errorf("radix: allocate %s: %w", sp.label, err)
		}
		*sp.dst = buf
	}
	return b, nil
}

// Sort returns elements in ascending order. len(elements) must be a power of
// two and at least one work-group; elements itself is left unchanged.
func (s *Sorter) Sort(elements []uint32) ([]uint32, error) {
	lay, err := s.params.Layout(len(elements))
	if err != nil {
		return nil, err
	}
	if err := s.checkKeys(elements); err != nil {
		return nil, err
	}

	b, err := s.allocate(lay)
	if err != nil {
		return nil, err
	}
	defer b.release()

	if err := s.backend.Write(b.current(), elements); err != nil {
		return nil, fmt.Errorf("radix: upload: %w", err)
	}

	start := time.Now()
	for pass := 0; pass < s.params.Iterations(); pass++ {
		passStart := time.Now()
		if err := s.runPass(lay, b, pass); err != nil {
			return nil, err
		}
		elapsed := time.Since(passStart)
		s.logger.Debug("pass complete", "pass", pass, "shift", s.params.Shift(pass), "elapsed", elapsed)

		if len(s.observers) > 0 {
			if err := s.notify(lay, b, pass, elapsed); err != nil {
				return nil, err
			}
		}
		b.swap()
	}
	s.logger.Debug("sort complete", "n", lay.N, "passes", s.params.Iterations(),
		"backend", s.backend.Name(), "elapsed", time.Since(start))

	out := make([]uint32, lay.N)
	if err := s.backend.Read(b.current(), out); err != nil {
		return nil, fmt.Errorf("radix: download: %w", err)
	}
	return out, nil
}

// runPass is one state of the pass machine: histogram, transpose, prefix sum,
// scatter from the current slot into the next one.
func (s *Sorter) runPass(lay Layout, b *buffers, pass int) error {
	if err := s.buildHistogram(lay, b.current(), b.counts, pass); err != nil {
		return err
	}
	if err := s.transpose(lay, b.counts, b.buf, pass); err != nil {
		return err
	}
	if err := s.prefixSum(lay, b.buf, b.psums, pass); err != nil {
		return err
	}
	return s.scatter(lay, b.current(), b.next(), b.psums, pass)
}

func (s *Sorter) notify(lay Layout, b *buffers, pass int, elapsed time.Duration) error {
	ps := PassStats{
		Pass:     pass,
		Shift:    s.params.Shift(pass),
		Layout:   lay,
		Counts:   make([]uint32, lay.TableSize),
		Psums:    make([]uint32, lay.TableSize),
		Keys:     make([]uint32, lay.N),
		Duration: elapsed,
	}
	reads := []struct {
		src compute.Buffer
		dst []uint32
	}{
		{b.counts, ps.Counts},
		{b.psums, ps.Psums},
		{b.next(), ps.Keys},
	}
	for _, r := range reads {
		if err := s.backend.Read(r.src, r.dst); err != nil {
			return &StageError{Pass: pass, Stage: "read back " + r.src.Label(), Wrapped: err}
		}
	}
	for _, o := range s.observers {
		o.ObservePass(ps)
	}
	return nil
}

func (s *Sorter) checkKeys(elements []uint32) error {
	if s.params.KeyBits >= 32 {
		return nil
	}
	limit := s.params.MaxKey()
	for i, v := range elements {
		if v > limit {
			return fmt.Errorf("%w: element %d is %d, key_bits %d", ErrKeyRange, i, v, s.params.KeyBits)
		}
	}
	return nil
}
