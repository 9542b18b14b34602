package radix

import (
	"math/rand/v2"
	"testing"

	"github.com/san-kum/radix/internal/compute"
)

func newTestSorter(t testing.TB, p Params) *Sorter {
	t.Helper()
	backend := compute.NewCPUBackend(4)
	t.Cleanup(backend.Cleanup)

	s, err := New(backend, p)
	if err != nil {
		t.Fatalf("new sorter: %v", err)
	}
	return s
}

func upload(t testing.TB, s *Sorter, label string, data []uint32) compute.Buffer {
	t.Helper()
	b, err := s.backend.Alloc(label, len(data))
	if err != nil {
		t.Fatalf("alloc %s: %v", label, err)
	}
	t.Cleanup(b.Release)
	if err := s.backend.Write(b, data); err != nil {
		t.Fatalf("write %s: %v", label, err)
	}
	return b
}

func download(t testing.TB, s *Sorter, b compute.Buffer, n int) []uint32 {
	t.Helper()
	out := make([]uint32, n)
	if err := s.backend.Read(b, out); err != nil {
		t.Fatalf("read %s: %v", b.Label(), err)
	}
	return out
}

func randomKeys(n int, seed uint64) []uint32 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = r.Uint32()
	}
	return keys
}
