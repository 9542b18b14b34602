package radix

import (
	"testing"
)

func exclusiveScan(xs []uint32) []uint32 {
	out := make([]uint32, len(xs))
	var acc uint32
	for i, v := range xs {
		out[i] = acc
		acc += v
	}
	return out
}

// scanLayout builds a layout whose count table is exactly size cells.
func scanLayout(size int) Layout {
	return Layout{N: size, WorkGroups: 1, CountSize: size, TableSize: size, Levels: ceilLog2(size)}
}

func TestPrefixSum_MatchesSequentialScan(t *testing.T) {
	p := Params{DigitBits: 4, KeyBits: 32, WorkGroupSize: 8}
	s := newTestSorter(t, p)

	for _, size := range []int{8, 16, 32, 64, 256, 1024, 4096, 1 << 15} {
		in := randomKeys(size, uint64(size))
		for i := range in {
			in[i] %= 1000
		}
		lay := scanLayout(size)

		buf := upload(t, s, "buf", in)
		psums := upload(t, s, "psums", make([]uint32, size))
		if err := s.prefixSum(lay, buf, psums, 0); err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		got := download(t, s, psums, size)
		want := exclusiveScan(in)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("size %d: psums[%d] = %d, want %d", size, i, got[i], want[i])
			}
		}
		if got[size-1]+in[size-1] != sumOf(in) {
			t.Errorf("size %d: last prefix plus last count != total", size)
		}
	}
}

func TestPrefixSum_LevelBound(t *testing.T) {
	p := Params{DigitBits: 4, KeyBits: 32, WorkGroupSize: 8}
	s := newTestSorter(t, p)

	size := 64
	in := make([]uint32, size)
	for i := range in {
		in[i] = 1
	}

	// level Levels-1 carries the top bit of the last index; without it the
	// last cell only sees its own half
	short := scanLayout(size)
	short.Levels -= 2
	buf := upload(t, s, "buf", in)
	psums := upload(t, s, "psums", make([]uint32, size))
	if err := s.prefixSum(short, buf, psums, 0); err != nil {
		t.Fatalf("prefix sum: %v", err)
	}
	got := download(t, s, psums, size)
	if got[size-1] != uint32(size/2-1) {
		t.Fatalf("psums[last] with levels 0..%d = %d, want %d", short.Levels, got[size-1], size/2-1)
	}

	full := scanLayout(size)
	buf = upload(t, s, "buf", in)
	psums = upload(t, s, "psums", make([]uint32, size))
	if err := s.prefixSum(full, buf, psums, 0); err != nil {
		t.Fatalf("prefix sum: %v", err)
	}
	got = download(t, s, psums, size)
	if got[size-1] != uint32(size-1) {
		t.Errorf("psums[last] = %d, want %d", got[size-1], size-1)
	}
}

func TestPrefixSum_Wraparound(t *testing.T) {
	p := Params{DigitBits: 4, KeyBits: 32, WorkGroupSize: 8}
	s := newTestSorter(t, p)

	in := []uint32{0xFFFFFFFF, 2, 0xFFFFFFFF, 1, 0, 0, 0, 0}
	lay := scanLayout(len(in))
	buf := upload(t, s, "buf", in)
	psums := upload(t, s, "psums", make([]uint32, len(in)))
	if err := s.prefixSum(lay, buf, psums, 0); err != nil {
		t.Fatalf("prefix sum: %v", err)
	}
	got := download(t, s, psums, len(in))
	want := exclusiveScan(in)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("psums[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func sumOf(xs []uint32) uint32 {
	var acc uint32
	for _, v := range xs {
		acc += v
	}
	return acc
}
