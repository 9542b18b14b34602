package radix

import (
	"github.com/san-kum/radix/internal/compute"
)

// The prefix sum runs levels p = 0..Levels over a power-of-two table.
//
// reduce(p) is an in-place up-sweep: every k with (k+1) % 2^p == 0 adds the
// block of 2^(p-1) ending just before its own, so buf[k] then holds the sum
// of the 2^p block ending at k. The block it reads is never written at the
// same level.
//
// write(p) adds, for every k with bit p set, the 2^p block ending at
// (k>>p<<p)-1 into psums[k]. Summed over all set bits these blocks tile
// [0, k), which makes psums the exclusive prefix sum once the last level ran.
// write(p) must read buf before reduce(p+1) overwrites the block ends, which
// the per-dispatch barrier guarantees.

// prefixReduceSource is the up-sweep of one level.
//
// args: buf, size, p
func prefixReduceSource(p Params) compute.Source {
	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read_write> buf : array<u32>;
		@group(0) @binding(1) var<uniform> params : Params;
	` + entry + `
			let level = params.a.y;
			if (gid >= params.a.x || level == 0u || level >= 32u) {
				return;
			}
			let block = 1u << level;
			if ((gid + 1u) % block == 0u) {
				buf[gid] = buf[gid] + buf[gid - (block >> 1u)];
			}
		}
	`
	return compute.Source{
		Name: "prefix_sum_reduce",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			buf := a.Buffers[0]
			size, level := int(a.Uints[0]), a.Uints[1]
			if level == 0 || level >= 32 {
				return
			}
			block := 1 << level
			for lid := 0; lid < g.Size; lid++ {
				k := g.Lane(lid)
				if k >= size {
					return
				}
				if (k+1)%block == 0 {
					buf[k] += buf[k-block/2]
				}
			}
		},
	}
}

// prefixWriteSource folds one level's block sums into psums.
//
// args: buf, psums, size, p
func prefixWriteSource(p Params) compute.Source {
	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read> buf : array<u32>;
		@group(0) @binding(1) var<storage, read_write> psums : array<u32>;
		@group(0) @binding(2) var<uniform> params : Params;
	` + entry + `
			let level = params.a.y;
			if (gid >= params.a.x || level >= 32u) {
				return;
			}
			if (((gid >> level) & 1u) == 1u) {
				psums[gid] = psums[gid] + buf[((gid >> level) << level) - 1u];
			}
		}
	`
	return compute.Source{
		Name: "prefix_sum_write",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			buf, psums := a.Buffers[0], a.Buffers[1]
			size, level := int(a.Uints[0]), a.Uints[1]
			if level >= 32 {
				return
			}
			for lid := 0; lid < g.Size; lid++ {
				k := g.Lane(lid)
				if k >= size {
					return
				}
				if (k>>level)&1 == 1 {
					psums[k] += buf[(k>>level<<level)-1]
				}
			}
		},
	}
}

// prefixSum zeroes psums and computes the exclusive prefix sum of buf into it.
// buf is consumed.
func (s *Sorter) prefixSum(lay Layout, buf, psums compute.Buffer, pass int) error {
	ws := compute.NewWorkSize(s.params.WorkGroupSize, lay.CountSize)
	size := uint32(lay.CountSize)

	if err := s.k.reset.Exec(ws, psums, size); err != nil {
		return &StageError{Pass: pass, Stage: "reset psums", Wrapped: err}
	}
	for p := 0; p <= lay.Levels; p++ {
		if err := s.k.reduce.Exec(ws, buf, size, uint32(p)); err != nil {
			return &StageError{Pass: pass, Stage: "prefix_sum_reduce", Wrapped: err}
		}
		if err := s.k.write.Exec(ws, buf, psums, size, uint32(p)); err != nil {
			return &StageError{Pass: pass, Stage: "prefix_sum_write", Wrapped: err}
		}
	}
	return nil
}
