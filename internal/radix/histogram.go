package radix

import (
	"github.com/san-kum/radix/internal/compute"
)

// countSource builds the per-group digit histogram. Lanes of a group
// accumulate into group-local counters and the group folds them into its row
// of counts with one write per cell, so no two lanes ever race on a cell.
//
// args: src, counts, n, shift, wgscnt
func countSource(p Params) compute.Source {
	radix := p.Radix()
	mask := p.mask()

	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read> src : array<u32>;
		@group(0) @binding(1) var<storage, read_write> counts : array<u32>;
		@group(0) @binding(2) var<uniform> params : Params;

		var<workgroup> hist : array<atomic<u32>, RADIX>;
	` + entry + `
			if (grp >= params.a.z) {
				return;
			}
			for (var d = lid.x; d < RADIX; d += WG) {
				atomicStore(&hist[d], 0u);
			}
			workgroupBarrier();

			if (gid < params.a.x) {
				let digit = (src[gid] >> params.a.y) & MASK;
				atomicAdd(&hist[digit], 1u);
			}
			workgroupBarrier();

			for (var d = lid.x; d < RADIX; d += WG) {
				let cell = grp * RADIX + d;
				counts[cell] = counts[cell] + atomicLoad(&hist[d]);
			}
		}
	`
	return compute.Source{
		Name: "count",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			src, counts := a.Buffers[0], a.Buffers[1]
			n, shift, wgscnt := int(a.Uints[0]), a.Uints[1], int(a.Uints[2])
			if g.ID >= wgscnt {
				return
			}

			hist := make([]uint32, radix)
			for lid := 0; lid < g.Size; lid++ {
				i := g.Lane(lid)
				if i >= n {
					break
				}
				hist[(src[i]>>shift)&mask]++
			}

			row := counts[g.ID*radix : (g.ID+1)*radix]
			for d, c := range hist {
				row[d] += c
			}
		},
	}
}

// buildHistogram zeroes counts and fills it for the given pass.
func (s *Sorter) buildHistogram(lay Layout, src, counts compute.Buffer, pass int) error {
	wg := s.params.WorkGroupSize
	if err := s.k.reset.Exec(compute.NewWorkSize(wg, lay.CountSize), counts, uint32(lay.CountSize)); err != nil {
		return &StageError{Pass: pass, Stage: "reset counts", Wrapped: err}
	}
	err := s.k.count.Exec(compute.NewWorkSize(wg, lay.N),
		src, counts, uint32(lay.N), s.params.Shift(pass), uint32(lay.WorkGroups))
	if err != nil {
		return &StageError{Pass: pass, Stage: "count", Wrapped: err}
	}
	return nil
}
