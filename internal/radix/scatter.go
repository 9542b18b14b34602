package radix

import (
	"github.com/san-kum/radix/internal/compute"
)

// reorderSource scatters every element to psums[d*wgscnt + g] plus its rank
// among the elements of group g with the same digit that precede it. Ranks
// follow lane order, so each pass is stable.
//
// args: src, dst, psums, n, wgscnt, shift
func reorderSource(p Params) compute.Source {
	radix := p.Radix()
	mask := p.mask()

	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read> src : array<u32>;
		@group(0) @binding(1) var<storage, read_write> dst : array<u32>;
		@group(0) @binding(2) var<storage, read> psums : array<u32>;
		@group(0) @binding(3) var<uniform> params : Params;

		var<workgroup> digits : array<u32, WG>;
	` + entry + `
			let n = params.a.x;
			let wgscnt = params.a.y;
			let shift = params.a.z;
			if (grp >= wgscnt) {
				return;
			}

			var value = 0u;
			var digit = RADIX;
			if (gid < n) {
				value = src[gid];
				digit = (value >> shift) & MASK;
			}
			digits[lid.x] = digit;
			workgroupBarrier();

			if (gid >= n) {
				return;
			}
			var rank = 0u;
			for (var j = 0u; j < lid.x; j++) {
				if (digits[j] == digit) {
					rank++;
				}
			}
			let idx = psums[digit * wgscnt + grp] + rank;
			if (idx < n) {
				dst[idx] = value;
			}
		}
	`
	return compute.Source{
		Name: "reorder",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			src, dst, psums := a.Buffers[0], a.Buffers[1], a.Buffers[2]
			n, wgscnt, shift := int(a.Uints[0]), int(a.Uints[1]), a.Uints[2]
			if g.ID >= wgscnt {
				return
			}

			next := make([]uint32, radix)
			for d := range next {
				next[d] = psums[d*wgscnt+g.ID]
			}
			for lid := 0; lid < g.Size; lid++ {
				i := g.Lane(lid)
				if i >= n {
					return
				}
				v := src[i]
				d := (v >> shift) & mask
				if int(next[d]) < n {
					dst[next[d]] = v
				}
				next[d]++
			}
		},
	}
}

func (s *Sorter) scatter(lay Layout, src, dst, psums compute.Buffer, pass int) error {
	err := s.k.reorder.Exec(compute.NewWorkSize(s.params.WorkGroupSize, lay.N),
		src, dst, psums, uint32(lay.N), uint32(lay.WorkGroups), s.params.Shift(pass))
	if err != nil {
		return &StageError{Pass: pass, Stage: "reorder", Wrapped: err}
	}
	return nil
}
