package radix

import (
	"fmt"

	"github.com/san-kum/radix/internal/compute"
)

// header declares the constants and scalar block shared by every kernel.
// Scalars arrive in params.a.xyzw then params.b.xyzw, in argument order.
func header(p Params) string {
	return fmt.Sprintf(`
		const WG: u32 = %du;
		const RADIX: u32 = %du;
		const MASK: u32 = %du;

		struct Params {
			a: vec4<u32>,
			b: vec4<u32>,
		}
	`, p.WorkGroupSize, p.Radix(), p.mask())
}

// entry is the entry point signature; grp and gid are linear across a 2-D dispatch.
const entry = `
		@compute @workgroup_size(WG)
		fn main(
			@builtin(workgroup_id) wid: vec3<u32>,
			@builtin(num_workgroups) nwg: vec3<u32>,
			@builtin(local_invocation_id) lid: vec3<u32>
		) {
			let grp = wid.y * nwg.x + wid.x;
			let gid = grp * WG + lid.x;
`

// resetSource zeroes the first len elements of a buffer.
//
// args: dst, len
func resetSource(p Params) compute.Source {
	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read_write> dst : array<u32>;
		@group(0) @binding(1) var<uniform> params : Params;
	` + entry + `
			if (gid < params.a.x) {
				dst[gid] = 0u;
			}
		}
	`
	return compute.Source{
		Name: "reset",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			dst, n := a.Buffers[0], int(a.Uints[0])
			for lid := 0; lid < g.Size; lid++ {
				i := g.Lane(lid)
				if i >= n {
					return
				}
				dst[i] = 0
			}
		},
	}
}
