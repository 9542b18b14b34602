package radix

import (
	"github.com/san-kum/radix/internal/compute"
)

// transposeSource turns the group-major [rows][cols] counts table into the
// digit-major [cols][rows] layout. Every output cell gathers exactly one input
// cell; cells past rows*cols are the zero padding of the cntsz table.
//
// args: counts, buf, rows, cols, size
func transposeSource(p Params) compute.Source {
	wgsl := header(p) + `
		@group(0) @binding(0) var<storage, read> counts : array<u32>;
		@group(0) @binding(1) var<storage, read_write> buf : array<u32>;
		@group(0) @binding(2) var<uniform> params : Params;
	` + entry + `
			let rows = params.a.x;
			let cols = params.a.y;
			if (gid >= params.a.z) {
				return;
			}
			let col = gid / rows;
			let row = gid % rows;
			if (col < cols) {
				buf[gid] = counts[row * cols + col];
			} else {
				buf[gid] = 0u;
			}
		}
	`
	return compute.Source{
		Name: "matrix_transpose",
		WGSL: wgsl,
		Host: func(g compute.Group, a compute.Args) {
			counts, buf := a.Buffers[0], a.Buffers[1]
			rows, cols, size := int(a.Uints[0]), int(a.Uints[1]), int(a.Uints[2])
			for lid := 0; lid < g.Size; lid++ {
				i := g.Lane(lid)
				if i >= size {
					return
				}
				col, row := i/rows, i%rows
				if col < cols {
					buf[i] = counts[row*cols+col]
				} else {
					buf[i] = 0
				}
			}
		},
	}
}

func (s *Sorter) transpose(lay Layout, counts, buf compute.Buffer, pass int) error {
	err := s.k.transpose.Exec(compute.NewWorkSize(s.params.WorkGroupSize, lay.CountSize),
		counts, buf, uint32(lay.WorkGroups), uint32(s.params.Radix()), uint32(lay.CountSize))
	if err != nil {
		return &StageError{Pass: pass, Stage: "transpose", Wrapped: err}
	}
	return nil
}
