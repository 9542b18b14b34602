package radix

import "github.com/san-kum/radix/internal/compute"

// kernels are the compiled stages of one Sorter.
type kernels struct {
	reset     compute.Kernel
	count     compute.Kernel
	transpose compute.Kernel
	reduce    compute.Kernel
	write     compute.Kernel
	reorder   compute.Kernel
}

// Sources returns every kernel the pipeline dispatches, in pipeline order.
func Sources(p Params) []compute.Source {
	return []compute.Source{
		resetSource(p),
		countSource(p),
		transposeSource(p),
		prefixReduceSource(p),
		prefixWriteSource(p),
		reorderSource(p),
	}
}

func compileKernels(b compute.Backend, p Params) (*kernels, error) {
	compiled := make([]compute.Kernel, 0, 6)
	for _, src := range Sources(p) {
		k, err := b.Compile(src)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, k)
	}
	return &kernels{
		reset:     compiled[0],
		count:     compiled[1],
		transpose: compiled[2],
		reduce:    compiled[3],
		write:     compiled[4],
		reorder:   compiled[5],
	}, nil
}
