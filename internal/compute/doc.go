// Package compute provides the data-parallel devices the radix pipeline runs on.
//
// Two backends are available:
//
//   - WebGPU: WGSL compute kernels dispatched through wgpu (build with -tags=gpu)
//   - CPU: work-groups scheduled on a persistent worker pool, always available
//
// A kernel is described once by a Source carrying both its WGSL text and a host
// implementation; each backend compiles the half it understands:
//
//	backend, err := compute.Open("auto", 0)
//	k, err := backend.Compile(src)
//	err = k.Exec(compute.NewWorkSize(128, n), in, out, uint32(shift))
//
// Exec returns only after every lane finished, so consecutive dispatches are
// ordered by a full barrier.
package compute
