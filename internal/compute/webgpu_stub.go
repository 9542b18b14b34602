//go:build !gpu

package compute

// WebGPUBackend is a placeholder when built without the gpu tag.
type WebGPUBackend struct{}

func NewWebGPUBackend() (*WebGPUBackend, error) {
	return nil, ErrNoGPU
}

func (g *WebGPUBackend) Name() string    { return "webgpu (not available)" }
func (g *WebGPUBackend) Available() bool { return false }
func (g *WebGPUBackend) Cleanup()        {}

func (g *WebGPUBackend) Alloc(label string, n int) (Buffer, error) { return nil, ErrNoGPU }
func (g *WebGPUBackend) Write(b Buffer, src []uint32) error        { return ErrNoGPU }
func (g *WebGPUBackend) Read(b Buffer, dst []uint32) error         { return ErrNoGPU }
func (g *WebGPUBackend) Compile(src Source) (Kernel, error)        { return nil, ErrNoGPU }
