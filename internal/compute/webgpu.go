//go:build gpu

package compute

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

const (
	maxGroupsPerDim = 65535
	// scalar arguments are passed in a uniform array<vec4<u32>, 2>
	maxUints = 8
)

// WebGPUBackend runs WGSL kernels through wgpu.
type WebGPUBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	name     string
}

func NewWebGPUBackend() (*WebGPUBackend, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("%w: failed to create WebGPU instance", ErrNoGPU)
	}

	var adapter *wgpu.Adapter
	var err error
	for _, opts := range []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	} {
		adapter, err = instance.RequestAdapter(opts)
		if err == nil && adapter != nil {
			break
		}
		slog.Debug("adapter request failed", "err", err)
	}
	if adapter == nil {
		instance.Release()
		return nil, fmt.Errorf("%w: all adapter attempts failed: %v", ErrNoGPU, err)
	}

	info := adapter.GetInfo()
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrNoGPU, err)
	}
	slog.Debug("webgpu adapter selected", "name", info.Name, "vendor", info.VendorName)

	return &WebGPUBackend{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		name:     fmt.Sprintf("webgpu (%s)", info.Name),
	}, nil
}

func (g *WebGPUBackend) Name() string    { return g.name }
func (g *WebGPUBackend) Available() bool { return g.device != nil && g.queue != nil }

func (g *WebGPUBackend) Cleanup() {
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
	}
	if g.instance != nil {
		g.instance.Release()
	}
}

type gpuBuffer struct {
	owner *WebGPUBackend
	label string
	n     int
	buf   *wgpu.Buffer
}

func (b *gpuBuffer) Label() string { return b.label }
func (b *gpuBuffer) Len() int      { return b.n }

func (b *gpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Destroy()
		b.buf.Release()
		b.buf = nil
	}
}

func (g *WebGPUBackend) Alloc(label string, n int) (Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: alloc %s of %d elements", ErrSize, label, n)
	}
	buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(n * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	return &gpuBuffer{owner: g, label: label, n: n, buf: buf}, nil
}

func (g *WebGPUBackend) buffer(b Buffer) (*gpuBuffer, error) {
	gb, ok := b.(*gpuBuffer)
	if !ok || gb.owner != g {
		return nil, fmt.Errorf("%w: buffer %q belongs to another backend", ErrBadArgument, b.Label())
	}
	if gb.buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrReleased, gb.label)
	}
	return gb, nil
}

func (g *WebGPUBackend) Write(b Buffer, src []uint32) error {
	gb, err := g.buffer(b)
	if err != nil {
		return err
	}
	if len(src) > gb.n {
		return fmt.Errorf("%w: write %d into %s[%d]", ErrSize, len(src), gb.label, gb.n)
	}
	if len(src) == 0 {
		return nil
	}
	g.queue.WriteBuffer(gb.buf, 0, wgpu.ToBytes(src))
	return nil
}

// Read copies the buffer through a mapped staging buffer.
func (g *WebGPUBackend) Read(b Buffer, dst []uint32) error {
	gb, err := g.buffer(b)
	if err != nil {
		return err
	}
	if len(dst) > gb.n {
		return fmt.Errorf("%w: read %d from %s[%d]", ErrSize, len(dst), gb.label, gb.n)
	}
	if len(dst) == 0 {
		return nil
	}

	sizeBytes := uint64(len(dst) * 4)
	staging, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: gb.label + "_staging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create staging buffer: %w", err)
	}
	defer staging.Release()

	enc, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	enc.CopyBufferToBuffer(gb.buf, 0, staging, 0, sizeBytes)
	cmd, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		return fmt.Errorf("failed to finish command: %w", err)
	}
	g.queue.Submit(cmd)
	cmd.Release()

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return fmt.Errorf("MapAsync failed: %w", err)
	}

	timeout := time.After(10 * time.Second)
Loop:
	for {
		g.device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-timeout:
			return fmt.Errorf("read %s timed out", gb.label)
		default:
			time.Sleep(100 * time.Microsecond)
		}
	}
	if mapErr != nil {
		return mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return fmt.Errorf("failed to get mapped range")
	}
	copy(dst, wgpu.FromBytes[uint32](data))
	staging.Unmap()
	return nil
}

func (g *WebGPUBackend) Compile(src Source) (Kernel, error) {
	if src.WGSL == "" {
		return nil, fmt.Errorf("%w: %s has no WGSL source", ErrCompile, src.Name)
	}
	module, err := g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Name + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, src.Name, err)
	}
	defer module.Release()

	pipeline, err := g.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   src.Name + "_pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, src.Name, err)
	}
	return &gpuKernel{backend: g, name: src.Name, pipeline: pipeline}, nil
}

type gpuKernel struct {
	backend  *WebGPUBackend
	name     string
	pipeline *wgpu.ComputePipeline
}

func (k *gpuKernel) Name() string { return k.name }

// Exec encodes one compute pass, submits it and waits for the queue to drain.
// Buffers bind at 0..k-1, the scalar uniform at binding k.
func (k *gpuKernel) Exec(ws WorkSize, args ...any) error {
	if err := ws.validate(); err != nil {
		return err
	}
	g := k.backend

	var entries []wgpu.BindGroupEntry
	uints := make([]uint32, maxUints)
	nu := 0
	for i, arg := range args {
		switch v := arg.(type) {
		case Buffer:
			gb, err := g.buffer(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k.name, err)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(len(entries)),
				Buffer:  gb.buf,
				Size:    gb.buf.GetSize(),
			})
		case uint32:
			if nu == maxUints {
				return fmt.Errorf("%s: %w: more than %d scalars", k.name, ErrBadArgument, maxUints)
			}
			uints[nu] = v
			nu++
		default:
			return fmt.Errorf("%s: %w: arg %d has type %T", k.name, ErrBadArgument, i, arg)
		}
	}

	params, err := g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    k.name + "_params",
		Contents: wgpu.ToBytes(uints),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: params buffer: %w", k.name, err)
	}
	defer params.Release()
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: uint32(len(entries)),
		Buffer:  params,
		Size:    params.GetSize(),
	})

	bg, err := g.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.name + "_bind",
		Layout:  k.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s: bind group: %w", k.name, err)
	}
	defer bg.Release()

	groups := ws.Groups()
	gx := groups
	if gx > maxGroupsPerDim {
		gx = maxGroupsPerDim
	}
	gy := (groups + gx - 1) / gx

	enc, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("%s: create encoder: %w", k.name, err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(uint32(gx), uint32(gy), 1)
	pass.End()

	cmd, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		return fmt.Errorf("%s: finish command buffer: %w", k.name, err)
	}
	g.queue.Submit(cmd)
	cmd.Release()
	g.device.Poll(true, nil)
	return nil
}
