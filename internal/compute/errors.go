package compute

import "errors"

var (
	// ErrNoGPU is returned by the webgpu backend when it is not built in or no adapter exists.
	ErrNoGPU = errors.New("compute: gpu unavailable (build with -tags=gpu to enable)")

	ErrUnknownBackend = errors.New("compute: unknown backend")

	// ErrBadArgument indicates a kernel argument that is neither a Buffer of this backend nor a uint32.
	ErrBadArgument = errors.New("compute: bad kernel argument")

	ErrBadWorkSize = errors.New("compute: bad work size")

	// ErrCompile indicates a Source the backend cannot build.
	ErrCompile = errors.New("compute: kernel compile failed")

	ErrReleased = errors.New("compute: buffer released")

	ErrSize = errors.New("compute: size mismatch")
)
