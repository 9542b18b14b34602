package radix

import (
	"errors"
	"fmt"
)

// Precondition and configuration errors. All of them are returned before any
// stage is dispatched.
var (
	// ErrNotPowerOfTwo indicates an input length that is not an exact power of two.
	ErrNotPowerOfTwo = errors.New("radix: element count is not a power of two")

	// ErrTooSmall indicates an input that cannot fill a single work-group.
	ErrTooSmall = errors.New("radix: element count smaller than one work-group")

	ErrTooLarge = errors.New("radix: input or histogram table too large")

	// ErrKeyRange indicates a key with bits set above the configured key width.
	ErrKeyRange = errors.New("radix: key wider than key_bits")

	ErrParams = errors.New("radix: invalid parameters")
)

// StageError reports the pass and stage in which a device operation failed.
// A failed stage invalidates the whole sort.
type StageError struct {
	Pass    int
	Stage   string
	Wrapped error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("radix: pass %d, stage %s: %v", e.Pass, e.Stage, e.Wrapped)
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
