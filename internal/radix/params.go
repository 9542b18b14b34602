package radix

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	DefaultDigitBits     = 4
	DefaultKeyBits       = 32
	DefaultWorkGroupSize = 128

	MaxWorkGroupSize = 1024

	// MaxElements keeps every prefix offset representable in a uint32.
	MaxElements = 1 << 31

	// MaxWideTable bounds the count table once digits wider than a
	// work-group make it outgrow the input.
	MaxWideTable = 1 << 26
)

// Params fixes the digit width, key width and work-group size of a Sorter.
type Params struct {
	DigitBits     int
	KeyBits       int
	WorkGroupSize int
}

func DefaultParams() Params {
	return Params{
		DigitBits:     DefaultDigitBits,
		KeyBits:       DefaultKeyBits,
		WorkGroupSize: DefaultWorkGroupSize,
	}
}

// Radix is the number of distinct digit values, 2^DigitBits.
func (p Params) Radix() int { return 1 << p.DigitBits }

// Iterations is the pass count, ceil(KeyBits / DigitBits).
func (p Params) Iterations() int {
	return (p.KeyBits + p.DigitBits - 1) / p.DigitBits
}

// Shift returns the bit offset of the digit sorted in the given pass.
func (p Params) Shift(pass int) uint32 {
	return uint32(pass * p.DigitBits)
}

// MaxKey is the largest key that fits in KeyBits.
func (p Params) MaxKey() uint32 {
	if p.KeyBits >= 32 {
		return math.MaxUint32
	}
	return 1<<p.KeyBits - 1
}

func (p Params) mask() uint32 {
	return uint32(p.Radix() - 1)
}

// Digit extracts the pass-th digit of key.
func (p Params) Digit(key uint32, pass int) uint32 {
	return (key >> p.Shift(pass)) & p.mask()
}

func (p Params) Validate() error {
	if p.DigitBits < 1 || p.DigitBits > 16 {
		return fmt.Errorf("%w: digit_bits must be in [1, 16], got %d", ErrParams, p.DigitBits)
	}
	if p.KeyBits < 1 || p.KeyBits > 32 {
		return fmt.Errorf("%w: key_bits must be in [1, 32], got %d", ErrParams, p.KeyBits)
	}
	if !isPowerOfTwo(p.WorkGroupSize) || p.WorkGroupSize > MaxWorkGroupSize {
		return fmt.Errorf("%w: work_group_size must be a power of two <= %d, got %d",
			ErrParams, MaxWorkGroupSize, p.WorkGroupSize)
	}
	return nil
}

// Layout holds the buffer geometry derived from the element count.
type Layout struct {
	N          int // elements
	WorkGroups int // wgscnt
	CountSize  int // cntsz, padded table length, a power of two >= TableSize
	TableSize  int // wgscnt * radix real cells
	Levels     int // ceil(log2(cntsz)); prefix levels run 0..Levels
}

// Layout validates n and derives the table geometry for it.
func (p Params) Layout(n int) (Layout, error) {
	if err := p.Validate(); err != nil {
		return Layout{}, err
	}
	if n > MaxElements {
		return Layout{}, fmt.Errorf("%w: %d elements exceed 2^31", ErrTooLarge, n)
	}
	if !isPowerOfTwo(n) {
		return Layout{}, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	if n < p.WorkGroupSize {
		return Layout{}, fmt.Errorf("%w: %d < %d", ErrTooSmall, n, p.WorkGroupSize)
	}

	// cntsz is wgscnt * work-group size; digits wider than a group widen the rows.
	wgs := n / p.WorkGroupSize
	cntsz := wgs * max(p.WorkGroupSize, p.Radix())
	if cntsz > MaxElements || cntsz > max(n, MaxWideTable) {
		return Layout{}, fmt.Errorf("%w: histogram table of %d cells for %d elements; use wider work-groups or narrower digits",
			ErrTooLarge, cntsz, n)
	}
	return Layout{
		N:          n,
		WorkGroups: wgs,
		CountSize:  cntsz,
		TableSize:  wgs * p.Radix(),
		Levels:     ceilLog2(cntsz),
	}, nil
}

func isPowerOfTwo(x int) bool {
	return x > 0 && x&(x-1) == 0
}

// ceilLog2 returns the smallest l with 2^l >= x.
func ceilLog2(x int) int {
	if x <= 1 {
		return 0
	}
	return bits.Len(uint(x - 1))
}
