package metrics

import (
	"fmt"
	"math/bits"

	"github.com/san-kum/radix/internal/radix"
)

// Invariants checks every pass for conservation of the element count, a
// monotone prefix table, and keys ordered by the digits consumed so far.
type Invariants struct {
	name       string
	passes     int
	failed     int
	violations []string
}

func NewInvariants() *Invariants {
	return &Invariants{name: "invariants"}
}

func (m *Invariants) Name() string { return m.name }

func (m *Invariants) ObservePass(ps radix.PassStats) {
	m.passes++
	before := len(m.violations)
	defer func() {
		if len(m.violations) > before {
			m.failed++
		}
	}()
	n := ps.Layout.N

	if sum := ps.HistogramSum(); sum != uint64(n) {
		m.fail(ps.Pass, "histogram sums to %d, want %d", sum, n)
	}
	if last := uint64(ps.LastPrefix()) + uint64(ps.LastCount()); last != uint64(n) {
		m.fail(ps.Pass, "last prefix plus last count is %d, want %d", last, n)
	}
	for i := 1; i < len(ps.Psums); i++ {
		if ps.Psums[i] < ps.Psums[i-1] {
			m.fail(ps.Pass, "prefix table decreases at %d", i)
			break
		}
	}

	mask := lowMask(ps)
	for i := 1; i < len(ps.Keys); i++ {
		if ps.Keys[i]&mask < ps.Keys[i-1]&mask {
			m.fail(ps.Pass, "keys %d and %d out of order in the low bits", i-1, i)
			break
		}
	}
}

// lowMask covers every digit sorted up to and including this pass.
func lowMask(ps radix.PassStats) uint32 {
	digitBits := uint32(bits.Len(uint(ps.Layout.TableSize/ps.Layout.WorkGroups)) - 1)
	width := ps.Shift + digitBits
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<width - 1
}

func (m *Invariants) fail(pass int, format string, args ...any) {
	m.violations = append(m.violations, fmt.Sprintf("pass %d: ", pass)+fmt.Sprintf(format, args...))
}

func (m *Invariants) Violations() []string {
	return m.violations
}

// Value is the fraction of clean passes, 1 when nothing was observed.
func (m *Invariants) Value() float64 {
	if m.passes == 0 {
		return 1.0
	}
	return 1.0 - float64(m.failed)/float64(m.passes)
}

func (m *Invariants) Reset() {
	m.passes = 0
	m.failed = 0
	m.violations = nil
}
