package radix

import "time"

// PassObserver receives a snapshot after every pass. Attaching one makes the
// sorter read the histogram, prefix and key buffers back after each pass.
type PassObserver interface {
	ObservePass(ps PassStats)
}

// PassStats is a host copy of the pass buffers.
type PassStats struct {
	Pass     int
	Shift    uint32
	Layout   Layout
	Counts   []uint32 // group-major [wgscnt][radix]
	Psums    []uint32 // digit-major [radix][wgscnt]
	Keys     []uint32 // keys after the scatter
	Duration time.Duration
}

func (ps PassStats) radix() int {
	return ps.Layout.TableSize / ps.Layout.WorkGroups
}

// HistogramSum is the sum of all histogram cells; it equals n.
func (ps PassStats) HistogramSum() uint64 {
	var sum uint64
	for _, c := range ps.Counts {
		sum += uint64(c)
	}
	return sum
}

// DigitTotals sums the histogram per digit value across all groups.
func (ps PassStats) DigitTotals() []uint64 {
	radix := ps.radix()
	totals := make([]uint64, radix)
	for i, c := range ps.Counts {
		totals[i%radix] += uint64(c)
	}
	return totals
}

// LastCount is the count of the last cell in digit-major order: the highest
// digit of the last group.
func (ps PassStats) LastCount() uint32 {
	return ps.Counts[len(ps.Counts)-1]
}

// LastPrefix is the exclusive prefix of the last digit-major cell.
func (ps PassStats) LastPrefix() uint32 {
	return ps.Psums[len(ps.Psums)-1]
}

// ObserverFunc adapts a function to PassObserver.
type ObserverFunc func(ps PassStats)

func (f ObserverFunc) ObservePass(ps PassStats) { f(ps) }
