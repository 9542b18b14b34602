package metrics

import (
	"github.com/san-kum/radix/internal/radix"
)

// BucketSkew tracks the largest digit bucket relative to a uniform split.
// Uniform keys give values close to 1; constant keys give the radix.
type BucketSkew struct {
	name    string
	maxSkew float64
	last    []uint64
}

func NewBucketSkew() *BucketSkew {
	return &BucketSkew{name: "bucket_skew"}
}

func (b *BucketSkew) Name() string { return b.name }

func (b *BucketSkew) ObservePass(ps radix.PassStats) {
	totals := ps.DigitTotals()
	b.last = totals
	if ps.Layout.N == 0 || len(totals) == 0 {
		return
	}

	var largest uint64
	for _, c := range totals {
		largest = max(largest, c)
	}
	skew := float64(largest) * float64(len(totals)) / float64(ps.Layout.N)
	b.maxSkew = max(b.maxSkew, skew)
}

// LastTotals is the per-digit histogram of the most recent pass.
func (b *BucketSkew) LastTotals() []uint64 {
	return b.last
}

func (b *BucketSkew) Value() float64 {
	return b.maxSkew
}

func (b *BucketSkew) Reset() {
	b.maxSkew = 0
	b.last = nil
}
