// Package metrics holds pass observers that summarize a sort as a single value.
package metrics

import "github.com/san-kum/radix/internal/radix"

type Metric interface {
	radix.PassObserver
	Name() string
	Value() float64
	Reset()
}

var (
	_ Metric = (*Invariants)(nil)
	_ Metric = (*PassTimer)(nil)
	_ Metric = (*BucketSkew)(nil)
)
