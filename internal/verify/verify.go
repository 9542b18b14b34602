// Package verify checks sort results against a sequential reference.
package verify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// chunk is the smallest slice handed to one goroutine.
const chunk = 1 << 16

// MismatchError reports the first position where two results differ.
type MismatchError struct {
	Index int
	Got   uint32
	Want  uint32
}

func (e *MismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("verify: length %d, want %d", e.Got, e.Want)
	}
	return fmt.Sprintf("verify: element %d is %d, want %d", e.Index, e.Got, e.Want)
}

// Reference returns a sorted copy of in.
func Reference(in []uint32) []uint32 {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// Compare returns a *MismatchError for the first element where got and want
// differ. A length mismatch is reported with Index -1.
func Compare(got, want []uint32) error {
	if len(got) != len(want) {
		return &MismatchError{Index: -1, Got: uint32(len(got)), Want: uint32(len(want))}
	}
	var mu sync.Mutex
	first := len(got)
	err := forChunks(len(got), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if got[i] != want[i] {
				mu.Lock()
				first = min(first, i)
				mu.Unlock()
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if first < len(got) {
		return &MismatchError{Index: first, Got: got[first], Want: want[first]}
	}
	return nil
}

func IsSorted(xs []uint32) bool {
	err := forChunks(len(xs), func(lo, hi int) error {
		// include the boundary with the previous chunk
		if lo > 0 {
			lo--
		}
		if !slices.IsSorted(xs[lo:hi]) {
			return errUnsorted
		}
		return nil
	})
	return err == nil
}

// IsPermutation reports whether a and b hold the same multiset of values.
func IsPermutation(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	var sa, sb []uint32
	g := new(errgroup.Group)
	g.Go(func() error { sa = Reference(a); return nil })
	g.Go(func() error { sb = Reference(b); return nil })
	g.Wait()
	return Compare(sa, sb) == nil
}

var errUnsorted = errors.New("verify: not sorted")

// forChunks runs fn over [0, n) split into contiguous chunks, in parallel.
// The first error cancels the chunks that have not started yet.
func forChunks(n int, fn func(lo, hi int) error) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
