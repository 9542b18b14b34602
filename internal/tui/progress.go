package tui

import (
	"fmt"
	"io"

	"github.com/san-kum/radix/internal/bench"
)

// Progress prints one overwriting status line per benchmark lap.
type Progress struct {
	w          io.Writer
	iterations int
}

func NewProgress(w io.Writer, iterations int) *Progress {
	return &Progress{w: w, iterations: iterations}
}

func (p *Progress) OnLap(l bench.Lap) {
	fmt.Fprintf(p.w, "\r  iter %d/%d  sorter %8.3f ms  reference %8.3f ms",
		l.Iteration+1, p.iterations, l.Sorter.Seconds()*1e3, l.Reference.Seconds()*1e3)
	if l.Iteration+1 == p.iterations {
		fmt.Fprintln(p.w)
	}
}
