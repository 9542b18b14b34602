package metrics

import (
	"time"

	"github.com/san-kum/radix/internal/radix"
)

type PassTimer struct {
	name      string
	durations []time.Duration
}

func NewPassTimer() *PassTimer {
	return &PassTimer{name: "pass_time"}
}

func (p *PassTimer) Name() string { return p.name }

func (p *PassTimer) ObservePass(ps radix.PassStats) {
	p.durations = append(p.durations, ps.Duration)
}

func (p *PassTimer) Durations() []time.Duration {
	return p.durations
}

// Value is the total observed pass time in seconds.
func (p *PassTimer) Value() float64 {
	var total time.Duration
	for _, d := range p.durations {
		total += d
	}
	return total.Seconds()
}

func (p *PassTimer) Reset() {
	p.durations = nil
}
