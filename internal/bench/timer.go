package bench

import (
	"math"
	"time"
)

// Timer records laps. A lap runs from the last Restart or NextLap.
type Timer struct {
	start time.Time
	laps  []time.Duration
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Restart moves the lap start to now without recording a lap.
func (t *Timer) Restart() {
	t.start = time.Now()
}

// NextLap records the time since the lap start and starts the next lap.
func (t *Timer) NextLap() time.Duration {
	now := time.Now()
	lap := now.Sub(t.start)
	t.laps = append(t.laps, lap)
	t.start = now
	return lap
}

func (t *Timer) Laps() []time.Duration {
	out := make([]time.Duration, len(t.laps))
	copy(out, t.laps)
	return out
}

// LapAvg is the mean lap in seconds.
func (t *Timer) LapAvg() float64 {
	return mean(t.laps)
}

// LapStd is the population standard deviation of the laps in seconds.
func (t *Timer) LapStd() float64 {
	return std(t.laps)
}

func mean(laps []time.Duration) float64 {
	if len(laps) == 0 {
		return 0
	}
	var sum float64
	for _, l := range laps {
		sum += l.Seconds()
	}
	return sum / float64(len(laps))
}

func std(laps []time.Duration) float64 {
	if len(laps) == 0 {
		return 0
	}
	m := mean(laps)
	var sq float64
	for _, l := range laps {
		d := l.Seconds() - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(laps)))
}
