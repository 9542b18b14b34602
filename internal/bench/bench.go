// Package bench times the radix sorter against a sequential CPU sort and
// validates every result.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/radix/internal/radix"
	"github.com/san-kum/radix/internal/verify"
)

type Config struct {
	NPow       int
	Iterations int
	Seed       int64
	Max        uint32

	// OnLap, if set, is called after every timed sort.
	OnLap func(Lap)
}

type Lap struct {
	Iteration int
	Sorter    time.Duration
	Reference time.Duration
}

type Result struct {
	N          int
	Iterations int
	Backend    string
	Params     radix.Params
	Seed       int64

	SorterLaps    []time.Duration
	ReferenceLaps []time.Duration

	// seconds
	CPUAvg, CPUStd float64
	GPUAvg, GPUStd float64
}

// Throughput is the sorter rate in millions of keys per second.
func (r *Result) Throughput() float64 {
	return mkeys(r.N, r.GPUAvg)
}

// ReferenceThroughput is the sequential rate in millions of keys per second.
func (r *Result) ReferenceThroughput() float64 {
	return mkeys(r.N, r.CPUAvg)
}

func (r *Result) Speedup() float64 {
	if r.GPUAvg == 0 {
		return 0
	}
	return r.CPUAvg / r.GPUAvg
}

func mkeys(n int, seconds float64) float64 {
	if seconds == 0 {
		return 0
	}
	return float64(n) / 1e6 / seconds
}

// Run sorts the same generated input cfg.Iterations times with s and with the
// reference sort. Any result that differs from the reference fails the run.
func Run(ctx context.Context, s *radix.Sorter, cfg Config) (*Result, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be >= 1", radix.ErrParams)
	}
	if cfg.Max == 0 {
		cfg.Max = min(DefaultMax, s.Params().MaxKey())
	}
	n := 1 << cfg.NPow
	in := Generate(n, cfg.Seed, cfg.Max)
	slog.Debug("input generated", "n", n, "seed", cfg.Seed)

	ref, sorter := NewTimer(), NewTimer()
	var want []uint32
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref.Restart()
		want = verify.Reference(in)
		refLap := ref.NextLap()

		sorter.Restart()
		got, err := s.Sort(in)
		if err != nil {
			return nil, fmt.Errorf("bench: iteration %d: %w", i, err)
		}
		lap := sorter.NextLap()

		if err := verify.Compare(got, want); err != nil {
			return nil, fmt.Errorf("bench: iteration %d: %w", i, err)
		}
		if cfg.OnLap != nil {
			cfg.OnLap(Lap{Iteration: i, Sorter: lap, Reference: refLap})
		}
	}

	return &Result{
		N:             n,
		Iterations:    cfg.Iterations,
		Backend:       s.Backend().Name(),
		Params:        s.Params(),
		Seed:          cfg.Seed,
		SorterLaps:    sorter.Laps(),
		ReferenceLaps: ref.Laps(),
		CPUAvg:        ref.LapAvg(),
		CPUStd:        ref.LapStd(),
		GPUAvg:        sorter.LapAvg(),
		GPUStd:        sorter.LapStd(),
	}, nil
}
