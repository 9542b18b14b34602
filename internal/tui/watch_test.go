package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/radix/internal/bench"
	"github.com/san-kum/radix/internal/compute"
	"github.com/san-kum/radix/internal/radix"
)

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestModel_Laps(t *testing.T) {
	m := newModel("test", 4, 8, nil)
	m = update(t, m, lapMsg{Iteration: 0, Sorter: 2 * time.Millisecond, Reference: 8 * time.Millisecond})
	m = update(t, m, lapMsg{Iteration: 1, Sorter: 3 * time.Millisecond, Reference: 9 * time.Millisecond})

	if len(m.laps) != 2 || m.laps[1] != 0.003 {
		t.Errorf("unexpected laps %v", m.laps)
	}
	view := m.View()
	if !strings.Contains(view, "2/4") {
		t.Error("view missing progress counter")
	}
	if !strings.Contains(view, "3.000 ms") {
		t.Error("view missing last lap")
	}
}

func TestModel_Histogram(t *testing.T) {
	m := newModel("test", 1, 8, nil)
	totals := make([]uint64, 16)
	totals[15] = 100
	m = update(t, m, passMsg{pass: 2, totals: totals})

	view := m.View()
	if !strings.Contains(view, "pass 3/8") {
		t.Error("view missing pass label")
	}
	if !strings.Contains(view, "100") {
		t.Error("view missing bucket count")
	}
}

func TestModel_WideHistogramFolds(t *testing.T) {
	m := newModel("test", 1, 4, nil)
	totals := make([]uint64, 256)
	for i := range totals {
		totals[i] = 1
	}
	m.totals = totals

	if rows := strings.Count(m.histogram(10), "\n"); rows != 16 {
		t.Errorf("expected 16 rows, got %d", rows)
	}
}

func TestModel_Done(t *testing.T) {
	m := newModel("test", 1, 8, nil)
	m = update(t, m, doneMsg{res: &bench.Result{N: 1 << 20, GPUAvg: 0.5, CPUAvg: 1}})
	if !m.done || !strings.Contains(m.View(), "2.00x") {
		t.Errorf("summary missing speedup:\n%s", m.View())
	}

	m = newModel("test", 1, 8, nil)
	m = update(t, m, doneMsg{err: errors.New("boom")})
	if !strings.Contains(m.View(), "boom") {
		t.Error("view missing error")
	}
}

func TestModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := newModel("test", 1, 8, func() { cancelled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !cancelled {
		t.Error("quit did not cancel the run")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestWatch_QuitStopsRunBeforeReturning(t *testing.T) {
	backend := compute.NewCPUBackend(2)
	s, err := radix.New(backend, radix.DefaultParams())
	if err != nil {
		t.Fatalf("new sorter: %v", err)
	}

	in, keys := io.Pipe()
	t.Cleanup(func() { keys.Close() })

	var laps atomic.Int64
	var quit sync.Once
	cfg := bench.Config{
		NPow:       12,
		Iterations: 100000,
		OnLap: func(bench.Lap) {
			laps.Add(1)
			quit.Do(func() { go keys.Write([]byte("q")) })
		},
	}

	_, err = Watch(context.Background(), s, cfg,
		tea.WithInput(in), tea.WithOutput(io.Discard), tea.WithoutSignalHandler())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// releasing the backend right away must not overlap a running sort
	seen := laps.Load()
	backend.Cleanup()
	time.Sleep(20 * time.Millisecond)
	if got := laps.Load(); got != seen {
		t.Errorf("run kept going after Watch returned: %d laps, then %d", seen, got)
	}
	if seen >= int64(cfg.Iterations) {
		t.Errorf("run finished before quit took effect")
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline(nil, 10); got != "" {
		t.Errorf("expected empty sparkline, got %q", got)
	}
	got := sparkline([]float64{0, 7, 7, 0}, 4)
	if got != "▁██▁" {
		t.Errorf("got %q", got)
	}
	if n := len([]rune(sparkline(make([]float64, 100), 10))); n != 10 {
		t.Errorf("expected 10 runes, got %d", n)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2)
	p.OnLap(bench.Lap{Iteration: 0, Sorter: time.Millisecond})
	p.OnLap(bench.Lap{Iteration: 1, Sorter: time.Millisecond})

	out := buf.String()
	if !strings.Contains(out, "iter 2/2") || !strings.HasSuffix(out, "\n") {
		t.Errorf("unexpected output %q", out)
	}
}
