package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/radix/internal/bench"
	"github.com/san-kum/radix/internal/radix"
)

type lapMsg bench.Lap

type passMsg struct {
	pass   int
	totals []uint64
}

type doneMsg struct {
	res *bench.Result
	err error
}

type model struct {
	title      string
	iterations int
	passes     int

	laps   []float64
	refs   []float64
	pass   int
	totals []uint64

	res  *bench.Result
	err  error
	done bool

	started time.Time
	cancel  context.CancelFunc
	width   int
}

func newModel(title string, iterations, passes int, cancel context.CancelFunc) model {
	return model{
		title:      title,
		iterations: iterations,
		passes:     passes,
		laps:       make([]float64, 0, iterations),
		refs:       make([]float64, 0, iterations),
		started:    time.Now(),
		cancel:     cancel,
		width:      80,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case lapMsg:
		m.laps = append(m.laps, msg.Sorter.Seconds())
		m.refs = append(m.refs, msg.Reference.Seconds())
	case passMsg:
		m.pass = msg.pass
		m.totals = msg.totals
	case doneMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("             " + cyan.Render("r a d i x") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	status := green.Render("● running")
	switch {
	case m.done && m.err != nil:
		status = red.Render("✗ failed")
	case m.done:
		status = yellow.Render("○ done")
	}
	b.WriteString(fmt.Sprintf("   %s  %s\n", status, white.Render(m.title)))

	progress := 0.0
	if m.iterations > 0 {
		progress = float64(len(m.laps)) / float64(m.iterations)
	}
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar(progress, 36),
		dim.Render(fmt.Sprintf("%d/%d", len(m.laps), m.iterations)),
		dim.Render(time.Since(m.started).Truncate(time.Millisecond).String())))

	if len(m.laps) > 0 {
		last := len(m.laps) - 1
		b.WriteString(fmt.Sprintf("   %s %s  %s\n", dim.Render("sorter   "),
			magenta.Render(fmt.Sprintf("%9.3f ms", m.laps[last]*1e3)), cyan.Render(sparkline(m.laps, 24))))
		b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", dim.Render("reference"),
			magenta.Render(fmt.Sprintf("%9.3f ms", m.refs[last]*1e3)), cyan.Render(sparkline(m.refs, 24))))
	}

	if len(m.totals) > 0 {
		b.WriteString(fmt.Sprintf("   %s\n", dim.Render(fmt.Sprintf("digit histogram, pass %d/%d", m.pass+1, m.passes))))
		b.WriteString(m.histogram(32))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString(m.summary())
	}

	b.WriteString("\n" + dim.Render("   q quit") + "\n")
	return b.String()
}

func (m model) histogram(width int) string {
	var largest uint64
	for _, c := range m.totals {
		largest = max(largest, c)
	}
	if largest == 0 {
		return ""
	}
	// wide radices are folded into at most 16 rows
	rows := min(len(m.totals), 16)
	per := (len(m.totals) + rows - 1) / rows

	var b strings.Builder
	for r := 0; r*per < len(m.totals); r++ {
		lo, hi := r*per, min((r+1)*per, len(m.totals))
		var sum uint64
		for _, c := range m.totals[lo:hi] {
			sum += c
		}
		frac := float64(sum) / float64(largest*uint64(hi-lo))
		label := fmt.Sprintf("%4x", lo)
		if hi-lo > 1 {
			label = fmt.Sprintf("%4x+", lo)
		}
		b.WriteString(fmt.Sprintf("   %-6s %s %s\n", dim.Render(label),
			green.Render(strings.Repeat("█", int(frac*float64(width)))), dimmer.Render(fmt.Sprint(sum))))
	}
	return b.String()
}

func (m model) summary() string {
	if m.err != nil {
		return "   " + red.Render(m.err.Error()) + "\n"
	}
	if m.res == nil {
		return ""
	}
	r := m.res
	return fmt.Sprintf("   %s %.6f ± %.6f s  %s\n   %s %.6f ± %.6f s  %s\n   %s %.2fx\n",
		dim.Render("sorter   "), r.GPUAvg, r.GPUStd, cyan.Render(fmt.Sprintf("%.1f Mkeys/s", r.Throughput())),
		dim.Render("reference"), r.CPUAvg, r.CPUStd, cyan.Render(fmt.Sprintf("%.1f Mkeys/s", r.ReferenceThroughput())),
		dim.Render("speedup  "), r.Speedup())
}

// Watch runs a benchmark behind a live view until it finishes and the user quits.
// It returns only after the benchmark goroutine has stopped using s.
func Watch(ctx context.Context, s *radix.Sorter, cfg bench.Config, opts ...tea.ProgramOption) (*bench.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	title := fmt.Sprintf("n=2^%d  %s  %d-bit digits", cfg.NPow, s.Backend().Name(), s.Params().DigitBits)
	p := tea.NewProgram(newModel(title, cfg.Iterations, s.Params().Iterations(), cancel), opts...)

	s.AddObserver(radix.ObserverFunc(func(ps radix.PassStats) {
		p.Send(passMsg{pass: ps.Pass, totals: ps.DigitTotals()})
	}))
	onLap := cfg.OnLap
	cfg.OnLap = func(l bench.Lap) {
		if onLap != nil {
			onLap(l)
		}
		p.Send(lapMsg(l))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := bench.Run(ctx, s, cfg)
		p.Send(doneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return nil, err
	}
	m := final.(model)
	if !m.done {
		return nil, context.Canceled
	}
	return m.res, m.err
}
