package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/radix/internal/bench"
	"github.com/san-kum/radix/internal/compute"
	"github.com/san-kum/radix/internal/config"
	"github.com/san-kum/radix/internal/export"
	"github.com/san-kum/radix/internal/metrics"
	"github.com/san-kum/radix/internal/radix"
	"github.com/san-kum/radix/internal/storage"
	"github.com/san-kum/radix/internal/tui"
)

var (
	dataDir string
	verbose bool

	configFile string
	preset     string
	device     string
	workers    int
	digitBits  int
	keyBits    int
	wgSize     int

	nPow       int
	iterations int
	seed       int64

	check    bool
	progress bool
	observe  bool
	noSave   bool
	outFile  string
	svgFile  string
	onlyPass int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "radix",
		Short:         "data-parallel LSD radix sort lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".radix", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sortCmd := &cobra.Command{
		Use:   "sort [file]",
		Short: "sort whitespace separated uint32 keys from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sortKeys,
	}
	addSorterFlags(sortCmd)
	sortCmd.Flags().BoolVar(&check, "check", false, "verify the result against a sequential sort")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the sorter against a sequential sort",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	addSorterFlags(benchCmd)
	addBenchFlags(benchCmd)
	benchCmd.Flags().BoolVar(&progress, "progress", false, "print every lap")
	benchCmd.Flags().BoolVar(&observe, "observe", false, "check pass invariants (reads buffers back after every pass)")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "benchmark with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addSorterFlags(watchCmd)
	addBenchFlags(watchCmd)

	histogramCmd := &cobra.Command{
		Use:   "histogram",
		Short: "plot the digit histogram of every pass",
		Args:  cobra.NoArgs,
		RunE:  plotHistogram,
	}
	addSorterFlags(histogramCmd)
	histogramCmd.Flags().IntVar(&nPow, "npow", config.DefaultNPow, "sort 2^npow keys")
	histogramCmd.Flags().Int64Var(&seed, "seed", 0, "input seed")
	histogramCmd.Flags().IntVar(&onlyPass, "pass", -1, "plot a single pass")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list benchmark runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the laps of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also write a lap chart as svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIGIT\tKEY\tWG\tPASSES\tN\tITERS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t2^%d\t%d\n", name, p.DigitBits, p.KeyBits,
					p.WorkGroupSize, p.Params().Iterations(), p.Bench.NPow, p.Bench.Iterations)
			}
			return w.Flush()
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "list compute backends",
		Args:  cobra.NoArgs,
		RunE:  listDevices,
	}

	rootCmd.AddCommand(sortCmd, benchCmd, watchCmd, histogramCmd, listCmd, plotCmd, exportCmd, presetsCmd, devicesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func addSorterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&device, "device", config.DefaultDevice, "backend: "+strings.Join(compute.Names(), " | "))
	cmd.Flags().IntVar(&workers, "workers", 0, "cpu backend workers (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&digitBits, "digit-bits", radix.DefaultDigitBits, "bits per pass")
	cmd.Flags().IntVar(&keyBits, "key-bits", radix.DefaultKeyBits, "significant key bits")
	cmd.Flags().IntVar(&wgSize, "wg-size", radix.DefaultWorkGroupSize, "work-group size")
}

func addBenchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&nPow, "npow", config.DefaultNPow, "sort 2^npow keys")
	cmd.Flags().IntVar(&iterations, "iters", config.DefaultIterations, "timed iterations")
	cmd.Flags().Int64Var(&seed, "seed", 0, "input seed")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("digit-bits") {
		cfg.DigitBits = digitBits
	}
	if flags.Changed("key-bits") {
		cfg.KeyBits = keyBits
	}
	if flags.Changed("wg-size") {
		cfg.WorkGroupSize = wgSize
	}
	if flags.Lookup("npow") != nil && flags.Changed("npow") {
		cfg.Bench.NPow = nPow
	}
	if flags.Lookup("iters") != nil && flags.Changed("iters") {
		cfg.Bench.Iterations = iterations
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		cfg.Bench.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSorter(cfg *config.Config) (*radix.Sorter, error) {
	backend, err := compute.Open(cfg.Device, cfg.Workers)
	if err != nil {
		return nil, err
	}
	slog.Debug("backend selected", "name", backend.Name())

	s, err := radix.New(backend, cfg.Params())
	if err != nil {
		backend.Cleanup()
		return nil, err
	}
	return s, nil
}

func benchConfig(cfg *config.Config) bench.Config {
	return bench.Config{
		NPow:       cfg.Bench.NPow,
		Iterations: cfg.Bench.Iterations,
		Seed:       cfg.Bench.Seed,
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openSorter(cfg)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	bc := benchConfig(cfg)
	if progress {
		bc.OnLap = tui.NewProgress(os.Stdout, bc.Iterations).OnLap
	}
	var inv *metrics.Invariants
	var timer *metrics.PassTimer
	if observe {
		inv, timer = metrics.NewInvariants(), metrics.NewPassTimer()
		s.AddObserver(inv)
		s.AddObserver(timer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sorting n=%d keys on %s, %d iterations...\n", 1<<bc.NPow, s.Backend().Name(), bc.Iterations)
	res, err := bench.Run(ctx, s, bc)
	if err != nil {
		return err
	}
	printResult(res)

	if observe {
		fmt.Printf("\n%s: %.3f\n", inv.Name(), inv.Value())
		for _, v := range inv.Violations() {
			fmt.Printf("  %s\n", v)
		}
		fmt.Printf("%s: %.6f s over %d passes\n", timer.Name(), timer.Value(), len(timer.Durations()))
	}
	return saveRun(res)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openSorter(cfg)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	res, err := tui.Watch(context.Background(), s, benchConfig(cfg))
	if err != nil {
		return err
	}
	printResult(res)
	return saveRun(res)
}

func printResult(res *bench.Result) {
	fmt.Printf("CPU: %.6f+-%.6f s\n", res.CPUAvg, res.CPUStd)
	fmt.Printf("CPU: %.2f millions/s\n", res.ReferenceThroughput())
	fmt.Printf("%s: %.6f+-%.6f s\n", res.Backend, res.GPUAvg, res.GPUStd)
	fmt.Printf("%s: %.2f millions/s\n", res.Backend, res.Throughput())
	fmt.Printf("speedup: %.2fx\n", res.Speedup())
}

func saveRun(res *bench.Result) error {
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func plotHistogram(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openSorter(cfg)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	skew := metrics.NewBucketSkew()
	s.AddObserver(skew)
	s.AddObserver(radix.ObserverFunc(func(ps radix.PassStats) {
		if onlyPass >= 0 && ps.Pass != onlyPass {
			return
		}
		totals := ps.DigitTotals()
		data := make([]float64, len(totals))
		for i, c := range totals {
			data[i] = float64(c)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Caption(fmt.Sprintf("pass %d, bits %d..%d", ps.Pass, ps.Shift, int(ps.Shift)+cfg.DigitBits-1)),
		))
		fmt.Println()
	}))

	if _, err := s.Sort(histogramInput(cfg)); err != nil {
		return err
	}
	fmt.Printf("%s: %.3f\n", skew.Name(), skew.Value())
	return nil
}

func histogramInput(cfg *config.Config) []uint32 {
	maxKey := min(bench.DefaultMax, cfg.Params().MaxKey())
	return bench.Generate(1<<cfg.Bench.NPow, cfg.Bench.Seed, maxKey)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBACKEND\tN\tDIGIT\tWG\tAVG\tMKEYS/S\tSPEEDUP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.6fs\t%.1f\t%.2fx\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.N,
			run.DigitBits,
			run.WorkGroupSize,
			run.Metrics["sorter_avg_s"],
			run.Metrics["sorter_mkeys_s"],
			run.Metrics["speedup"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	laps, err := st.LoadLaps(runID)
	if err != nil {
		return err
	}
	if len(laps) == 0 {
		return fmt.Errorf("no laps to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("backend: %s\n", meta.Backend)
	fmt.Printf("n: %d\n\n", meta.N)

	sorter := make([]float64, len(laps))
	ref := make([]float64, len(laps))
	for i, l := range laps {
		sorter[i] = l.Sorter * 1e3
		ref[i] = l.Reference * 1e3
	}

	fmt.Println(asciigraph.PlotMany([][]float64{sorter, ref},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Blue),
		asciigraph.Caption("lap time (ms): sorter green, reference blue"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	laps, err := st.LoadLaps(args[0])
	if err != nil {
		return err
	}

	if svgFile != "" {
		if err := writeLapChart(svgFile, meta, laps); err != nil {
			return err
		}
	}

	if outFile == "" {
		return storage.ExportJSON(os.Stdout, meta, laps)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportJSON(f, meta, laps); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func writeLapChart(path string, meta *storage.RunMetadata, laps []storage.LapRow) error {
	sorter := make([]float64, len(laps))
	ref := make([]float64, len(laps))
	for i, l := range laps {
		sorter[i] = l.Sorter * 1e3
		ref[i] = l.Reference * 1e3
	}
	svg := export.LinesToSVG(fmt.Sprintf("%s  n=%d  lap time (ms)", meta.Backend, meta.N), []export.Series{
		{Name: "sorter", Color: "#00ff00", Values: sorter},
		{Name: "reference", Color: "#0088ff", Values: ref},
	}, 800, 400)
	if svg == "" {
		return fmt.Errorf("need at least two laps for a chart")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}

func listDevices(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tDEVICE")
	for _, name := range compute.Names() {
		if name == "auto" {
			continue
		}
		b, err := compute.Open(name, 0)
		if err != nil {
			fmt.Fprintf(w, "%s\tunavailable\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\tavailable\t%s\n", name, b.Name())
		b.Cleanup()
	}
	return w.Flush()
}
