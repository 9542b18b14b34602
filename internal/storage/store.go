package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/radix/internal/bench"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Backend       string             `json:"backend"`
	N             int                `json:"n"`
	Seed          int64              `json:"seed"`
	Iterations    int                `json:"iterations"`
	DigitBits     int                `json:"digit_bits"`
	KeyBits       int                `json:"key_bits"`
	WorkGroupSize int                `json:"work_group_size"`
	Metrics       map[string]float64 `json:"metrics"`
}

// LapRow is one line of laps.csv, in seconds.
type LapRow struct {
	Iteration int     `json:"iteration"`
	Sorter    float64 `json:"sorter"`
	Reference float64 `json:"reference"`
}

var lapHeader = []string{"iteration", "sorter_s", "reference_s"}

// Metadata summarizes a benchmark result.
func Metadata(id string, res *bench.Result) RunMetadata {
	return RunMetadata{
		ID:            id,
		Timestamp:     time.Now(),
		Backend:       res.Backend,
		N:             res.N,
		Seed:          res.Seed,
		Iterations:    res.Iterations,
		DigitBits:     res.Params.DigitBits,
		KeyBits:       res.Params.KeyBits,
		WorkGroupSize: res.Params.WorkGroupSize,
		Metrics: map[string]float64{
			"sorter_avg_s":      res.GPUAvg,
			"sorter_std_s":      res.GPUStd,
			"reference_avg_s":   res.CPUAvg,
			"reference_std_s":   res.CPUStd,
			"sorter_mkeys_s":    res.Throughput(),
			"reference_mkeys_s": res.ReferenceThroughput(),
			"speedup":           res.Speedup(),
		},
	}
}

// Laps pairs the sorter and reference laps of a result.
func Laps(res *bench.Result) []LapRow {
	rows := make([]LapRow, len(res.SorterLaps))
	for i, l := range res.SorterLaps {
		rows[i] = LapRow{Iteration: i, Sorter: l.Seconds()}
		if i < len(res.ReferenceLaps) {
			rows[i].Reference = res.ReferenceLaps[i].Seconds()
		}
	}
	return rows
}

// Save writes <id>/metadata.json and <id>/laps.csv and returns the run id.
func (s *Store) Save(res *bench.Result) (string, error) {
	runID := fmt.Sprintf("n%d_%d", res.N, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := Metadata(runID, res)
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "laps.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(lapHeader); err != nil {
		return "", err
	}
	for _, row := range Laps(res) {
		rec := []string{
			strconv.Itoa(row.Iteration),
			strconv.FormatFloat(row.Sorter, 'f', 9, 64),
			strconv.FormatFloat(row.Reference, 'f', 9, 64),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadLaps(runID string) ([]LapRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "laps.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(lapHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []LapRow{}, nil
	}

	rows := make([]LapRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		it, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("laps.csv: iteration %q: %w", rec[0], err)
		}
		sorter, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("laps.csv: sorter lap %q: %w", rec[1], err)
		}
		ref, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("laps.csv: reference lap %q: %w", rec[2], err)
		}
		rows = append(rows, LapRow{Iteration: it, Sorter: sorter, Reference: ref})
	}
	return rows, nil
}
