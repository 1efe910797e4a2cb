// Package storage persists finished runs: metadata as JSON, every
// variable and flux trajectory as one labeled CSV.
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

	"github.com/san-kum/fluxsim/internal/fluxmod"
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
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Solver    string    `json:"solver"`
	Timestamp time.Time `json:"timestamp"`
	Dt        float64   `json:"dt"`
	Steps     int       `json:"steps"`
	Labels    []string  `json:"labels"`
}

// Save writes one run directory with metadata.json and series.csv. The
// CSV has a time column plus one column per element of every series, in
// registration order.
func (s *Store) Save(model, solverName string, dt float64, m *fluxmod.Model) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     model,
		Solver:    solverName,
		Timestamp: time.Now(),
		Dt:        dt,
		Steps:     len(m.Time),
		Labels:    append(append([]string(nil), m.VarOrder...), m.FluxOrder...),
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	type column struct {
		name   string
		series *fluxmod.Series
		elem   int
	}
	var cols []column
	addSeries := func(label string, series *fluxmod.Series) {
		n := series.Dims.Size()
		for e := 0; e < n; e++ {
			name := label
			if n > 1 {
				name = fmt.Sprintf("%s_%d", label, e)
			}
			cols = append(cols, column{name: name, series: series, elem: e})
		}
	}
	for _, label := range m.VarOrder {
		addSeries(label, m.Variables[label])
	}
	for _, label := range m.FluxOrder {
		addSeries(label, m.FluxValues[label])
	}

	header := []string{"time"}
	for _, c := range cols {
		header = append(header, c.name)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, t := range m.Time {
		row := make([]string, 0, len(cols)+1)
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, c := range cols {
			row = append(row, strconv.FormatFloat(c.series.At(i)[c.elem], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// Load reads back the metadata of one saved run.
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

// LoadSeries reads back a run's trajectories: the column names (time
// first) and one row per time point.
func (s *Store) LoadSeries(runID string) ([]string, [][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: run %s has an empty series file", runID)
	}

	header := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for i, cell := range record {
			row[i], err = strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: run %s: %w", runID, err)
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// List returns the metadata of every saved run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}
