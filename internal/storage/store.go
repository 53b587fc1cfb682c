// Package storage persists simulation runs as JSON metadata plus CSV
// magnetization trajectories under a base directory, one subdirectory per
// run.
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
	Pulse     string    `json:"pulse"`
	Timestamp time.Time `json:"timestamp"`
	Batch     int       `json:"batch"`
	Spins     int       `json:"spins"`
	Steps     int       `json:"steps"`
	Dt        float64   `json:"dt"`
	T1        float64   `json:"t1"`
	T2        float64   `json:"t2"`
}

// Save writes one run: metadata.json plus trajectory.csv with a time
// column followed by the named magnetization columns, one row per step.
func (s *Store) Save(meta RunMetadata, columns []string, times []float64, rows [][]float64) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	meta.ID = runID
	meta.Timestamp = time.Now()

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		metaFile.Close()
		return "", err
	}
	if err := metaFile.Close(); err != nil {
		return "", err
	}

	trajFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer trajFile.Close()

	w := csv.NewWriter(trajFile)
	if err := w.Write(append([]string{"time"}, columns...)); err != nil {
		return "", err
	}
	for i, row := range rows {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns metadata for every stored run, newest first.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}
