package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{
		Pulse: "demo pulse",
		Batch: 1,
		Spins: 15,
		Steps: 2,
		Dt:    4e-6,
		T1:    1,
		T2:    4e-2,
	}
	times := []float64{4e-6, 8e-6}
	rows := [][]float64{{0.99, 0.01}, {0.98, 0.02}}

	runID, err := store.Save(meta, []string{"mz", "mxy"}, times, rows)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs", len(runs))
	}
	if runs[0].ID != runID || runs[0].Spins != 15 || runs[0].Pulse != "demo pulse" {
		t.Errorf("metadata = %+v", runs[0])
	}

	f, err := os.Open(filepath.Join(store.baseDir, runID, "trajectory.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows = %d", len(records))
	}
	if records[0][0] != "time" || records[0][1] != "mz" || records[0][2] != "mxy" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "0.99" {
		t.Errorf("first row = %v", records[1])
	}
}

func TestListEmpty(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %v", runs)
	}
}
