package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Steps != DefaultSteps {
		t.Errorf("steps = %d", cfg.Steps)
	}
	if cfg.Grid != [3]int{3, 3, 3} {
		t.Errorf("grid = %v", cfg.Grid)
	}
	if cfg.T1 != DefaultT1 || cfg.T2 != DefaultT2 {
		t.Errorf("relaxation = (%v, %v)", cfg.T1, cfg.T2)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Steps = 64
	cfg.T2 = 0.123
	cfg.Pulse.Shape = "hard"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps != 64 || got.T2 != 0.123 || got.Pulse.Shape != "hard" {
		t.Errorf("loaded config = %+v", got)
	}
	// Unset fields fall back to defaults.
	if got.Gamma != cfg.Gamma {
		t.Errorf("gamma = %v", got.Gamma)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("steps: 32\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps != 32 {
		t.Errorf("steps = %d", got.Steps)
	}
	if got.T1 != DefaultT1 {
		t.Errorf("partial file lost defaults: T1 = %v", got.T1)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
