package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/blochsim/internal/mr"
)

const (
	DefaultSteps = 512
	DefaultT1    = 1.0
	DefaultT2    = 4e-2
)

// Config describes a simulation run: the spin cube geometry and tissue
// parameters plus the pulse to drive it with.
type Config struct {
	Grid    [3]int      `yaml:"grid"`
	FOV     [3]float64  `yaml:"fov"`    // cm
	Offset  [3]float64  `yaml:"offset"` // cm
	T1      float64     `yaml:"t1"`     // seconds
	T2      float64     `yaml:"t2"`     // seconds
	Gamma   float64     `yaml:"gamma"`  // Hz/Gauss
	Dt      float64     `yaml:"dt"`     // seconds
	Steps   int         `yaml:"steps"`
	Pulse   PulseConfig `yaml:"pulse"`
}

type PulseConfig struct {
	Shape   string  `yaml:"shape"`    // "demo" or "hard" (constant RF, no gradients)
	RFScale float64 `yaml:"rf_scale"` // Gauss
}

func DefaultConfig() *Config {
	return &Config{
		Grid:   [3]int{3, 3, 3},
		FOV:    [3]float64{3, 3, 3},
		Offset: [3]float64{0, 0, 1},
		T1:     DefaultT1,
		T2:     DefaultT2,
		Gamma:  mr.GammaH,
		Dt:     mr.Dt0,
		Steps:  DefaultSteps,
		Pulse:  PulseConfig{Shape: "demo", RFScale: 10},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
