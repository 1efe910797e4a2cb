package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt    = 0.1
	DefaultSteps = 100
)

type Config struct {
	Model  string             `yaml:"model"`
	Solver string             `yaml:"solver"`
	Dt     float64            `yaml:"dt"`
	Steps  int                `yaml:"steps"`
	Params map[string]float64 `yaml:"params"`
	Plot   string             `yaml:"plot"`
	Output string             `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  "decay",
		Solver: "stepwise",
		Dt:     DefaultDt,
		Steps:  DefaultSteps,
		Params: map[string]float64{},
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
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 1 {
		return fmt.Errorf("config: steps must be at least 1, got %d", c.Steps)
	}
	return nil
}

// TimeAxis builds the uniform time axis the run covers: steps+1 points
// including t=0.
func (c *Config) TimeAxis() []float64 {
	times := make([]float64, c.Steps+1)
	for i := range times {
		times[i] = float64(i) * c.Dt
	}
	return times
}
