// Package config loads the CLI configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all CLI settings.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Transfer TransferConfig `yaml:"transfer"`
}

// ProjectConfig configures the projection step.
type ProjectConfig struct {
	// Components is the number of retained basis components, 0 keeps all.
	Components int `yaml:"components"`
}

// TransferConfig configures the label transfer step.
type TransferConfig struct {
	// Method selects the algorithm: "knn" or "mnn".
	Method string `yaml:"method"`

	// K is the number of neighbors per query point.
	K int `yaml:"k"`

	// Trees is the number of random-projection trees per index.
	Trees int `yaml:"trees"`

	// SearchK is the per-search candidate budget (0 = automatic).
	SearchK int `yaml:"search_k"`

	// Seed seeds index construction.
	Seed int64 `yaml:"seed"`

	// Workers bounds concurrent neighbor retrievals (0 = all cores).
	Workers int `yaml:"workers"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Components: 100,
		},
		Transfer: TransferConfig{
			Method: "mnn",
			K:      30,
			Trees:  10,
			Seed:   1,
		},
	}
}

// Load reads a YAML config file, overlaying it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Transfer.Method != "knn" && c.Transfer.Method != "mnn" {
		return fmt.Errorf("config: unknown transfer method %q", c.Transfer.Method)
	}
	if c.Transfer.K < 1 {
		return fmt.Errorf("config: k must be positive, got %d", c.Transfer.K)
	}
	if c.Transfer.Trees < 1 {
		return fmt.Errorf("config: trees must be positive, got %d", c.Transfer.Trees)
	}
	if c.Project.Components < 0 {
		return fmt.Errorf("config: components must be non-negative, got %d", c.Project.Components)
	}
	return nil
}
