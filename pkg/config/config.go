// Package config provides configuration loading and management for probeplanner.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Atlas files
	Atlas struct {
		// Ontology is the structures file (brainglobe structures.json or YAML)
		Ontology string `yaml:"ontology"`

		// Annotation is the YAML header of the raw annotation volume
		Annotation string `yaml:"annotation"`
	} `yaml:"atlas"`

	// Probe defaults for probes that are not loaded from file
	Probe struct {
		// Length is the shaft length in microns
		Length float64 `yaml:"length"`

		// Radius is the shaft radius in microns
		Radius float64 `yaml:"radius"`

		// Color is the render color
		Color string `yaml:"color"`
	} `yaml:"probe"`

	// Planner session parameters
	Planner struct {
		// Highlight lists regions rendered with emphasis, descendants included
		Highlight []string `yaml:"highlight"`

		// MoveThreshold is the smallest tip move in microns that triggers a refresh
		MoveThreshold float64 `yaml:"moveThreshold"`

		// TiltThreshold is the smallest angle change in degrees that triggers a refresh
		TiltThreshold float64 `yaml:"tiltThreshold"`

		// ShowRoot renders the whole-brain outline
		ShowRoot bool `yaml:"showRoot"`

		// RootOpacity is the alpha of the whole-brain outline
		RootOpacity float64 `yaml:"rootOpacity"`

		// SaveFile is where the current probe is saved
		SaveFile string `yaml:"saveFile"`
	} `yaml:"planner"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// SnapshotDir is where slice snapshots are written
		SnapshotDir string `yaml:"snapshotDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Atlas.Ontology = "atlas/structures.json"
	cfg.Atlas.Annotation = "atlas/annotation.yaml"

	cfg.Probe.Length = 10000
	cfg.Probe.Radius = 70
	cfg.Probe.Color = "k"

	cfg.Planner.Highlight = []string{}
	cfg.Planner.MoveThreshold = 50
	cfg.Planner.TiltThreshold = 1
	cfg.Planner.ShowRoot = true
	cfg.Planner.RootOpacity = 0.2
	cfg.Planner.SaveFile = "probe.yaml"

	cfg.Output.Verbose = false
	cfg.Output.SnapshotDir = "snapshots"

	return cfg
}

// Validate checks values that would make a session misbehave
func (cfg *Config) Validate() error {
	if cfg.Probe.Length <= 0 {
		return fmt.Errorf("probe length must be positive, got %g", cfg.Probe.Length)
	}
	if cfg.Probe.Radius < 0 {
		return fmt.Errorf("probe radius must be non-negative, got %g", cfg.Probe.Radius)
	}
	if cfg.Planner.MoveThreshold < 0 || cfg.Planner.TiltThreshold < 0 {
		return fmt.Errorf("planner thresholds must be non-negative")
	}
	if cfg.Planner.RootOpacity < 0 || cfg.Planner.RootOpacity > 1 {
		return fmt.Errorf("root opacity must be in [0, 1], got %g", cfg.Planner.RootOpacity)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
