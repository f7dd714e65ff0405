// Package config provides configuration loading and management for
// scanconvert3d. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Grid describes the Cartesian output lattice
	Grid struct {
		// Size is the output voxel count along each axis
		Size [3]int `yaml:"size"`

		// Spacing is the physical distance between adjacent output voxels
		Spacing [3]float64 `yaml:"spacing"`

		// Origin is the physical position of output voxel (0,0,0)
		Origin [3]float64 `yaml:"origin"`

		// Direction is the orientation of the output axes (columns are the
		// axis direction cosines); all zero means identity
		Direction [3][3]float64 `yaml:"direction"`
	} `yaml:"grid"`

	// Resampling parameters
	Resampling struct {
		// Method is the resampling method name, one of ITKNearestNeighbor,
		// ITKLinear, ITKWindowedSinc, VTKProbeFilter, VTKGaussianKernel,
		// VTKLinearKernel, VTKShepardKernel, VTKVoronoiKernel
		Method string `yaml:"method"`
	} `yaml:"resampling"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// ExtractSlices determines whether to export slice images of the
		// resampled volume
		ExtractSlices bool `yaml:"extractSlices"`

		// SlicesDir is the directory slice images are written to
		SlicesDir string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default grid parameters: a unit-spaced, axis-aligned lattice
	cfg.Grid.Size = [3]int{128, 128, 128}
	cfg.Grid.Spacing = [3]float64{1.0, 1.0, 1.0}
	cfg.Grid.Origin = [3]float64{0, 0, 0}
	cfg.Grid.Direction = [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	cfg.Resampling.Method = "ITKLinear"

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	// Set default output parameters
	cfg.Output.ExtractSlices = false
	cfg.Output.SlicesDir = "resampled_slices"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
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

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
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

// HasDirection reports whether the config supplies an explicit direction
// matrix (an omitted matrix unmarshals as all zeros, which is not a valid
// orientation).
func (c *Config) HasDirection() bool {
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			if c.Grid.Direction[r][col] != 0 {
				return true
			}
		}
	}
	return false
}
