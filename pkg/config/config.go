// Package config provides configuration loading and management for voxelconnect.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"voxelconnect/pkg/archive"
	"voxelconnect/pkg/connectivity"
	"voxelconnect/pkg/logging"
)

// Config represents the application configuration loaded from YAML or TOML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many structures are processed in parallel
		NumCores int `yaml:"numCores" toml:"num_cores"`

		// MinVoxelsPerInjection is the injection voxel threshold for a source structure to qualify
		MinVoxelsPerInjection int `yaml:"minVoxelsPerInjection" toml:"min_voxels_per_injection"`

		// SourceCoverage is the fraction of injection density required inside the sources
		SourceCoverage float64 `yaml:"sourceCoverage" toml:"source_coverage"`

		// SourceShell excludes the dilated injection footprint from targets
		SourceShell bool `yaml:"sourceShell" toml:"source_shell"`

		// Laplacian requests Laplacians for voxel resolution runs
		Laplacian bool `yaml:"laplacian" toml:"laplacian"`
	} `yaml:"processing" toml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls progress output
		Verbose bool `yaml:"verbose" toml:"verbose"`

		// Compression of saved result archives: none, snappy or zstd
		Compression string `yaml:"compression" toml:"compression"`

		// ExtractSlices saves JPEG slices of the source density per experiment
		ExtractSlices bool `yaml:"extractSlices" toml:"extract_slices"`

		// SlicesDir is where extracted slices are written
		SlicesDir string `yaml:"slicesDir" toml:"slices_dir"`
	} `yaml:"output" toml:"output"`

	// Logging parameters
	Log struct {
		logging.LogConfig `yaml:",inline"`

		// Level is the minimum severity printed: debug, info, warning, error, critical or silent
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.MinVoxelsPerInjection = 50
	cfg.Processing.SourceCoverage = 0.8

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.Compression = archive.Snappy.String()
	cfg.Output.SlicesDir = "slices"

	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig loads configuration from a YAML file, or a TOML file when the
// path ends in .toml. If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if isTOML(configPath) {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		return cfg, cfg.Validate()
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

	return cfg, cfg.Validate()
}

// Validate checks the values that are parsed later on.
func (cfg *Config) Validate() error {
	if _, err := archive.ParseCompression(cfg.Output.Compression); err != nil {
		return err
	}
	if _, err := logging.ParseMode(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

// Params returns generation parameters seeded from the processing section.
// Structure and experiment selections are left empty.
func (cfg *Config) Params() *connectivity.Params {
	p := connectivity.DefaultParams()
	p.NumCores = cfg.Processing.NumCores
	p.MinVoxelsPerInjection = cfg.Processing.MinVoxelsPerInjection
	p.SourceCoverage = cfg.Processing.SourceCoverage
	p.SourceShell = cfg.Processing.SourceShell
	p.Laplacian = cfg.Processing.Laplacian
	p.Verbose = cfg.Output.Verbose
	return p
}

// Compression returns the parsed archive compression.
func (cfg *Config) Compression() archive.Compression {
	c, _ := archive.ParseCompression(cfg.Output.Compression)
	return c
}

// SetupLogging applies the log section.
func (cfg *Config) SetupLogging() error {
	mode, err := logging.ParseMode(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.SetLogMode(mode)
	cfg.Log.LogConfig.SetLogger()
	return nil
}

// SaveConfig saves the configuration to a YAML file, or a TOML file when
// the path ends in .toml
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(configPath) {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
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

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
