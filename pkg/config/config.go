// Package config provides configuration loading and management for the movie
// synthesizer and the reslicer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"movieslicer/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Synthesis parameters
	Synthesis struct {
		// OutputDir is the directory movie_NNN.tif files are written to
		OutputDir string `yaml:"outputDir"`

		// NumMovies is the number of movies generated per run
		NumMovies int `yaml:"numMovies"`

		// NumFrames is the number of frames per movie
		NumFrames int `yaml:"numFrames"`

		// NumOscillators is the number of moving circles per movie
		NumOscillators int `yaml:"numOscillators"`

		// Width and Height are the frame dimensions in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// FrequencyRange bounds the oscillator frequencies
		FrequencyRange models.Range `yaml:"frequencyRange"`

		// AmplitudeRange bounds the oscillator amplitudes in pixels
		AmplitudeRange models.Range `yaml:"amplitudeRange"`

		// FullSinusoids draws full sampled curves instead of single circles
		FullSinusoids bool `yaml:"fullSinusoids"`

		// Seed makes runs reproducible
		Seed uint64 `yaml:"seed"`
	} `yaml:"synthesis"`

	// Reslicing parameters
	Reslice struct {
		// Input is a directory of stacks or a glob pattern
		Input string `yaml:"input"`

		// OutputDir is the root of the resliced output
		OutputDir string `yaml:"outputDir"`

		// Stride is the column step dx
		Stride int `yaml:"stride"`

		// Layout is "slices" (one file per column) or "combined"
		Layout string `yaml:"layout"`

		// Order is "lexical" or "numeric"
		Order string `yaml:"order"`

		// WorkDir is the subfolder for combined stacks
		WorkDir string `yaml:"workDir"`
	} `yaml:"reslice"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many files or movies are processed at once
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Progress prints one mark per synthesized frame
		Progress bool `yaml:"progress"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default synthesis parameters
	cfg.Synthesis.OutputDir = "."
	cfg.Synthesis.NumMovies = 100
	cfg.Synthesis.NumFrames = 100
	cfg.Synthesis.NumOscillators = 100
	cfg.Synthesis.Width = 256
	cfg.Synthesis.Height = 256
	cfg.Synthesis.FrequencyRange = models.Range{Min: 0.05, Max: 0.5}
	cfg.Synthesis.AmplitudeRange = models.Range{Min: 5, Max: 15}
	cfg.Synthesis.FullSinusoids = false
	cfg.Synthesis.Seed = 1

	// Set default reslicing parameters
	cfg.Reslice.Input = "*.tif"
	cfg.Reslice.OutputDir = "."
	cfg.Reslice.Stride = 1
	cfg.Reslice.Layout = models.PerSlice.String()
	cfg.Reslice.Order = models.Lexical.String()
	cfg.Reslice.WorkDir = "resliced"

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	// Set default output parameters
	cfg.Output.Verbose = false
	cfg.Output.Progress = true

	return cfg
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	s := c.Synthesis
	switch {
	case s.NumMovies < 0:
		return fmt.Errorf("synthesis.numMovies must be non-negative, got %d", s.NumMovies)
	case s.NumFrames <= 0:
		return fmt.Errorf("synthesis.numFrames must be positive, got %d", s.NumFrames)
	case s.NumOscillators < 0:
		return fmt.Errorf("synthesis.numOscillators must be non-negative, got %d", s.NumOscillators)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("synthesis frame size must be positive, got %dx%d", s.Width, s.Height)
	case s.FrequencyRange.Min > s.FrequencyRange.Max:
		return errors.New("synthesis.frequencyRange min exceeds max")
	case s.AmplitudeRange.Min > s.AmplitudeRange.Max:
		return errors.New("synthesis.amplitudeRange min exceeds max")
	case c.Reslice.Stride < 1:
		return fmt.Errorf("reslice.stride must be at least 1, got %d", c.Reslice.Stride)
	case c.Processing.NumCores < 1:
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}

	if _, err := models.ParseLayout(c.Reslice.Layout); err != nil {
		return fmt.Errorf("reslice.layout: %w", err)
	}
	if _, err := models.ParseOrder(c.Reslice.Order); err != nil {
		return fmt.Errorf("reslice.order: %w", err)
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
