// Package config loads ekg settings from defaults, an optional YAML file,
// a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

// Config holds all settings.
type Config struct {
	DB     string         `yaml:"db"`
	Peaks  ekg.PeakParams `yaml:"peaks"`
	Plot   PlotConfig     `yaml:"plot"`
	Server ServerConfig   `yaml:"server"`
}

// PlotConfig controls rendered charts.
type PlotConfig struct {
	Window time.Duration `yaml:"window"`
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DB:    filepath.Join(home, ".ekg", "ekg.db"),
		Peaks: ekg.DefaultPeakParams(),
		Plot: PlotConfig{
			Window: 10 * time.Second,
			Width:  1200,
			Height: 400,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns $EKG_CONFIG or ~/.ekg/config.yaml.
func DefaultPath() string {
	if env := os.Getenv("EKG_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ekg", "config.yaml")
}

// Load builds the configuration. An empty path falls back to DefaultPath;
// a missing file at the default location is not an error, a missing file
// that was asked for explicitly is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// .env in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Peaks.Validate(); err != nil {
		return nil, fmt.Errorf("config peaks: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EKG_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("EKG_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("EKG_PEAK_DISTANCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EKG_PEAK_DISTANCE: %w", err)
		}
		c.Peaks.MinDistance = n
	}
	if v := os.Getenv("EKG_PEAK_HEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EKG_PEAK_HEIGHT: %w", err)
		}
		c.Peaks.MinHeight = f
	}
	return nil
}
