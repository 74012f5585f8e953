package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

const configEnv = "DEPOT_CONFIG"

type Config struct {
	Ticks     int        `toml:"ticks"`
	Entities  int        `toml:"entities"`
	Churn     int        `toml:"churn"`      // entities replaced per tick at most
	Workers   int        `toml:"workers"`    // 0 = GOMAXPROCS
	ChunkSize int        `toml:"chunk_size"` // 0 = depot default
	Profile   string     `toml:"profile"`    // "cpu", "mem" or ""
	LogLevel  slog.Level `toml:"log_level"`
}

// Load reads the TOML file at path over the defaults. An empty path falls back
// to $DEPOT_CONFIG, and with neither set the defaults are returned as is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Ticks:     600,
		Entities:  10000,
		Churn:     256,
		Workers:   0,
		ChunkSize: 0,
		Profile:   "",
		LogLevel:  slog.LevelInfo,
	}
}

func (c *Config) validate() error {
	switch {
	case c.Ticks < 0:
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	case c.Entities < 0:
		return fmt.Errorf("entities must not be negative, got %d", c.Entities)
	case c.Churn < 0:
		return fmt.Errorf("churn must not be negative, got %d", c.Churn)
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Profile)
	}
	return nil
}
