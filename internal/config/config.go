// Package config loads the citysim configuration: YAML file first, then
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/world"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete run configuration.
type Config struct {
	LogLevel string      `yaml:"log_level"`
	Map      MapConfig   `yaml:"map"`
	City     city.Config `yaml:"city"`
	Journal  Journal     `yaml:"journal"`
	API      API         `yaml:"api"`
}

// MapConfig controls road generation.
type MapConfig struct {
	Size        int   `yaml:"size"`
	Seed        int64 `yaml:"seed"`         // 0 picks a random seed
	MaxRestarts int   `yaml:"max_restarts"` // 0 means unbounded
}

// Gen converts to the generator's config.
func (m MapConfig) Gen() world.GenConfig {
	return world.GenConfig{Size: m.Size, Seed: m.Seed, MaxRestarts: m.MaxRestarts}
}

// Journal configures the run journal. An empty path disables it.
type Journal struct {
	Path string `yaml:"path"`
}

// API configures the HTTP server. Port 0 disables it.
type API struct {
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"`
}

// Default returns a playable configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	return Config{
		LogLevel: "info",
		Map:      MapConfig{Size: gen.Size, Seed: gen.Seed, MaxRestarts: gen.MaxRestarts},
		City:     city.DefaultConfig(),
		Journal:  Journal{Path: "data/citysim.db"},
		API:      API{Port: 8080},
	}
}

// Load reads the YAML file at path over the defaults. Keys missing from the
// file keep their default values. An empty path loads only the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by CITYSIM_CONFIG (if any), applies the
// environment overrides and validates the result.
func FromEnv() (Config, error) {
	cfg, err := Load(os.Getenv("CITYSIM_CONFIG"))
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays CITYSIM_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("CITYSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CITYSIM_SEED: %w", err)
		}
		c.Map.Seed = seed
	}
	if v := getenv("CITYSIM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CITYSIM_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v, ok := lookup(getenv, "CITYSIM_DB"); ok {
		c.Journal.Path = v
	}
	if v, ok := lookup(getenv, "CITYSIM_ADMIN_KEY"); ok {
		c.API.AdminKey = v
	}
	if v, ok := lookup(getenv, "CITYSIM_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

// Validate rejects configurations the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...)))
	}

	if c.Map.Size <= 0 {
		bad("map.size", "must be positive, got %d", c.Map.Size)
	}
	if c.Map.MaxRestarts < 0 {
		bad("map.max_restarts", "must not be negative, got %d", c.Map.MaxRestarts)
	}

	clock := c.City.Engine
	if clock.DefaultRate <= 0 {
		bad("city.engine.default_rate", "must be positive, got %s", clock.DefaultRate)
	}
	if clock.MinRate <= 0 || clock.MinRate > clock.DefaultRate {
		bad("city.engine.min_rate", "must be in (0, %s], got %s", clock.DefaultRate, clock.MinRate)
	}
	if clock.IncreaseRate <= 1 {
		bad("city.engine.increase_rate", "must be greater than 1, got %g", clock.IncreaseRate)
	}
	if clock.TicksPerDay <= 0 {
		bad("city.engine.ticks_per_day", "must be positive, got %d", clock.TicksPerDay)
	}

	land := c.City.Land
	if land.Octaves < 1 {
		bad("city.land.octaves", "must be at least 1, got %d", land.Octaves)
	}
	if land.Frequency <= 0 {
		bad("city.land.frequency", "must be positive, got %g", land.Frequency)
	}
	if land.Persistence <= 0 || land.Persistence > 1 {
		bad("city.land.persistence", "must be in (0, 1], got %g", land.Persistence)
	}
	if land.Lacunarity < 1 {
		bad("city.land.lacunarity", "must be at least 1, got %g", land.Lacunarity)
	}

	debt := c.City.Debt
	if debt.MinTax < 0 || debt.MaxTax > 1 {
		bad("city.debt", "tax rates must be within [0, 1]")
	}
	if debt.MinTax > debt.MaxTax {
		bad("city.debt.min_tax", "%g exceeds max_tax %g", debt.MinTax, debt.MaxTax)
	}
	if p := c.City.JobSuccessPercent; p < 1 || p > 100 {
		bad("city.job_success_percent", "must be in [1, 100], got %d", p)
	}
	if c.City.Houses+c.City.Companies+c.City.Shops <= 0 {
		bad("city", "at least one building is required")
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		bad("api.port", "out of range: %d", c.API.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: log_level: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
