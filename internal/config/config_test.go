package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Map.Size)
	assert.Equal(t, 1000, cfg.Map.MaxRestarts)
	assert.Equal(t, time.Second, cfg.City.Engine.DefaultRate)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citysim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
map:
  size: 12
  seed: 99
city:
  houses: 40
  land:
    octaves: 5
  engine:
    default_rate: 500ms
    min_rate: 50ms
  company:
    capacity: 9
    exp_required: 250
  citizen:
    happiness:
      wage: 55
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Map.Size)
	assert.EqualValues(t, 99, cfg.Map.Seed)
	assert.Equal(t, 1000, cfg.Map.MaxRestarts, "untouched keys keep defaults")
	assert.Equal(t, 40, cfg.City.Houses)
	assert.Equal(t, 5, cfg.City.Land.Octaves)
	assert.InDelta(t, 0.5, cfg.City.Land.Persistence, 1e-9, "untouched land keys keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.City.Engine.DefaultRate)
	assert.Equal(t, 50*time.Millisecond, cfg.City.Engine.MinRate)
	assert.Equal(t, 24, cfg.City.Engine.TicksPerDay)
	assert.Equal(t, 9, cfg.City.Company.Capacity)
	assert.InDelta(t, 250, cfg.City.Company.ExpRequired, 1e-9, "inline business section")
	assert.Equal(t, 55, cfg.City.Citizen.Weights.Wage)
	assert.Equal(t, 20, cfg.City.Citizen.Weights.Tax)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"CITYSIM_SEED":      "7",
		"CITYSIM_PORT":      "9090",
		"CITYSIM_DB":        "/tmp/run.db",
		"CITYSIM_ADMIN_KEY": "secret",
		"CITYSIM_LOG_LEVEL": "warn",
	})))
	assert.EqualValues(t, 7, cfg.Map.Seed)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "/tmp/run.db", cfg.Journal.Path)
	assert.Equal(t, "secret", cfg.API.AdminKey)
	assert.Equal(t, "warn", cfg.LogLevel)

	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"CITYSIM_SEED": "lots"})))
	assert.Error(t, cfg.ApplyEnv(envMap(map[string]string{"CITYSIM_PORT": "http"})))
}

func TestFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citysim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  size: 6\n"), 0o644))
	t.Setenv("CITYSIM_CONFIG", path)
	t.Setenv("CITYSIM_SEED", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Map.Size)
	assert.EqualValues(t, 3, cfg.Map.Seed)
}

func TestValidateNamesFields(t *testing.T) {
	cases := map[string]func(*Config){
		"map.size":                  func(c *Config) { c.Map.Size = 0 },
		"map.max_restarts":          func(c *Config) { c.Map.MaxRestarts = -1 },
		"city.engine.default_rate":  func(c *Config) { c.City.Engine.DefaultRate = 0 },
		"city.engine.min_rate":      func(c *Config) { c.City.Engine.MinRate = 2 * time.Second },
		"city.engine.increase_rate": func(c *Config) { c.City.Engine.IncreaseRate = 1 },
		"city.debt.min_tax":         func(c *Config) { c.City.Debt.MinTax = 0.5 },
		"city.job_success_percent":  func(c *Config) { c.City.JobSuccessPercent = 0 },
		"city.land.octaves":         func(c *Config) { c.City.Land.Octaves = 0 },
		"city.land.persistence":     func(c *Config) { c.City.Land.Persistence = 1.5 },
		"api.port":                  func(c *Config) { c.API.Port = 70000 },
		"log_level":                 func(c *Config) { c.LogLevel = "loud" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel(" error ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
