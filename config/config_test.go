package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/performance"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	p := cfg.ScreenerParams()
	assert.Equal(t, 0.7, p.MinCorrelation)
	assert.Equal(t, 60, p.Window)
	assert.Equal(t, 0.05, p.MaxCointPValue)
	assert.Positive(t, p.Workers)

	bt := cfg.BacktestConfig()
	assert.Equal(t, 2500.0, bt.Capital)
	assert.Equal(t, 2.0, bt.EntryThreshold)
	assert.Equal(t, backtest.StopAdditive, bt.StopLoss.Mode)
	assert.Equal(t, 1.5, bt.StopLoss.Distance)
	assert.False(t, bt.Filter.Enabled)

	assert.Equal(t, performance.DrawdownCapital, cfg.PerformanceOptions().DrawdownBasis)
	assert.Equal(t, "2y", cfg.DataOptions().Request.Period)
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"source", func(c *Config) { c.Data.Source = "bloomberg" }},
		{"csv needs dir", func(c *Config) { c.Data.Source = "csv" }},
		{"bad date", func(c *Config) { c.Data.Start = "01/02/2024" }},
		{"start after end", func(c *Config) { c.Data.Start, c.Data.End = "2024-06-01", "2024-01-01" }},
		{"correlation", func(c *Config) { c.Screen.MinCorrelation = 1.5 }},
		{"window", func(c *Config) { c.Screen.Window = 1 }},
		{"capital", func(c *Config) { c.Backtest.Capital = 0 }},
		{"stop mode", func(c *Config) { c.Backtest.StopLoss.Mode = "trailing" }},
		{"stop factor", func(c *Config) { c.Backtest.StopLoss.Factor = 0.5 }},
		{"drawdown basis", func(c *Config) { c.Backtest.DrawdownBasis = "peak" }},
		{"gate half-life", func(c *Config) { c.Screen.Gate.MinHalfLife = 40 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"report dir", func(c *Config) { c.Report.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"statarb.yaml", "statarb.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Data.Source = "csv"
			cfg.Data.Dir = "prices"
			cfg.Backtest.StopLoss.Mode = backtest.StopMultiplicative
			cfg.Backtest.TopN = 10
			require.NoError(t, cfg.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screen:\n  window: 90\ndata:\n  timeout: 5s\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Screen.Window)
	assert.Equal(t, 5*time.Second, cfg.Data.Timeout)
	assert.Equal(t, 0.7, cfg.Screen.MinCorrelation)
	assert.Equal(t, 2500.0, cfg.Backtest.Capital)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screen: [unclosed"), 0644))
	_, err := LoadFromFile(path)
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// Environment tests mutate process state and cannot run in parallel.
func TestApplyEnv(t *testing.T) {
	t.Setenv("STATARB_SCREEN_WINDOW", "45")
	t.Setenv("STATARB_BACKTEST_CAPITAL", "10000")
	t.Setenv("STATARB_BACKTEST_DRAWDOWN_BASIS", "pnl")
	t.Setenv("STATARB_UNIVERSE_EXCLUDE_TYPES", "ETF,MUTUALFUND")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Screen.Window)
	assert.Equal(t, 10000.0, cfg.Backtest.Capital)
	assert.Equal(t, performance.DrawdownPnL, cfg.Backtest.DrawdownBasis)
	assert.Equal(t, []string{"ETF", "MUTUALFUND"}, cfg.Universe.ExcludeTypes)
	assert.Equal(t, 0.7, cfg.Screen.MinCorrelation, "unset variables keep their value")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(env, []byte("STATARB_TEST_ONLY=from-file\n"), 0644))
	t.Setenv("STATARB_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("STATARB_TEST_ONLY"))

	require.NoError(t, LoadEnv(env, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("STATARB_TEST_ONLY"))
}
