package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/statarb/backtest"
	"github.com/rustyeddy/statarb/market"
	"github.com/rustyeddy/statarb/performance"
	"github.com/rustyeddy/statarb/report"
	"github.com/rustyeddy/statarb/screener"
	"github.com/rustyeddy/statarb/universe"
)

// EnvPrefix prefixes every environment override, e.g. STATARB_SCREEN_WINDOW.
const EnvPrefix = "STATARB"

var ErrInvalid = errors.New("invalid config")

// Config represents the complete run configuration
type Config struct {
	LogLevel string         `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	Data     DataConfig     `json:"data" yaml:"data" envconfig:"DATA"`
	Universe UniverseConfig `json:"universe" yaml:"universe" envconfig:"UNIVERSE"`
	Screen   ScreenConfig   `json:"screen" yaml:"screen" envconfig:"SCREEN"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest" envconfig:"BACKTEST"`
	Report   ReportConfig   `json:"report" yaml:"report" envconfig:"REPORT"`
}

// DataConfig selects the price source and the history requested from it
type DataConfig struct {
	Source string `json:"source" yaml:"source" envconfig:"SOURCE" validate:"oneof=csv yahoo"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty" envconfig:"DIR" validate:"required_if=Source csv"`
	// Period is a lookback like "2y"; Start/End (YYYY-MM-DD) override it.
	Period     string `json:"period" yaml:"period" envconfig:"PERIOD"`
	Start      string `json:"start,omitempty" yaml:"start,omitempty" envconfig:"START" validate:"omitempty,datetime=2006-01-02"`
	End        string `json:"end,omitempty" yaml:"end,omitempty" envconfig:"END" validate:"omitempty,datetime=2006-01-02"`
	MinHistory int    `json:"min_history" yaml:"min_history" envconfig:"MIN_HISTORY" validate:"gte=2"`
	MinRows    int    `json:"min_rows" yaml:"min_rows" envconfig:"MIN_ROWS" validate:"gte=2"`

	BaseURL        string        `json:"base_url,omitempty" yaml:"base_url,omitempty" envconfig:"BASE_URL" validate:"omitempty,url"`
	RequestsPerSec float64       `json:"requests_per_sec" yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" validate:"gt=0"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	MaxElapsed     time.Duration `json:"max_elapsed" yaml:"max_elapsed" envconfig:"MAX_ELAPSED" validate:"gte=0"`
}

// UniverseConfig points at the sector/instrument reference file
type UniverseConfig struct {
	File         string   `json:"file" yaml:"file" envconfig:"FILE"`
	MinMarketCap float64  `json:"min_market_cap" yaml:"min_market_cap" envconfig:"MIN_MARKET_CAP" validate:"gte=0"`
	ExcludeTypes []string `json:"exclude_types" yaml:"exclude_types" envconfig:"EXCLUDE_TYPES"`
}

// ScreenConfig contains the pair screening thresholds
type ScreenConfig struct {
	MinCorrelation float64       `json:"min_correlation" yaml:"min_correlation" envconfig:"MIN_CORRELATION" validate:"gt=0,lte=1"`
	Window         int           `json:"window" yaml:"window" envconfig:"WINDOW" validate:"gte=2"`
	EntryThreshold float64       `json:"entry_threshold" yaml:"entry_threshold" envconfig:"ENTRY_THRESHOLD" validate:"gt=0"`
	MaxCointPValue float64       `json:"max_coint_pvalue" yaml:"max_coint_pvalue" envconfig:"MAX_COINT_PVALUE" validate:"gt=0,lte=1"`
	MinOverlap     int           `json:"min_overlap" yaml:"min_overlap" envconfig:"MIN_OVERLAP" validate:"gte=3"`
	Workers        int           `json:"workers" yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	Gate           screener.Gate `json:"gate" yaml:"gate" envconfig:"GATE"`
}

// BacktestConfig contains strategy and metric parameters
type BacktestConfig struct {
	Capital             float64                   `json:"capital" yaml:"capital" envconfig:"CAPITAL" validate:"gt=0"`
	TopN                int                       `json:"top_n" yaml:"top_n" envconfig:"TOP_N" validate:"gte=0"`
	Workers             int                       `json:"workers" yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	StopLoss            backtest.StopLoss         `json:"stop_loss" yaml:"stop_loss" envconfig:"STOP_LOSS"`
	EntryFilter         backtest.EntryFilter      `json:"entry_filter" yaml:"entry_filter" envconfig:"ENTRY_FILTER"`
	RiskFreeRate        float64                   `json:"risk_free_rate" yaml:"risk_free_rate" envconfig:"RISK_FREE_RATE" validate:"gte=0"`
	AnnualizeVolatility bool                      `json:"annualize_volatility" yaml:"annualize_volatility" envconfig:"ANNUALIZE_VOLATILITY"`
	DrawdownBasis       performance.DrawdownBasis `json:"drawdown_basis" yaml:"drawdown_basis" envconfig:"DRAWDOWN_BASIS" validate:"oneof=capital pnl"`
}

// ReportConfig contains output locations
type ReportConfig struct {
	Dir         string `json:"dir" yaml:"dir" envconfig:"DIR" validate:"required"`
	Journal     string `json:"journal,omitempty" yaml:"journal,omitempty" envconfig:"JOURNAL"`
	TradesCSV   string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty" envconfig:"TRADES_CSV"`
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" envconfig:"METRICS_FILE"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	sp := screener.DefaultParams()
	bt := backtest.DefaultConfig()
	po := performance.DefaultOptions()
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			Source:         "yahoo",
			Period:         "2y",
			MinHistory:     200,
			MinRows:        130,
			RequestsPerSec: 2,
			Timeout:        30 * time.Second,
			MaxElapsed:     2 * time.Minute,
		},
		Universe: UniverseConfig{
			File:         "universe.yaml",
			MinMarketCap: universe.DefaultMinMarketCap,
			ExcludeTypes: []string{"ETF"},
		},
		Screen: ScreenConfig{
			MinCorrelation: sp.MinCorrelation,
			Window:         sp.Window,
			EntryThreshold: sp.EntryThreshold,
			MaxCointPValue: sp.MaxCointPValue,
			MinOverlap:     sp.MinOverlap,
			Gate:           sp.Gate,
		},
		Backtest: BacktestConfig{
			Capital:             bt.Capital,
			TopN:                50,
			StopLoss:            bt.StopLoss,
			EntryFilter:         bt.Filter,
			RiskFreeRate:        po.RiskFreeRate,
			AnnualizeVolatility: po.AnnualizeVolatility,
			DrawdownBasis:       po.DrawdownBasis,
		},
		Report: ReportConfig{
			Dir:     report.DefaultDir,
			Journal: "statarb.db",
		},
	}
}

// Load builds the effective configuration: defaults, then the file at path
// (if any), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML) over the
// defaults and validates it. The environment is not consulted.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, c); err != nil {
		if jerr := json.Unmarshal(data, c); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from STATARB_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("config from env: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	g := c.Screen.Gate
	if g.MinHalfLife >= g.MaxHalfLife {
		return fmt.Errorf("%w: screen.gate.min_half_life must be below max_half_life", ErrInvalid)
	}
	if f := c.Backtest.EntryFilter; f.Enabled && f.MinHalfLife >= f.MaxHalfLife {
		return fmt.Errorf("%w: backtest.entry_filter.min_half_life must be below max_half_life", ErrInvalid)
	}
	if c.Data.Start != "" && c.Data.End != "" && c.Data.Start >= c.Data.End {
		return fmt.Errorf("%w: data.start must be before data.end", ErrInvalid)
	}
	return nil
}

// ScreenerParams converts the screen section.
func (c *Config) ScreenerParams() screener.Params {
	p := screener.DefaultParams()
	p.MinCorrelation = c.Screen.MinCorrelation
	p.Window = c.Screen.Window
	p.EntryThreshold = c.Screen.EntryThreshold
	p.MaxCointPValue = c.Screen.MaxCointPValue
	p.MinOverlap = c.Screen.MinOverlap
	p.Gate = c.Screen.Gate
	if c.Screen.Workers > 0 {
		p.Workers = c.Screen.Workers
	}
	return p
}

// BacktestConfig converts the backtest section. The signal window and entry
// threshold are shared with screening.
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		Window:         c.Screen.Window,
		EntryThreshold: c.Screen.EntryThreshold,
		Capital:        c.Backtest.Capital,
		StopLoss:       c.Backtest.StopLoss,
		Filter:         c.Backtest.EntryFilter,
	}
}

func (c *Config) PerformanceOptions() performance.Options {
	return performance.Options{
		RiskFreeRate:        c.Backtest.RiskFreeRate,
		AnnualizeVolatility: c.Backtest.AnnualizeVolatility,
		DrawdownBasis:       c.Backtest.DrawdownBasis,
	}
}

// DataOptions converts the data section for the screener. Dates were
// validated by Validate.
func (c *Config) DataOptions() screener.DataOptions {
	req := market.Request{Period: c.Data.Period}
	if c.Data.Start != "" {
		req.Start, _ = time.Parse(time.DateOnly, c.Data.Start)
	}
	if c.Data.End != "" {
		req.End, _ = time.Parse(time.DateOnly, c.Data.End)
	}
	return screener.DataOptions{
		Request:    req,
		MinHistory: c.Data.MinHistory,
		MinRows:    c.Data.MinRows,
	}
}

func (c *Config) YahooOptions() market.YahooOptions {
	return market.YahooOptions{
		BaseURL:        c.Data.BaseURL,
		Timeout:        c.Data.Timeout,
		RequestsPerSec: c.Data.RequestsPerSec,
		MaxElapsed:     c.Data.MaxElapsed,
	}
}

func (c *Config) FilterOptions() universe.FilterOptions {
	return universe.FilterOptions{
		MinMarketCap: c.Universe.MinMarketCap,
		ExcludeTypes: c.Universe.ExcludeTypes,
	}
}
