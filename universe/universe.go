// Package universe loads the instrument universe: which tickers exist, how
// they group into sectors and which of them are large enough to trade.
package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMinMarketCap is the large-cap cutoff in dollars.
const DefaultMinMarketCap = 10_000_000_000

// Instrument carries the reference attributes used for filtering.
type Instrument struct {
	Symbol    string  `json:"symbol" yaml:"symbol"`
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Sector    string  `json:"sector,omitempty" yaml:"sector,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty" yaml:"market_cap,omitempty"`
	QuoteType string  `json:"quote_type,omitempty" yaml:"quote_type,omitempty"`
}

// Universe is the reference data for a scan. Sectors may be given
// explicitly, derived from Instruments, or both.
type Universe struct {
	Sectors     map[string][]string `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Instruments []Instrument        `json:"instruments,omitempty" yaml:"instruments,omitempty"`
}

// sectorNames maps reference-data sector labels to the names used in reports.
var sectorNames = map[string]string{
	"Information Technology": "Technology",
	"Health Care":            "Healthcare",
	"Consumer Discretionary": "Consumer",
}

// NormalizeSector returns the report name for a sector label.
func NormalizeSector(name string) string {
	name = strings.TrimSpace(name)
	if n, ok := sectorNames[name]; ok {
		return n
	}
	return name
}

// LoadFromFile reads a universe from YAML, falling back to JSON.
func LoadFromFile(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	u := &Universe{}
	if err := yaml.Unmarshal(data, u); err != nil {
		if jerr := json.Unmarshal(data, u); jerr != nil {
			return nil, fmt.Errorf("parse universe (tried YAML and JSON): %w", err)
		}
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("invalid universe %s: %w", path, err)
	}
	return u, nil
}

// Validate rejects universes that cannot drive a scan.
func (u *Universe) Validate() error {
	if len(u.Sectors) == 0 && len(u.Instruments) == 0 {
		return fmt.Errorf("no sectors or instruments defined")
	}
	for i, in := range u.Instruments {
		if strings.TrimSpace(in.Symbol) == "" {
			return fmt.Errorf("instrument %d has no symbol", i)
		}
	}
	for s, tickers := range u.Sectors {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("sector with empty name")
		}
		for _, t := range tickers {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("sector %q has an empty ticker", s)
			}
		}
	}
	return nil
}

// FilterOptions selects tradable instruments.
type FilterOptions struct {
	MinMarketCap float64
	ExcludeTypes []string
}

// Filter keeps instruments with market cap above the cutoff whose quote type
// is not excluded. The comparison on quote type is case-insensitive.
func Filter(instruments []Instrument, opts FilterOptions) []Instrument {
	excluded := make(map[string]bool, len(opts.ExcludeTypes))
	for _, t := range opts.ExcludeTypes {
		excluded[strings.ToUpper(t)] = true
	}

	var out []Instrument
	for _, in := range instruments {
		if in.MarketCap <= opts.MinMarketCap {
			continue
		}
		if excluded[strings.ToUpper(in.QuoteType)] {
			continue
		}
		out = append(out, in)
	}
	return out
}

// SectorMap groups the universe into normalized sectors with sorted,
// de-duplicated tickers. Explicit sectors are merged with the sectors of
// the given instruments; instruments without a sector are ignored.
func (u *Universe) SectorMap(instruments []Instrument) map[string][]string {
	sets := make(map[string]map[string]bool)
	add := func(sector, sym string) {
		sector = NormalizeSector(sector)
		sym = strings.TrimSpace(sym)
		if sector == "" || sym == "" {
			return
		}
		if sets[sector] == nil {
			sets[sector] = make(map[string]bool)
		}
		sets[sector][sym] = true
	}

	for s, tickers := range u.Sectors {
		for _, t := range tickers {
			add(s, t)
		}
	}
	for _, in := range instruments {
		add(in.Sector, in.Symbol)
	}

	out := make(map[string][]string, len(sets))
	for s, set := range sets {
		tickers := make([]string, 0, len(set))
		for t := range set {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		out[s] = tickers
	}
	return out
}

// Resolve applies the filter to the instrument list and returns the sector
// map. Explicit sectors are restricted to instruments that pass the filter
// when instrument attributes are available.
func (u *Universe) Resolve(opts FilterOptions) map[string][]string {
	if len(u.Instruments) == 0 {
		return u.SectorMap(nil)
	}

	kept := Filter(u.Instruments, opts)
	allowed := make(map[string]bool, len(kept))
	for _, in := range kept {
		allowed[in.Symbol] = true
	}
	known := make(map[string]bool, len(u.Instruments))
	for _, in := range u.Instruments {
		known[in.Symbol] = true
	}

	explicit := &Universe{Sectors: make(map[string][]string, len(u.Sectors))}
	for s, tickers := range u.Sectors {
		for _, t := range tickers {
			if known[t] && !allowed[t] {
				continue
			}
			explicit.Sectors[s] = append(explicit.Sectors[s], t)
		}
	}
	return explicit.SectorMap(kept)
}

// SortedSectors returns the sector names in a stable order.
func SortedSectors(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for s := range m {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}
