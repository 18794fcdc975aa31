//go:build blackbox

package blackbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/statarb/internal/synth"
	"github.com/rustyeddy/statarb/market"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// writePrices writes one date,close CSV per symbol into dir.
func writePrices(t *testing.T, dir string, series ...market.Series) {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, s := range series {
		f, err := os.Create(filepath.Join(dir, s.Symbol+".csv"))
		if err != nil {
			t.Fatal(err)
		}
		if err := market.WriteSeries(f, s); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

// cointegratedUniverse writes a Staples sector holding one cointegrated
// pair and a Tech sector of unrelated random walks.
func cointegratedUniverse(t *testing.T, dir string) {
	t.Helper()

	x, y := synth.CointegratedPair(750, 3, 3, 1.5, 10, 0.95)
	writePrices(t, filepath.Join(dir, "prices"),
		synth.Series("KO", 0, x),
		synth.Series("PEP", 0, y),
		synth.Series("AAPL", 0, synth.RandomWalk(11, 750, 150)),
		synth.Series("MSFT", 0, synth.RandomWalk(12, 750, 300)),
	)
	writeFile(t, filepath.Join(dir, "universe.yaml"), `sectors:
  Consumer Staples: [KO, PEP]
  Information Technology: [AAPL, MSFT]
`)
	writeFile(t, filepath.Join(dir, "statarb.yaml"), `log_level: warn
data:
  source: csv
  dir: prices
  start: "2022-01-01"
  end: "2025-01-01"
universe:
  file: universe.yaml
report:
  dir: reports
  journal: statarb.db
  trades_csv: trades.csv
  metrics_file: statarb.prom
`)
}
