//go:build blackbox

package blackbox

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestScanThenBacktest(t *testing.T) {
	dir := t.TempDir()
	cointegratedUniverse(t, dir)

	out := run(t, dir, "--config", "statarb.yaml", "--no-color", "scan")
	if !contains(out, "1 candidates") || !contains(out, "KO") {
		t.Fatalf("scan output:\n%s", out)
	}

	out = run(t, dir, "--config", "statarb.yaml", "--no-color", "backtest", "--top", "5")
	if !contains(out, "Average Backtest Metrics (1 pairs)") {
		t.Fatalf("backtest output:\n%s", out)
	}

	reports, err := filepath.Glob(filepath.Join(dir, "reports", "*", "*.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("want 2 reports, got %v", reports)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "statarb.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs, trades int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&trades); err != nil {
		t.Fatal(err)
	}
	if runs != 2 || trades == 0 {
		t.Fatalf("journal has %d runs and %d trades", runs, trades)
	}

	prom, err := os.ReadFile(filepath.Join(dir, "statarb.prom"))
	if err != nil {
		t.Fatal(err)
	}
	if !contains(string(prom), "statarb_backtests_total") {
		t.Fatalf("metrics file:\n%s", prom)
	}

	out = run(t, dir, "--config", "statarb.yaml", "journal", "runs", "-n", "1")
	if !contains(out, "* BACKTEST: ") {
		t.Fatalf("journal output:\n%s", out)
	}
}

func TestBacktestWithoutScanFails(t *testing.T) {
	dir := t.TempDir()
	cointegratedUniverse(t, dir)

	out := runFail(t, dir, "--config", "statarb.yaml", "backtest")
	if !contains(out, "load candidates") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
