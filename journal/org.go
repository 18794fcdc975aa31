package journal

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured
// facts go in the PROPERTIES drawer so they stay searchable.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s/%s %s (%s)", t.X, t.Y, t.Side, shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":PAIR: %s/%s\n", t.X, t.Y))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":ENTRY_DATE: %s\n", t.EntryDate.UTC().Format(time.DateOnly)))
	b.WriteString(fmt.Sprintf(":EXIT_DATE: %s\n", t.ExitDate.UTC().Format(time.DateOnly)))
	b.WriteString(fmt.Sprintf(":ENTRY_Z: %.2f\n", t.EntryZ))
	b.WriteString(fmt.Sprintf(":EXIT_Z: %.2f\n", t.ExitZ))
	b.WriteString(fmt.Sprintf(":HEDGE_RATIO: %.4f\n", t.HedgeRatio))
	b.WriteString(fmt.Sprintf(":DAYS_HELD: %d\n", t.HoldingDays))
	b.WriteString(fmt.Sprintf(":PNL: %.2f\n", t.PnL))
	b.WriteString(fmt.Sprintf(":PNL_PCT: %.2f\n", t.PnLPct))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatCandidatesOrg renders a run's candidates as an Org table.
func FormatCandidatesOrg(cs []CandidateRecord) string {
	var b strings.Builder
	b.WriteString("| Sector | Stock 1 | Stock 2 | Corr | Coint p | Spread ADF p | Hedge | Half-life | Hurst | Z |\n")
	b.WriteString("|--------+---------+---------+------+---------+--------------+-------+-----------+-------+---|\n")
	for _, c := range cs {
		hl := "-"
		if c.HalfLife != nil {
			hl = fmt.Sprintf("%.1f", *c.HalfLife)
		}
		z := "-"
		if !math.IsNaN(c.CurrentZ) {
			z = fmt.Sprintf("%.2f", c.CurrentZ)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.3f | %.4f | %.4f | %.4f | %s | %.3f | %s |\n",
			c.Sector, c.X, c.Y, c.Correlation, c.CointPValue, c.SpreadADF, c.HedgeRatio, hl, c.Hurst, z)
	}
	return b.String()
}

// FormatRunOrg renders a run header with its properties drawer.
func FormatRunOrg(r Run) (string, error) {
	t, err := template.New("run").Funcs(runOrgFuncs).Parse(runOrgTemplate)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var runOrgFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "(date?)"
		}
		return t.UTC().Format(time.DateOnly)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			t = time.Now()
		}
		return t.Format("2006-01-02 Mon 15:04")
	},
}

const runOrgTemplate = `* {{if eq .Kind "scan"}}SCAN{{else}}BACKTEST{{end}}: {{.RunID}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:KIND:        {{.Kind}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:SECTORS:     {{.Sectors}}
:TESTED:      {{.Tested}}
:CANDIDATES:  {{.Candidates}}
:PAIRS:       {{.Pairs}}
:TRADES:      {{.Trades}}
:TOTAL_PNL:   {{printf "%.2f" .TotalPnL}}
:CREATED:     [{{stamp .Created}}]
:END:
{{- if .Notes}}

{{.Notes}}
{{- end}}
`

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
