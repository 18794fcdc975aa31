package screener

import (
	"fmt"

	"github.com/rustyeddy/statarb/report"
)

// Record flattens the candidate into the screening report layout. Stock_1 is
// the independent X leg and Stock_2 the dependent Y leg.
func (c *Candidate) Record() report.Record {
	r := report.Record{
		{Key: "Sector", Value: c.Sector},
		{Key: "Stock_1", Value: c.X},
		{Key: "Stock_2", Value: c.Y},
		{Key: "Correlation", Value: c.Correlation},
		{Key: "Coint_PValue", Value: c.CointPValue},
		{Key: "Coint_Score", Value: c.CointScore},
		{Key: "Optimal_Direction", Value: c.Direction},
		{Key: "Alt_PValue", Value: c.AltPValue},
		{Key: "Spread_ADF_PValue", Value: c.SpreadADFPValue},
	}
	st := c.Stats
	if st == nil {
		return r
	}
	return append(r,
		report.Field{Key: "Hedge_Ratio", Value: st.HedgeRatio},
		report.Field{Key: "Spread_Mean", Value: st.SpreadMean},
		report.Field{Key: "Spread_Std", Value: st.SpreadStd},
		report.Field{Key: "Current_ZScore", Value: st.CurrentZScore},
		report.Field{Key: "Half_Life", Value: report.Opt(st.HalfLife)},
		report.Field{Key: "Hurst", Value: st.Hurst},
		report.Field{Key: "Zero_Crossings", Value: st.ZeroCrossings},
		report.Field{Key: "Stock1_Price", Value: report.Cents(c.PriceX)},
		report.Field{Key: "Stock2_Price", Value: report.Cents(c.PriceY)},
		report.Field{Key: "ZScore_Mean", Value: st.ZScoreSummary.Mean},
		report.Field{Key: "ZScore_Std", Value: st.ZScoreSummary.Std},
		report.Field{Key: "ZScore_Min", Value: st.ZScoreSummary.Min},
		report.Field{Key: "ZScore_Max", Value: st.ZScoreSummary.Max},
		report.Field{Key: "Reversion_Rate", Value: report.Opt(st.ReversionRate)},
	)
}

// FromRecords rebuilds the pair identity and headline diagnostics of
// candidates read back from a screening report. Stats are not restored.
func FromRecords(records []report.Record) ([]Candidate, error) {
	out := make([]Candidate, 0, len(records))
	for i, r := range records {
		c := Candidate{
			Sector: r.String("Sector"),
			X:      r.String("Stock_1"),
			Y:      r.String("Stock_2"),
		}
		if c.X == "" || c.Y == "" {
			return nil, fmt.Errorf("screener: record %d has no Stock_1/Stock_2", i+1)
		}
		c.Correlation, _ = r.Float("Correlation")
		c.CointScore, _ = r.Float("Coint_Score")
		c.AltPValue, _ = r.Float("Alt_PValue")
		c.SpreadADFPValue, _ = r.Float("Spread_ADF_PValue")
		c.PriceX, _ = r.Float("Stock1_Price")
		c.PriceY, _ = r.Float("Stock2_Price")
		p, ok := r.Float("Coint_PValue")
		if !ok {
			p = 1
		}
		c.CointPValue = p
		if d, ok := r.Float("Optimal_Direction"); ok {
			c.Direction = int(d)
		}
		out = append(out, c)
	}
	return out, nil
}
