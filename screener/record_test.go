package screener

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/statarb/report"
)

func TestCandidateRecordRoundTrip(t *testing.T) {
	t.Parallel()

	res := New(testParams(), zerolog.Nop()).ScreenSector(pairTable(), "Staples")
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]

	rec := c.Record()
	assert.Equal(t, "KO", rec.String("Stock_1"))
	assert.Equal(t, "PEP", rec.String("Stock_2"))
	hl, ok := rec.Float("Half_Life")
	require.True(t, ok)
	assert.Equal(t, *c.Stats.HalfLife, hl)

	back, err := FromRecords([]report.Record{rec})
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, c.Key(), back[0].Key())
	assert.Equal(t, c.Sector, back[0].Sector)
	assert.Equal(t, c.CointPValue, back[0].CointPValue)
	assert.Equal(t, 1, back[0].Direction)
}

func TestFromRecordsRequiresLegs(t *testing.T) {
	t.Parallel()

	_, err := FromRecords([]report.Record{{{Key: "Stock_1", Value: "KO"}}})
	assert.Error(t, err)
}
