package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCloseColumn_PrefersClose(t *testing.T) {
	table := &PriceTable{
		Dates: []time.Time{day(2026, 8, 20)},
		Series: map[string]Columns{
			"AAPL": {Close: []float64{190.5}, AdjClose: []float64{189.0}},
		},
	}

	closes, err := table.CloseColumn("AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{190.5}, closes)
}

func TestCloseColumn_FallsBackToAdjClose(t *testing.T) {
	table := &PriceTable{
		Dates: []time.Time{day(2026, 8, 20)},
		Series: map[string]Columns{
			"AAPL": {AdjClose: []float64{189.0}},
		},
	}

	closes, err := table.CloseColumn("AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{189.0}, closes)
}

func TestCloseColumn_MissingBoth(t *testing.T) {
	table := &PriceTable{
		Dates: []time.Time{day(2026, 8, 20)},
		Series: map[string]Columns{
			"AAPL": {},
		},
	}

	_, err := table.CloseColumn("AAPL")
	var missing *MissingCloseError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "AAPL", missing.Ticker)
	assert.Equal(t, "no Close or Adjusted Close prices for ticker AAPL", err.Error())
}

func TestCloseColumn_UnknownTicker(t *testing.T) {
	table := &PriceTable{Dates: []time.Time{day(2026, 8, 20)}, Series: map[string]Columns{}}

	_, err := table.CloseColumn("MSFT")
	var missing *MissingCloseError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "MSFT", missing.Ticker)
}

func TestEmpty(t *testing.T) {
	var nilTable *PriceTable
	assert.True(t, nilTable.Empty())
	assert.True(t, (&PriceTable{}).Empty())
	assert.False(t, (&PriceTable{Dates: []time.Time{day(2026, 8, 20)}}).Empty())
}

func TestBuildTable_UnionOfDatesSorted(t *testing.T) {
	table := buildTable([]tickerBars{
		{
			ticker:   "AAPL",
			dates:    []time.Time{day(2026, 8, 21), day(2026, 8, 20)},
			close:    []float64{191.0, 190.0},
			hasClose: true,
		},
		{
			ticker:   "MSFT",
			dates:    []time.Time{day(2026, 8, 22)},
			close:    []float64{410.0},
			hasClose: true,
		},
	})

	assert.Equal(t, []time.Time{day(2026, 8, 20), day(2026, 8, 21), day(2026, 8, 22)}, table.Dates)
}

func TestBuildTable_GapFilledWithLastValue(t *testing.T) {
	table := buildTable([]tickerBars{
		{
			ticker:   "AAPL",
			dates:    []time.Time{day(2026, 8, 20), day(2026, 8, 22)},
			close:    []float64{190.0, 192.0},
			hasClose: true,
		},
		{
			ticker:   "MSFT",
			dates:    []time.Time{day(2026, 8, 20), day(2026, 8, 21), day(2026, 8, 22)},
			close:    []float64{400.0, 405.0, 410.0},
			hasClose: true,
		},
	})

	closes, err := table.CloseColumn("AAPL")
	require.NoError(t, err)
	// 2026-08-21 carries the 2026-08-20 close forward.
	assert.Equal(t, []float64{190.0, 190.0, 192.0}, closes)
}

func TestBuildTable_LeadingGapSeededWithFirstValue(t *testing.T) {
	table := buildTable([]tickerBars{
		{
			ticker:   "AAPL",
			dates:    []time.Time{day(2026, 8, 21), day(2026, 8, 22)},
			close:    []float64{191.0, 192.0},
			hasClose: true,
		},
		{
			ticker:   "MSFT",
			dates:    []time.Time{day(2026, 8, 20), day(2026, 8, 21), day(2026, 8, 22)},
			close:    []float64{400.0, 405.0, 410.0},
			hasClose: true,
		},
	})

	closes, err := table.CloseColumn("AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{191.0, 191.0, 192.0}, closes)
}
