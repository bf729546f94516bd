package marketdata

import (
	"fmt"
	"sort"
	"time"
)

// Columns holds the per-ticker price columns of a PriceTable. A nil slice
// means the source did not return that column at all.
type Columns struct {
	Close    []float64
	AdjClose []float64
}

// PriceTable is a normalized table of daily closing prices: one row per
// trading date (ascending), one column set per ticker. Sources that return
// a flat single-ticker table and sources that group by ticker both resolve
// to this shape.
type PriceTable struct {
	Dates  []time.Time
	Series map[string]Columns
}

// MissingCloseError reports that a ticker's history carries neither a
// "Close" nor an "Adjusted Close" column.
type MissingCloseError struct {
	Ticker string
}

func (e *MissingCloseError) Error() string {
	return fmt.Sprintf("no Close or Adjusted Close prices for ticker %s", e.Ticker)
}

// Empty reports whether the table has no trading dates at all.
func (t *PriceTable) Empty() bool {
	return t == nil || len(t.Dates) == 0
}

// CloseColumn returns the closing prices for ticker, aligned with Dates.
// It prefers the Close column and falls back to Adjusted Close; missing
// both is a MissingCloseError.
func (t *PriceTable) CloseColumn(ticker string) ([]float64, error) {
	cols, ok := t.Series[ticker]
	if !ok {
		return nil, &MissingCloseError{Ticker: ticker}
	}
	if cols.Close != nil {
		return cols.Close, nil
	}
	if cols.AdjClose != nil {
		return cols.AdjClose, nil
	}
	return nil, &MissingCloseError{Ticker: ticker}
}

// tickerBars is the intermediate per-ticker result an adapter produces
// before alignment. Bars must not contain duplicate dates.
type tickerBars struct {
	ticker   string
	dates    []time.Time
	close    []float64
	hasClose bool
	adjClose []float64
	hasAdj   bool
}

// buildTable merges per-ticker bars into one table over the union of
// trading dates. Gaps in a ticker's column are filled with the last seen
// value (or the first available one for leading gaps) so the valuation
// walk never meets a hole mid-series.
func buildTable(all []tickerBars) *PriceTable {
	dateSet := make(map[time.Time]struct{})
	for _, tb := range all {
		for _, d := range tb.dates {
			dateSet[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := &PriceTable{Dates: dates, Series: make(map[string]Columns, len(all))}
	for _, tb := range all {
		cols := Columns{}
		if tb.hasClose {
			cols.Close = alignColumn(dates, tb.dates, tb.close)
		}
		if tb.hasAdj {
			cols.AdjClose = alignColumn(dates, tb.dates, tb.adjClose)
		}
		table.Series[tb.ticker] = cols
	}
	return table
}

func alignColumn(dates, barDates []time.Time, values []float64) []float64 {
	byDate := make(map[time.Time]float64, len(barDates))
	for i, d := range barDates {
		byDate[d] = values[i]
	}

	aligned := make([]float64, len(dates))
	last, seeded := 0.0, false
	for i, d := range dates {
		if v, ok := byDate[d]; ok {
			last, seeded = v, true
		}
		if !seeded {
			// Leading gap: seed with the first value this ticker has.
			for _, fd := range barDates {
				last = byDate[fd]
				break
			}
		}
		aligned[i] = last
	}
	return aligned
}
