package models

import "github.com/shopspring/decimal"

// Round2 rounds a money figure to 2 decimal places. Rounding happens only
// at output boundaries; intermediate accumulation stays unrounded.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
