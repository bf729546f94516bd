package models

import "time"

// Stock is the cached price snapshot for one ticker. LastPrice is nil
// until a quote has been fetched successfully at least once; LastUpdate
// drives the staleness check before the snapshot is served.
type Stock struct {
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Currency   *string   `json:"currency"`
	LastPrice  *float64  `json:"last_price"`
	LastUpdate time.Time `json:"last_update"`
}
