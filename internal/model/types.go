package model

import "time"

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// Tick represents one market data observation for one instrument.
type Tick struct {
	CaptureTime  time.Time // Local receive time, session timezone
	InstrumentID int64     // Exchange instrument token
	LastPrice    float64   // Last traded price
	Open         float64   // Day OHLC open
	High         float64   // Day OHLC high
	Low          float64   // Day OHLC low
	Close        float64   // Previous day close
	Volume       int64     // Cumulative traded volume
	OpenInterest int64     // Open interest (0 when the feed omits it)
	DepthBuy     string    // Buy-side depth snapshot, serialized JSON
	DepthSell    string    // Sell-side depth snapshot, serialized JSON
}

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// Instrument holds static per-contract metadata from the exchange dump.
// Immutable once the session's directory is built.
type Instrument struct {
	InstrumentID int64     // Exchange instrument token (primary key)
	Symbol       string    // Trading symbol (e.g., "BANKNIFTY25SEP55000CE")
	Underlying   string    // Underlying name (e.g., "BANKNIFTY")
	Exchange     string    // Exchange segment (e.g., "NFO")
	Type         string    // "FUT", "CE", "PE", ...
	Strike       float64   // Strike price, 0 for futures
	Expiry       time.Time // Contract expiry date (midnight, session timezone)
}

// DaysToExpiry returns whole days between the given date and the contract
// expiry, negative for expired contracts.
func (i Instrument) DaysToExpiry(from time.Time) int32 {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	exp := i.Expiry.In(from.Location())
	expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, from.Location())
	return int32(expDay.Sub(fromDay) / (24 * time.Hour))
}
