package consolidate

// Row is the final artifact schema. One instance per surviving tick.
//
// All numeric fields are concrete (missing or unparseable inputs coerce to
// zero) so the output stays uniformly queryable; enrichment columns are
// optional because the instrument directory may be absent for a session.
type Row struct {
	// CaptureTime is µs since the Unix epoch. The column carries no zone:
	// batch timestamps are zone-bearing RFC3339 and normalize to the same
	// instant regardless of the session timezone, which instead governs
	// artifact dating and days-to-expiry arithmetic.
	CaptureTime     int64   `parquet:"capture_time"`
	InstrumentToken int64   `parquet:"instrument_token"`
	LastPrice       float64 `parquet:"last_price"`
	Open            float64 `parquet:"ohlc_open"`
	High            float64 `parquet:"ohlc_high"`
	Low             float64 `parquet:"ohlc_low"`
	Close           float64 `parquet:"ohlc_close"`
	Volume          int64   `parquet:"volume"`
	OpenInterest    int64   `parquet:"oi"`
	DepthBuy        string  `parquet:"depth_buy"`
	DepthSell       string  `parquet:"depth_sell"`

	// Enrichment from the instrument directory.
	Symbol         string  `parquet:"symbol,optional"`
	InstrumentType string  `parquet:"instrument_type,optional"`
	Strike         float64 `parquet:"strike,optional"`
	ExpiryDate     string  `parquet:"expiry_date,optional"` // YYYY-MM-DD
	DaysToExpiry   int32   `parquet:"days_to_expiry,optional"`
	Exchange       string  `parquet:"exchange,optional"`
	Underlying     string  `parquet:"underlying_name,optional"`
}
