package consolidate

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/quantrail/tickvault/internal/instruments"
)

// columnIndex maps the batch header to column positions. Schema drift (a
// batch missing a required column) is an error, isolated to the chunk that
// contains the file.
type columnIndex struct {
	captureTime  int
	instrumentID int
	lastPrice    int
	open         int
	high         int
	low          int
	close        int
	volume       int
	oi           int
	depthBuy     int
	depthSell    int
}

func indexColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	get := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("batch header missing column %q", name)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.captureTime, err = get("capture_time"); err != nil {
		return idx, err
	}
	if idx.instrumentID, err = get("instrument_id"); err != nil {
		return idx, err
	}
	if idx.lastPrice, err = get("last_price"); err != nil {
		return idx, err
	}
	if idx.open, err = get("ohlc_open"); err != nil {
		return idx, err
	}
	if idx.high, err = get("ohlc_high"); err != nil {
		return idx, err
	}
	if idx.low, err = get("ohlc_low"); err != nil {
		return idx, err
	}
	if idx.close, err = get("ohlc_close"); err != nil {
		return idx, err
	}
	if idx.volume, err = get("volume"); err != nil {
		return idx, err
	}
	if idx.oi, err = get("oi"); err != nil {
		return idx, err
	}
	if idx.depthBuy, err = get("depth_buy"); err != nil {
		return idx, err
	}
	if idx.depthSell, err = get("depth_sell"); err != nil {
		return idx, err
	}
	return idx, nil
}

// coerceFloat parses leniently: anything unparseable becomes 0.
func coerceFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// coerceInt parses leniently, accepting float renderings of integers.
func coerceInt(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// normalizeRow converts one raw CSV record to a Row, joining enrichment from
// dir when present. A row with an unparseable timestamp cannot be ordered
// and is rejected.
func normalizeRow(raw []string, idx columnIndex, dir *instruments.Directory, sessionDate time.Time) (Row, error) {
	at := func(i int) string {
		if i < len(raw) {
			return raw[i]
		}
		return ""
	}

	ts, err := time.Parse(time.RFC3339Nano, at(idx.captureTime))
	if err != nil {
		return Row{}, fmt.Errorf("unparseable capture_time %q: %w", at(idx.captureTime), err)
	}

	row := Row{
		CaptureTime:     ts.UnixMicro(),
		InstrumentToken: coerceInt(at(idx.instrumentID)),
		LastPrice:       coerceFloat(at(idx.lastPrice)),
		Open:            coerceFloat(at(idx.open)),
		High:            coerceFloat(at(idx.high)),
		Low:             coerceFloat(at(idx.low)),
		Close:           coerceFloat(at(idx.close)),
		Volume:          coerceInt(at(idx.volume)),
		OpenInterest:    coerceInt(at(idx.oi)),
		DepthBuy:        at(idx.depthBuy),
		DepthSell:       at(idx.depthSell),
	}

	if dir != nil {
		if inst, ok := dir.Lookup(row.InstrumentToken); ok {
			row.Symbol = inst.Symbol
			row.InstrumentType = inst.Type
			row.Strike = inst.Strike
			row.Exchange = inst.Exchange
			row.Underlying = inst.Underlying
			if !inst.Expiry.IsZero() {
				row.ExpiryDate = inst.Expiry.Format("2006-01-02")
				row.DaysToExpiry = inst.DaysToExpiry(sessionDate)
			}
		}
	}

	return row, nil
}

// cleanChunk sorts rows by (capture_time, instrument_token) and drops exact
// duplicates. Two rows identical in every field collapse to one; a row
// differing only by a microsecond keeps both.
func cleanChunk(rows []Row) []Row {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CaptureTime != rows[j].CaptureTime {
			return rows[i].CaptureTime < rows[j].CaptureTime
		}
		return rows[i].InstrumentToken < rows[j].InstrumentToken
	})

	out := rows[:0]
	seen := make(map[Row]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
