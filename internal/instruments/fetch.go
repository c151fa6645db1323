package instruments

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quantrail/tickvault/internal/model"
)

// FetchDump downloads the exchange's CSV instrument dump and parses it.
// Expiry dates are interpreted in the session timezone.
func FetchDump(ctx context.Context, client *resty.Client, url string, loc *time.Location) ([]model.Instrument, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch instrument dump: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch instrument dump: status %s", resp.Status())
	}
	return ParseDump(strings.NewReader(resp.String()), loc)
}

// ParseDump parses an instrument dump CSV. Required columns are matched by
// header name; rows with an unparseable token are skipped.
func ParseDump(r *strings.Reader, loc *time.Location) ([]model.Instrument, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse instrument dump: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("instrument dump is empty")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"instrument_token", "tradingsymbol", "name", "expiry", "strike", "instrument_type", "exchange"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("instrument dump missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	insts := make([]model.Instrument, 0, len(records)-1)
	for _, row := range records[1:] {
		token, err := strconv.ParseInt(field(row, "instrument_token"), 10, 64)
		if err != nil {
			continue
		}

		var expiry time.Time
		if s := field(row, "expiry"); s != "" {
			if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
				expiry = t
			}
		}
		strike, _ := strconv.ParseFloat(field(row, "strike"), 64)

		insts = append(insts, model.Instrument{
			InstrumentID: token,
			Symbol:       field(row, "tradingsymbol"),
			Underlying:   field(row, "name"),
			Exchange:     field(row, "exchange"),
			Type:         field(row, "instrument_type"),
			Strike:       strike,
			Expiry:       expiry,
		})
	}
	return insts, nil
}
