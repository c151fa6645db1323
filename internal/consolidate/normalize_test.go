package consolidate

import (
	"testing"
	"time"

	"github.com/quantrail/tickvault/internal/instruments"
	"github.com/quantrail/tickvault/internal/model"
	"github.com/quantrail/tickvault/internal/store"
)

func TestCoercion(t *testing.T) {
	if got := coerceFloat("100.5"); got != 100.5 {
		t.Errorf("coerceFloat(100.5) = %v", got)
	}
	if got := coerceFloat(""); got != 0 {
		t.Errorf("coerceFloat(empty) = %v, want 0", got)
	}
	if got := coerceFloat("n/a"); got != 0 {
		t.Errorf("coerceFloat(n/a) = %v, want 0", got)
	}
	if got := coerceInt("1001"); got != 1001 {
		t.Errorf("coerceInt(1001) = %v", got)
	}
	if got := coerceInt("1001.0"); got != 1001 {
		t.Errorf("coerceInt(1001.0) = %v, want 1001", got)
	}
	if got := coerceInt("garbage"); got != 0 {
		t.Errorf("coerceInt(garbage) = %v, want 0", got)
	}
}

func TestNormalizeRow(t *testing.T) {
	idx, err := indexColumns(store.Header)
	if err != nil {
		t.Fatalf("indexColumns: %v", err)
	}

	ist, _ := time.LoadLocation("Asia/Kolkata")
	raw := []string{
		"2025-08-28T09:15:30.000123+05:30",
		"256265",
		"100.5",
		"", // missing open coerces to 0
		"101",
		"not-a-number",
		"100",
		"1200",
		"", // missing oi coerces to 0
		`[{"price":100.4}]`,
		`[{"price":100.6}]`,
	}

	row, err := normalizeRow(raw, idx, nil, time.Date(2025, 8, 28, 0, 0, 0, 0, ist))
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if row.InstrumentToken != 256265 {
		t.Errorf("InstrumentToken = %d", row.InstrumentToken)
	}
	if row.Open != 0 || row.Low != 0 || row.OpenInterest != 0 {
		t.Errorf("missing numerics not zero-coerced: open=%v low=%v oi=%v", row.Open, row.Low, row.OpenInterest)
	}
	want := time.Date(2025, 8, 28, 9, 15, 30, 123000, ist).UnixMicro()
	if row.CaptureTime != want {
		t.Errorf("CaptureTime = %d, want %d", row.CaptureTime, want)
	}
}

func TestNormalizeRow_CaptureTimeZoneIndependent(t *testing.T) {
	idx, err := indexColumns(store.Header)
	if err != nil {
		t.Fatalf("indexColumns: %v", err)
	}

	// The same instant rendered in two zones must normalize identically.
	rest := []string{"1", "0", "0", "0", "0", "0", "0", "0", "", ""}
	inIST, err := normalizeRow(append([]string{"2025-08-28T09:15:30+05:30"}, rest...), idx, nil, time.Now())
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	inUTC, err := normalizeRow(append([]string{"2025-08-28T03:45:30Z"}, rest...), idx, nil, time.Now())
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if inIST.CaptureTime != inUTC.CaptureTime {
		t.Errorf("CaptureTime differs by rendering zone: %d vs %d", inIST.CaptureTime, inUTC.CaptureTime)
	}
}

func TestNormalizeRow_BadTimestamp(t *testing.T) {
	idx, err := indexColumns(store.Header)
	if err != nil {
		t.Fatalf("indexColumns: %v", err)
	}
	raw := []string{"yesterday-ish", "1", "0", "0", "0", "0", "0", "0", "0", "", ""}
	if _, err := normalizeRow(raw, idx, nil, time.Now()); err == nil {
		t.Error("normalizeRow with bad timestamp = nil error, want error")
	}
}

func TestNormalizeRow_Enrichment(t *testing.T) {
	idx, err := indexColumns(store.Header)
	if err != nil {
		t.Fatalf("indexColumns: %v", err)
	}
	ist, _ := time.LoadLocation("Asia/Kolkata")
	dir := instruments.NewDirectory([]model.Instrument{{
		InstrumentID: 1001,
		Symbol:       "BANKNIFTY25SEP55000CE",
		Underlying:   "BANKNIFTY",
		Exchange:     "NFO",
		Type:         "CE",
		Strike:       55000,
		Expiry:       time.Date(2025, 9, 2, 0, 0, 0, 0, ist),
	}})

	raw := []string{"2025-08-28T09:15:30+05:30", "1001", "100.5", "0", "0", "0", "0", "0", "0", "", ""}
	sessionDate := time.Date(2025, 8, 28, 0, 0, 0, 0, ist)
	row, err := normalizeRow(raw, idx, dir, sessionDate)
	if err != nil {
		t.Fatalf("normalizeRow: %v", err)
	}
	if row.Symbol != "BANKNIFTY25SEP55000CE" || row.InstrumentType != "CE" {
		t.Errorf("enrichment missing: %+v", row)
	}
	if row.ExpiryDate != "2025-09-02" {
		t.Errorf("ExpiryDate = %q", row.ExpiryDate)
	}
	if row.DaysToExpiry != 5 {
		t.Errorf("DaysToExpiry = %d, want 5", row.DaysToExpiry)
	}
}

func TestIndexColumns_SchemaDrift(t *testing.T) {
	_, err := indexColumns([]string{"capture_time", "something_else"})
	if err == nil {
		t.Error("indexColumns with drifted header = nil error, want error")
	}
}

func TestCleanChunk(t *testing.T) {
	base := time.Date(2025, 8, 28, 9, 15, 0, 0, time.UTC).UnixMicro()
	rows := []Row{
		{CaptureTime: base + 10, InstrumentToken: 2},
		{CaptureTime: base, InstrumentToken: 5},
		{CaptureTime: base, InstrumentToken: 1},
		{CaptureTime: base, InstrumentToken: 1},     // exact duplicate
		{CaptureTime: base + 1, InstrumentToken: 1}, // one µs later: distinct
	}

	cleaned := cleanChunk(rows)
	if len(cleaned) != 4 {
		t.Fatalf("cleanChunk returned %d rows, want 4", len(cleaned))
	}
	wantOrder := []struct {
		ts    int64
		token int64
	}{
		{base, 1}, {base, 5}, {base + 1, 1}, {base + 10, 2},
	}
	for i, w := range wantOrder {
		if cleaned[i].CaptureTime != w.ts || cleaned[i].InstrumentToken != w.token {
			t.Errorf("cleaned[%d] = (%d,%d), want (%d,%d)",
				i, cleaned[i].CaptureTime, cleaned[i].InstrumentToken, w.ts, w.token)
		}
	}
}
