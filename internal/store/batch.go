package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quantrail/tickvault/internal/model"
)

// Header is the column layout of every intermediate batch file.
var Header = []string{
	"capture_time",
	"instrument_id",
	"last_price",
	"ohlc_open",
	"ohlc_high",
	"ohlc_low",
	"ohlc_close",
	"volume",
	"oi",
	"depth_buy",
	"depth_sell",
}

// encodeTick renders one tick as a CSV record matching Header.
func encodeTick(t model.Tick) []string {
	return []string{
		t.CaptureTime.Format(time.RFC3339Nano),
		strconv.FormatInt(t.InstrumentID, 10),
		floatStr(t.LastPrice),
		floatStr(t.Open),
		floatStr(t.High),
		floatStr(t.Low),
		floatStr(t.Close),
		strconv.FormatInt(t.Volume, 10),
		strconv.FormatInt(t.OpenInterest, 10),
		t.DepthBuy,
		t.DepthSell,
	}
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// writeBatchFile writes header + records to path. A partially written file is
// removed so a failed flush never leaves a truncated batch behind.
func writeBatchFile(path string, ticks []model.Tick) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create batch file: %w", err)
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(Header)
	for _, t := range ticks {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(encodeTick(t))
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}

	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(path)
		return fmt.Errorf("write batch file: %w", writeErr)
	}
	return nil
}

// ReadBatch reads one batch file and returns its header and data rows as raw
// string records. Type coercion is the consolidation engine's job; the store
// only guarantees rectangular CSV.
func ReadBatch(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read batch file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("batch file %s has no header", path)
	}
	return records[0], records[1:], nil
}
