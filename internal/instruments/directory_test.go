package instruments

import (
	"strings"
	"testing"
	"time"

	"github.com/quantrail/tickvault/internal/model"
)

const dumpCSV = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
11111,43,BANKNIFTY25SEPFUT,BANKNIFTY,0,2025-09-30,0,0.05,15,FUT,NFO-FUT,NFO
11112,44,BANKNIFTY25OCTFUT,BANKNIFTY,0,2025-10-28,0,0.05,15,FUT,NFO-FUT,NFO
22221,45,BANKNIFTY25SEP55000CE,BANKNIFTY,0,2025-09-02,55000,0.05,15,CE,NFO-OPT,NFO
22222,46,BANKNIFTY25SEP55000PE,BANKNIFTY,0,2025-09-02,55000,0.05,15,PE,NFO-OPT,NFO
22223,47,BANKNIFTY25SEP60000CE,BANKNIFTY,0,2025-09-02,60000,0.05,15,CE,NFO-OPT,NFO
33331,48,BANKNIFTY25OCT55000CE,BANKNIFTY,0,2025-10-01,55000,0.05,15,CE,NFO-OPT,NFO
99999,49,NIFTY25SEP25000CE,NIFTY,0,2025-09-02,25000,0.05,50,CE,NFO-OPT,NFO
bogus,50,BROKEN,BANKNIFTY,0,2025-09-02,55000,0.05,15,CE,NFO-OPT,NFO
`

func TestParseDump(t *testing.T) {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	insts, err := ParseDump(strings.NewReader(dumpCSV), ist)
	if err != nil {
		t.Fatalf("ParseDump: %v", err)
	}
	// The bogus-token row is skipped.
	if len(insts) != 7 {
		t.Fatalf("parsed %d instruments, want 7", len(insts))
	}

	dir := NewDirectory(insts)
	inst, ok := dir.Lookup(22221)
	if !ok {
		t.Fatal("Lookup(22221) = false, want true")
	}
	if inst.Symbol != "BANKNIFTY25SEP55000CE" {
		t.Errorf("Symbol = %q", inst.Symbol)
	}
	if inst.Strike != 55000 {
		t.Errorf("Strike = %v, want 55000", inst.Strike)
	}
	if inst.Type != "CE" {
		t.Errorf("Type = %q, want CE", inst.Type)
	}
	if got := inst.Expiry.Format("2006-01-02"); got != "2025-09-02" {
		t.Errorf("Expiry = %s, want 2025-09-02", got)
	}
}

func TestParseDump_MissingColumn(t *testing.T) {
	_, err := ParseDump(strings.NewReader("a,b,c\n1,2,3\n"), time.UTC)
	if err == nil {
		t.Error("ParseDump with missing columns = nil error, want error")
	}
}

func TestSelect(t *testing.T) {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	insts, err := ParseDump(strings.NewReader(dumpCSV), ist)
	if err != nil {
		t.Fatalf("ParseDump: %v", err)
	}

	today := time.Date(2025, 8, 28, 9, 0, 0, 0, ist)
	cfg := DefaultSelectorConfig("BANKNIFTY")
	tokens := Select(cfg, insts, today, 55000)

	want := map[int64]bool{
		11111: true, // nearest future
		11112: true, // next future
		22221: true, // weekly CE within band
		22222: true, // weekly PE within band
		33331: true, // monthly supplement (weekly coverage below MinWeekly)
	}
	got := map[int64]bool{}
	for _, tok := range tokens {
		got[tok] = true
	}

	for tok := range want {
		if !got[tok] {
			t.Errorf("Select missing token %d", tok)
		}
	}
	if got[22223] {
		t.Error("Select included 60000 strike outside the band")
	}
	if got[99999] {
		t.Error("Select included an instrument of another underlying")
	}
}

func TestSelect_EmergencyFallback(t *testing.T) {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	insts := []model.Instrument{
		// Everything already expired: normal selection matches nothing.
		{InstrumentID: 1, Underlying: "BANKNIFTY", Type: "CE", Strike: 55000, Expiry: time.Date(2025, 1, 1, 0, 0, 0, 0, ist)},
		{InstrumentID: 2, Underlying: "BANKNIFTY", Type: "PE", Strike: 55000, Expiry: time.Date(2025, 1, 1, 0, 0, 0, 0, ist)},
		{InstrumentID: 3, Underlying: "NIFTY", Type: "CE", Strike: 25000, Expiry: time.Date(2025, 1, 1, 0, 0, 0, 0, ist)},
	}

	today := time.Date(2025, 8, 28, 9, 0, 0, 0, ist)
	tokens := Select(DefaultSelectorConfig("BANKNIFTY"), insts, today, 55000)

	if len(tokens) != 2 {
		t.Fatalf("fallback selected %d tokens, want 2", len(tokens))
	}
	for _, tok := range tokens {
		if tok == 3 {
			t.Error("fallback crossed underlyings")
		}
	}
}
