package instruments

import (
	"github.com/quantrail/tickvault/internal/model"
)

// Directory is an immutable instrument_token -> metadata mapping for one
// session.
type Directory struct {
	byToken map[int64]model.Instrument
}

// NewDirectory builds a directory from a slice of instruments. Later entries
// win on duplicate tokens.
func NewDirectory(insts []model.Instrument) *Directory {
	m := make(map[int64]model.Instrument, len(insts))
	for _, inst := range insts {
		m[inst.InstrumentID] = inst
	}
	return &Directory{byToken: m}
}

// Lookup returns the metadata for a token.
func (d *Directory) Lookup(token int64) (model.Instrument, bool) {
	inst, ok := d.byToken[token]
	return inst, ok
}

// Len returns the number of instruments in the directory.
func (d *Directory) Len() int { return len(d.byToken) }

// All returns the instruments in unspecified order.
func (d *Directory) All() []model.Instrument {
	out := make([]model.Instrument, 0, len(d.byToken))
	for _, inst := range d.byToken {
		out = append(out, inst)
	}
	return out
}
