package feed

import (
	"encoding/json"
	"time"

	"github.com/quantrail/tickvault/internal/model"
)

// ToTick maps one raw payload into the core tick record. receivedAt becomes
// the capture time; a missing open interest coerces to 0; depth snapshots
// are frozen as JSON blobs so the core never parses them again.
func ToTick(p TickPayload, receivedAt time.Time) model.Tick {
	var oi int64
	if p.OI != nil {
		oi = *p.OI
	}
	return model.Tick{
		CaptureTime:  receivedAt,
		InstrumentID: p.InstrumentToken,
		LastPrice:    p.LastPrice,
		Open:         p.OHLC.Open,
		High:         p.OHLC.High,
		Low:          p.OHLC.Low,
		Close:        p.OHLC.Close,
		Volume:       p.Volume,
		OpenInterest: oi,
		DepthBuy:     marshalDepth(p.Depth.Buy),
		DepthSell:    marshalDepth(p.Depth.Sell),
	}
}

// ToTicks converts a batch, stamping every tick with the same receive time.
func ToTicks(payloads []TickPayload, receivedAt time.Time) []model.Tick {
	ticks := make([]model.Tick, 0, len(payloads))
	for _, p := range payloads {
		ticks = append(ticks, ToTick(p, receivedAt))
	}
	return ticks
}

func marshalDepth(levels []DepthLevel) string {
	if len(levels) == 0 {
		return "[]"
	}
	data, err := json.Marshal(levels)
	if err != nil {
		return "[]"
	}
	return string(data)
}
