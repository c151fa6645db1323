package feed

import (
	"errors"
	"time"
)

// ErrAlreadyClosed is returned by Connect after Close.
var ErrAlreadyClosed = errors.New("feed client already closed")

// ClientConfig holds feed connection settings.
type ClientConfig struct {
	URL         string // Websocket endpoint
	APIKey      string
	AccessToken string

	PingInterval       time.Duration // Keepalive interval (default: 15s)
	ReadTimeout        time.Duration // Read deadline (default: 30s)
	ReconnectBaseDelay time.Duration // First backoff step (default: 1s)
	ReconnectMaxDelay  time.Duration // Backoff cap (default: 60s)
	MaxReconnects      int           // Give-up threshold (default: 10)

	SubscribeBatchSize  int           // Tokens per subscribe command (default: 200)
	SubscribeBatchDelay time.Duration // Pause between subscribe batches (default: 200ms)

	EventBufferSize int // Events channel capacity (default: 1024)
}

func (c *ClientConfig) applyDefaults() {
	if c.PingInterval == 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	// At least one ping must fit inside the read deadline, otherwise an
	// idle connection can never prove liveness.
	if c.ReadTimeout <= c.PingInterval {
		c.ReadTimeout = 2 * c.PingInterval
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 60 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.SubscribeBatchSize == 0 {
		c.SubscribeBatchSize = 200
	}
	if c.SubscribeBatchDelay == 0 {
		c.SubscribeBatchDelay = 200 * time.Millisecond
	}
	if c.EventBufferSize == 0 {
		c.EventBufferSize = 1024
	}
}

// EventKind discriminates feed events.
type EventKind int

const (
	// KindTicks carries a batch of tick payloads.
	KindTicks EventKind = iota
	// KindDisconnected reports a dropped connection; the client is already
	// attempting to reconnect.
	KindDisconnected
	// KindFatal reports that the client gave up reconnecting. No further
	// events follow.
	KindFatal
)

// Event is one message from the feed to the core.
type Event struct {
	Kind       EventKind
	ReceivedAt time.Time     // Local receive time (session timezone applied by the consumer)
	Ticks      []TickPayload // KindTicks only
	Err        error         // KindDisconnected / KindFatal
}

// DepthLevel is one order-book level in a tick payload.
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// OHLC carries the day's running open/high/low and previous close.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// TickPayload is one raw tick as delivered by the feed.
type TickPayload struct {
	InstrumentToken int64   `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	OHLC            OHLC    `json:"ohlc"`
	Volume          int64   `json:"volume"`
	OI              *int64  `json:"oi"` // nullable on the wire
	Depth           struct {
		Buy  []DepthLevel `json:"buy"`
		Sell []DepthLevel `json:"sell"`
	} `json:"depth"`
}

// wireMessage is the envelope of every frame from the feed.
type wireMessage struct {
	Type string        `json:"type"`
	Data []TickPayload `json:"data"`
}

// subscribeCommand is sent to the feed to subscribe a batch of tokens in
// full mode.
type subscribeCommand struct {
	Action string  `json:"a"`
	Value  []int64 `json:"v"`
}

// modeCommand sets the delivery mode for a batch of tokens.
type modeCommand struct {
	Action string `json:"a"`
	Value  []any  `json:"v"` // [mode, [tokens...]]
}
