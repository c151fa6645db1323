package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a single websocket connection to the market-data feed.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	events chan Event
	done   chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	conn       *websocket.Conn
	connected  bool
	closed     bool
	subscribed []int64 // Replayed after reconnect

	wg sync.WaitGroup
}

// NewClient creates a feed client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, cfg.EventBufferSize),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of feed events. It is closed by Close; after a
// fatal event the stream goes quiet and the consumer is expected to Close
// the client.
func (c *Client) Events() <-chan Event { return c.events }

// IsConnected returns current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Connect establishes the connection and starts the read and ping loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return err
	}

	c.wg.Add(2)
	go c.readLoop(ctx)
	go c.pingLoop(ctx)

	c.logger.Info("feed connected", "url", c.cfg.URL)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	header := http.Header{}
	header.Set("X-Kite-Version", "3")
	header.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, c.cfg.AccessToken))

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}

	// Liveness is pong-driven: every pong from the peer pushes the read
	// deadline out, so an idle but healthy connection never times out. Only
	// a peer that answers neither data nor pings trips the deadline.
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Subscribe sends subscribe + full-mode commands for the tokens, batched to
// keep individual frames small. Tokens are remembered for resubscription
// after a reconnect.
func (c *Client) Subscribe(tokens []int64) error {
	c.mu.Lock()
	c.subscribed = append(c.subscribed, tokens...)
	c.mu.Unlock()
	return c.sendSubscriptions(tokens)
}

func (c *Client) sendSubscriptions(tokens []int64) error {
	for start := 0; start < len(tokens); start += c.cfg.SubscribeBatchSize {
		end := start + c.cfg.SubscribeBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		if err := c.send(subscribeCommand{Action: "subscribe", Value: batch}); err != nil {
			return fmt.Errorf("subscribe batch: %w", err)
		}
		if err := c.send(modeCommand{Action: "mode", Value: []any{"full", batch}}); err != nil {
			return fmt.Errorf("set mode: %w", err)
		}
		c.logger.Info("subscribed batch", "tokens", len(batch))

		if end < len(tokens) {
			time.Sleep(c.cfg.SubscribeBatchDelay)
		}
	}
	return nil
}

// send marshals and writes one command frame.
func (c *Client) send(v any) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()
	if !connected || conn == nil {
		return fmt.Errorf("feed not connected")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the client down gracefully. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		c.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	}

	c.wg.Wait()
	close(c.events)
	c.logger.Info("feed closed")
}

// Shutdown satisfies the session manager's Feed interface.
func (c *Client) Shutdown() { c.Close() }

// readLoop reads frames until the connection drops, then reconnects with
// backoff. After MaxReconnects consecutive failures it emits a fatal event
// and gives up.
func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		c.mu.RLock()
		conn := c.conn
		closed := c.closed
		c.mu.RUnlock()
		if closed || conn == nil {
			return
		}

		// Data frames extend the deadline too; pongs extend it via the
		// handler installed in dial.
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()

			c.logger.Warn("feed read failed", "error", err)
			c.emit(ctx, Event{Kind: KindDisconnected, ReceivedAt: time.Now(), Err: err})

			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		c.handleFrame(ctx, data)
	}
}

// handleFrame decodes one frame and emits tick batches. Unknown frame types
// are ignored.
func (c *Client) handleFrame(ctx context.Context, data []byte) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("undecodable feed frame", "error", err, "bytes", len(data))
		return
	}
	if msg.Type != "ticks" || len(msg.Data) == 0 {
		return
	}
	c.emit(ctx, Event{Kind: KindTicks, ReceivedAt: time.Now(), Ticks: msg.Data})
}

// emit delivers an event without blocking forever on a stalled consumer.
func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// reconnect dials with exponential backoff. Returns false when the client
// was closed or the give-up threshold was hit (a fatal event is emitted).
func (c *Client) reconnect(ctx context.Context) bool {
	for attempt := 1; attempt <= c.cfg.MaxReconnects; attempt++ {
		delay := time.Duration(float64(c.cfg.ReconnectBaseDelay) * math.Pow(2, float64(attempt-1)))
		if delay > c.cfg.ReconnectMaxDelay {
			delay = c.cfg.ReconnectMaxDelay
		}
		c.logger.Warn("feed reconnecting", "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return false
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.dial(ctx); err != nil {
			c.logger.Warn("feed reconnect failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.RLock()
		tokens := append([]int64(nil), c.subscribed...)
		c.mu.RUnlock()
		if err := c.sendSubscriptions(tokens); err != nil {
			c.logger.Warn("resubscribe failed", "error", err)
		}

		c.logger.Info("feed reconnected", "attempt", attempt, "resubscribed", len(tokens))
		return true
	}

	c.logger.Error("feed could not reconnect, giving up")
	c.emit(ctx, Event{Kind: KindFatal, ReceivedAt: time.Now(),
		Err: fmt.Errorf("reconnect failed after %d attempts", c.cfg.MaxReconnects)})
	return false
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			connected := c.connected
			c.mu.RUnlock()
			if !connected || conn == nil {
				continue
			}

			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", "error", err)
			}
		}
	}
}
