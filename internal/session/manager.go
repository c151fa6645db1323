package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Feed is the manager's view of the ingestion feed. Reconnection is the
// feed's own responsibility; the manager only observes connectivity and
// requests shutdown at EOD.
type Feed interface {
	IsConnected() bool
	Shutdown()
}

// Config holds session timing. All thresholds are wall-clock times in the
// session timezone.
type Config struct {
	Location *time.Location
	Open     WallTime // Market open (e.g., 09:15)
	Close    WallTime // Market close (e.g., 15:30)
	EOD      WallTime // EOD processing threshold (e.g., 15:45)

	PollInterval   time.Duration // Active-state check interval (default: 30s)
	MaxOpenWait    time.Duration // Sleep bound while waiting on a trading day (default: 5m)
	OffDayWait     time.Duration // Sleep bound across non-trading days (default: 1h)
	HealthInterval time.Duration // Connectivity log interval while active (default: 15m)
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.MaxOpenWait == 0 {
		c.MaxOpenWait = 5 * time.Minute
	}
	if c.OffDayWait == 0 {
		c.OffDayWait = time.Hour
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = 15 * time.Minute
	}
}

// Manager is the session lifecycle state machine.
type Manager struct {
	cfg    Config
	clock  Clock
	feed   Feed
	logger *slog.Logger

	state   atomic.Int32
	eodOnce sync.Once
}

// NewManager creates a Manager in WaitingForOpen.
func NewManager(cfg Config, clock Clock, feed Feed, logger *slog.Logger) *Manager {
	cfg.applyDefaults()
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Manager{
		cfg:    cfg,
		clock:  clock,
		feed:   feed,
		logger: logger,
	}
}

// State returns the current phase.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	old := State(m.state.Swap(int32(s)))
	if old != s {
		m.logger.Info("session state changed", "from", old.String(), "to", s.String())
	}
}

// now returns the wall clock in the session timezone.
func (m *Manager) now() time.Time {
	return m.clock.Now().In(m.cfg.Location)
}

// tradingDay reports whether d is a trading day. Exchange holidays are out
// of scope; weekends are not.
func tradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WaitUntilOpen blocks until the session open window is reached on a trading
// day, then transitions to Active and returns true. It returns false without
// ever entering Active when the market has already closed for the current
// day (the caller must run consolidation once and terminate, never open a
// feed for an ended session), or when ctx is cancelled.
func (m *Manager) WaitUntilOpen(ctx context.Context) (bool, error) {
	for {
		now := m.now()

		if tradingDay(now) && m.cfg.Close.Reached(now.Hour(), now.Minute()) {
			m.logger.Info("started past market close, skipping session",
				"now", now.Format("15:04"),
			)
			m.setState(Closed)
			return false, nil
		}

		if tradingDay(now) && m.cfg.Open.Reached(now.Hour(), now.Minute()) {
			m.setState(Active)
			return true, nil
		}

		wait := m.cfg.MaxOpenWait
		if !tradingDay(now) {
			wait = m.cfg.OffDayWait
		}
		m.logger.Debug("waiting for session open",
			"now", now.Format("15:04"),
			"sleep", wait,
		)
		if err := sleep(ctx, wait); err != nil {
			m.setState(Closed)
			return false, err
		}
	}
}

// Run monitors the active session until the EOD threshold is crossed or ctx
// is cancelled. On EOD it invokes the shutdown sequence exactly once and
// returns nil; on cancellation it closes immediately and returns ctx.Err().
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	lastHealth := m.now()

	for {
		select {
		case <-ctx.Done():
			// Abnormal termination: skip EOD bookkeeping, consolidation
			// still runs in the caller.
			m.setState(Closed)
			return ctx.Err()
		case <-ticker.C:
			now := m.now()

			if m.cfg.EOD.Reached(now.Hour(), now.Minute()) {
				m.TriggerEOD()
				return nil
			}

			if now.Sub(lastHealth) >= m.cfg.HealthInterval {
				lastHealth = now
				if m.feed != nil && !m.feed.IsConnected() {
					m.logger.Warn("market open but feed is not connected",
						"now", now.Format("15:04"),
					)
				} else {
					m.logger.Info("session healthy", "now", now.Format("15:04"))
				}
			}
		}
	}
}

// TriggerEOD runs the end-of-day shutdown sequence. Safe to call from
// repeated threshold detections; the sequence runs exactly once.
func (m *Manager) TriggerEOD() {
	m.eodOnce.Do(func() {
		m.logger.Info("EOD threshold reached, stopping feed")
		m.setState(EODTriggered)
		if m.feed != nil {
			m.feed.Shutdown()
		}
		m.setState(Closed)
	})
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
