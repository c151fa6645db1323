package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeFeed struct {
	connected atomic.Bool
	shutdowns atomic.Int32
}

func (f *fakeFeed) IsConnected() bool { return f.connected.Load() }
func (f *fakeFeed) Shutdown()         { f.shutdowns.Add(1) }

func testConfig() Config {
	return Config{
		Location:     time.UTC,
		Open:         WallTime{Hour: 9, Minute: 15},
		Close:        WallTime{Hour: 15, Minute: 30},
		EOD:          WallTime{Hour: 15, Minute: 45},
		PollInterval: 5 * time.Millisecond,
		MaxOpenWait:  5 * time.Millisecond,
		OffDayWait:   5 * time.Millisecond,
	}
}

// A Tuesday.
func tradingDayAt(hour, minute int) time.Time {
	return time.Date(2025, 8, 26, hour, minute, 0, 0, time.UTC)
}

func TestManager_StartedPastEODSkipsSession(t *testing.T) {
	clock := &fakeClock{now: tradingDayAt(16, 0)}
	m := NewManager(testConfig(), clock, &fakeFeed{}, nil)

	open, err := m.WaitUntilOpen(context.Background())
	if err != nil {
		t.Fatalf("WaitUntilOpen: %v", err)
	}
	if open {
		t.Error("WaitUntilOpen = true past EOD, want false")
	}
	if got := m.State(); got != Closed {
		t.Errorf("State() = %s, want closed (must never enter active)", got)
	}
}

func TestManager_StartedAfterCloseSkipsSession(t *testing.T) {
	// Between market close and the EOD threshold.
	clock := &fakeClock{now: tradingDayAt(15, 35)}
	m := NewManager(testConfig(), clock, &fakeFeed{}, nil)

	open, err := m.WaitUntilOpen(context.Background())
	if err != nil {
		t.Fatalf("WaitUntilOpen: %v", err)
	}
	if open {
		t.Error("WaitUntilOpen = true after market close, want false")
	}
	if got := m.State(); got != Closed {
		t.Errorf("State() = %s, want closed (must never enter active)", got)
	}
}

func TestManager_OpensWhenWindowReached(t *testing.T) {
	clock := &fakeClock{now: tradingDayAt(9, 10)}
	m := NewManager(testConfig(), clock, &fakeFeed{}, nil)

	done := make(chan bool, 1)
	go func() {
		open, _ := m.WaitUntilOpen(context.Background())
		done <- open
	}()

	// Not open yet: the manager should still be waiting.
	select {
	case <-done:
		t.Fatal("WaitUntilOpen returned before the open window")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Set(tradingDayAt(9, 15))
	select {
	case open := <-done:
		if !open {
			t.Error("WaitUntilOpen = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitUntilOpen never returned after open window")
	}
	if got := m.State(); got != Active {
		t.Errorf("State() = %s, want active", got)
	}
}

func TestManager_WaitsAcrossWeekend(t *testing.T) {
	// A Saturday morning inside the open window.
	clock := &fakeClock{now: time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)}
	m := NewManager(testConfig(), clock, &fakeFeed{}, nil)

	done := make(chan bool, 1)
	go func() {
		open, _ := m.WaitUntilOpen(context.Background())
		done <- open
	}()

	select {
	case <-done:
		t.Fatal("WaitUntilOpen returned on a non-trading day")
	case <-time.After(20 * time.Millisecond):
	}

	// Advance to Monday 09:20.
	clock.Set(time.Date(2025, 9, 1, 9, 20, 0, 0, time.UTC))
	select {
	case open := <-done:
		if !open {
			t.Error("WaitUntilOpen = false on Monday open, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitUntilOpen never returned after the weekend")
	}
}

func TestManager_RunTriggersEODOnce(t *testing.T) {
	clock := &fakeClock{now: tradingDayAt(15, 40)}
	feed := &fakeFeed{}
	feed.connected.Store(true)
	m := NewManager(testConfig(), clock, feed, nil)
	m.setState(Active)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	clock.Set(tradingDayAt(15, 45))

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned after EOD threshold")
	}

	// Repeated detections must not re-run the shutdown sequence.
	m.TriggerEOD()
	m.TriggerEOD()

	if got := feed.shutdowns.Load(); got != 1 {
		t.Errorf("feed.Shutdown called %d times, want 1", got)
	}
	if got := m.State(); got != Closed {
		t.Errorf("State() = %s, want closed", got)
	}
}

func TestManager_RunCancelledClosesImmediately(t *testing.T) {
	clock := &fakeClock{now: tradingDayAt(11, 0)}
	feed := &fakeFeed{}
	m := NewManager(testConfig(), clock, feed, nil)
	m.setState(Active)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned after cancellation")
	}
	if got := m.State(); got != Closed {
		t.Errorf("State() = %s, want closed", got)
	}
	if got := feed.shutdowns.Load(); got != 0 {
		t.Errorf("feed.Shutdown called %d times on abnormal stop, want 0", got)
	}
}

func TestWallTime_Reached(t *testing.T) {
	w := WallTime{Hour: 15, Minute: 45}
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{15, 44, false},
		{15, 45, true},
		{15, 46, true},
		{16, 0, true},
		{9, 15, false},
	}
	for _, tt := range tests {
		if got := w.Reached(tt.hour, tt.minute); got != tt.want {
			t.Errorf("Reached(%02d:%02d) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}
