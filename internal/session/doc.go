// Package session implements the trading-session lifecycle state machine.
//
// The manager owns the session phase (WaitingForOpen, Active, EODTriggered,
// Closed) and decides when ingestion is active and when the end-of-day
// shutdown sequence fires. Transitions are monotonic except
// WaitingForOpen -> Active, which may repeat across calendar days when the
// process runs unattended.
//
// The manager never talks to other tasks directly; it requests feed shutdown
// through a narrow interface and everything else observes the shared
// cancellation context.
package session
