package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTimezone           = "Asia/Kolkata"
	DefaultOpen               = "09:15"
	DefaultClose              = "15:30"
	DefaultEOD                = "15:45"
	DefaultGracePeriod        = 5 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultReadTimeout        = 30 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultMaxReconnects      = 10
	DefaultSubscribeBatchSize = 200
	DefaultStrikeWindow       = 2000
	DefaultATMFallback        = 55000
	DefaultTempDir            = "temp_tick_data"
	DefaultFinalDir           = "final_tick_data"
	DefaultFlushInterval      = 20 * time.Second
	DefaultChunkSize          = 15
	DefaultArchiveKind        = "fs"
	DefaultArchivePrefix      = "banknifty_data/"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultLogLevel           = "info"
)

func (c *CollectorConfig) applyDefaults() {
	// Session defaults
	if c.Session.Timezone == "" {
		c.Session.Timezone = DefaultTimezone
	}
	if c.Session.Open == "" {
		c.Session.Open = DefaultOpen
	}
	if c.Session.Close == "" {
		c.Session.Close = DefaultClose
	}
	if c.Session.EOD == "" {
		c.Session.EOD = DefaultEOD
	}
	if c.Session.GracePeriod == 0 {
		c.Session.GracePeriod = DefaultGracePeriod
	}

	// Feed defaults
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.ReadTimeout == 0 {
		c.Feed.ReadTimeout = DefaultReadTimeout
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.MaxReconnects == 0 {
		c.Feed.MaxReconnects = DefaultMaxReconnects
	}
	if c.Feed.SubscribeBatchSize == 0 {
		c.Feed.SubscribeBatchSize = DefaultSubscribeBatchSize
	}

	// Instruments defaults
	if c.Instruments.StrikeWindow == 0 {
		c.Instruments.StrikeWindow = DefaultStrikeWindow
	}
	if c.Instruments.ATMFallback == 0 {
		c.Instruments.ATMFallback = DefaultATMFallback
	}

	// Storage defaults
	if c.Store.TempDir == "" {
		c.Store.TempDir = DefaultTempDir
	}
	if c.Store.FinalDir == "" {
		c.Store.FinalDir = DefaultFinalDir
	}

	if c.Flush.Interval == 0 {
		c.Flush.Interval = DefaultFlushInterval
	}
	if c.Consolidate.ChunkSize == 0 {
		c.Consolidate.ChunkSize = DefaultChunkSize
	}

	// Archive defaults
	if c.Archive.Kind == "" {
		c.Archive.Kind = DefaultArchiveKind
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = DefaultArchivePrefix
	}

	// Database defaults (catalog only active when host is set)
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
