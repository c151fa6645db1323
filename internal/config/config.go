package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantrail/tickvault/internal/session"
)

// CollectorConfig is the root configuration for a collector instance.
type CollectorConfig struct {
	Instance    InstanceConfig    `yaml:"instance"`
	Session     SessionConfig     `yaml:"session"`
	Feed        FeedConfig        `yaml:"feed"`
	Auth        AuthConfig        `yaml:"auth"`
	Instruments InstrumentsConfig `yaml:"instruments"`
	Store       StoreConfig       `yaml:"store"`
	Flush       FlushConfig       `yaml:"flush"`
	Consolidate ConsolidateConfig `yaml:"consolidate"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Database    DBConfig          `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
}

// InstanceConfig identifies this collector.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SessionConfig holds trading-session timing as local wall-clock HH:MM.
type SessionConfig struct {
	Timezone    string        `yaml:"timezone"`
	Open        string        `yaml:"open"`
	Close       string        `yaml:"close"`
	EOD         string        `yaml:"eod"`
	GracePeriod time.Duration `yaml:"grace_period"` // Settle time between cancellation and consolidation
}

// Location loads the session timezone.
func (s SessionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load session timezone: %w", err)
	}
	return loc, nil
}

// OpenTime returns the parsed open threshold.
func (s SessionConfig) OpenTime() (session.WallTime, error) { return parseWallTime(s.Open) }

// CloseTime returns the parsed close threshold.
func (s SessionConfig) CloseTime() (session.WallTime, error) { return parseWallTime(s.Close) }

// EODTime returns the parsed EOD threshold.
func (s SessionConfig) EODTime() (session.WallTime, error) { return parseWallTime(s.EOD) }

// parseWallTime parses "HH:MM".
func parseWallTime(s string) (session.WallTime, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return session.WallTime{}, fmt.Errorf("invalid wall time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return session.WallTime{}, fmt.Errorf("invalid hour in wall time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return session.WallTime{}, fmt.Errorf("invalid minute in wall time %q", s)
	}
	return session.WallTime{Hour: hour, Minute: minute}, nil
}

// FeedConfig holds feed connection settings.
type FeedConfig struct {
	WSURL              string        `yaml:"ws_url"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnects      int           `yaml:"max_reconnects"`
	SubscribeBatchSize int           `yaml:"subscribe_batch_size"`
}

// AuthConfig points at the credential bundle.
type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// InstrumentsConfig holds the instrument dump source and selection bounds.
type InstrumentsConfig struct {
	DumpURL      string  `yaml:"dump_url"`
	Underlying   string  `yaml:"underlying"`
	StrikeWindow float64 `yaml:"strike_window"`
	ATMFallback  float64 `yaml:"atm_fallback"` // Used when the spot price is unavailable
}

// StoreConfig holds local storage directories.
type StoreConfig struct {
	TempDir  string `yaml:"temp_dir"`
	FinalDir string `yaml:"final_dir"`
}

// FlushConfig holds the periodic flusher settings.
type FlushConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ConsolidateConfig holds consolidation settings.
type ConsolidateConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

// ArchiveConfig holds the archival sink settings.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Kind    string `yaml:"kind"` // "fs" or "http"
	Dir     string `yaml:"dir"`  // fs sink
	URL     string `yaml:"url"`  // http sink base URL
	Prefix  string `yaml:"prefix"`
}

// DBConfig holds the optional artifact catalog database. The catalog is
// enabled when Host is set.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}
