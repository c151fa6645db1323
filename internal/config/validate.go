package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *CollectorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if _, err := c.Session.Location(); err != nil {
		return err
	}
	for _, tt := range []struct {
		name  string
		value string
	}{
		{"session.open", c.Session.Open},
		{"session.close", c.Session.Close},
		{"session.eod", c.Session.EOD},
	} {
		if _, err := parseWallTime(tt.value); err != nil {
			return fmt.Errorf("%s: %w", tt.name, err)
		}
	}

	if c.Feed.WSURL == "" {
		return errors.New("feed.ws_url is required")
	}
	if c.Auth.CredentialsFile == "" {
		return errors.New("auth.credentials_file is required")
	}
	if c.Instruments.DumpURL == "" {
		return errors.New("instruments.dump_url is required")
	}
	if c.Instruments.Underlying == "" {
		return errors.New("instruments.underlying is required")
	}

	if c.Consolidate.ChunkSize < 1 {
		return errors.New("consolidate.chunk_size must be >= 1")
	}

	if c.Archive.Enabled {
		switch c.Archive.Kind {
		case "fs":
			if c.Archive.Dir == "" {
				return errors.New("archive.dir is required for the fs sink")
			}
		case "http":
			if c.Archive.URL == "" {
				return errors.New("archive.url is required for the http sink")
			}
		default:
			return fmt.Errorf("archive.kind must be \"fs\" or \"http\", got %q", c.Archive.Kind)
		}
	}

	if c.Database.Host != "" {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
