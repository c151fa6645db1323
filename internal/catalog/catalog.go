package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantrail/tickvault/internal/config"
)

// Catalog writes the artifact manifest.
type Catalog struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// Connect creates the catalog's connection pool and verifies it.
func Connect(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Catalog{db: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (c *Catalog) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// ArtifactRecord is one manifest row.
type ArtifactRecord struct {
	InstanceID  string
	SessionDate time.Time
	RemoteID    string // Empty when archival was disabled or failed
	Rows        int64
	Partial     bool
	SealedAt    time.Time
}

// RecordArtifact inserts the manifest row for a sealed artifact. Re-running
// a session upserts rather than duplicating.
func (c *Catalog) RecordArtifact(ctx context.Context, rec ArtifactRecord) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO artifacts (instance_id, session_date, remote_id, row_count, partial, sealed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (instance_id, session_date) DO UPDATE
		SET remote_id = EXCLUDED.remote_id,
		    row_count = EXCLUDED.row_count,
		    partial = EXCLUDED.partial,
		    sealed_at = EXCLUDED.sealed_at
	`, rec.InstanceID, rec.SessionDate.Format("2006-01-02"), rec.RemoteID, rec.Rows, rec.Partial, rec.SealedAt)
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}

	c.logger.Info("artifact recorded in catalog",
		"session_date", rec.SessionDate.Format("2006-01-02"),
		"rows", rec.Rows,
		"partial", rec.Partial,
	)
	return nil
}
