package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/quantrail/tickvault/internal/archive"
	"github.com/quantrail/tickvault/internal/buffer"
	"github.com/quantrail/tickvault/internal/instruments"
	"github.com/quantrail/tickvault/internal/store"
)

// Config holds consolidation settings.
type Config struct {
	ChunkSize      int            // Files per chunk (default: 15)
	FinalDir       string         // Directory for the sealed artifact
	ArtifactPrefix string         // Artifact filename prefix (default: "banknifty_fo_data")
	Location       *time.Location // Session timezone, dates the artifact filename
}

func (c *Config) applyDefaults() {
	if c.ChunkSize < 1 {
		c.ChunkSize = 15
	}
	if c.ArtifactPrefix == "" {
		c.ArtifactPrefix = "banknifty_fo_data"
	}
	if c.Location == nil {
		c.Location = time.Local
	}
}

// Result reports what a consolidation run produced.
type Result struct {
	ArtifactPath  string // Empty when zero rows were written
	RemoteID      string // Set when the artifact was archived
	Rows          int64
	RowsRejected  int64 // Rows dropped for unparseable timestamps
	ChunksTotal   int
	ChunksFailed  int
	FilesConsumed int
	Partial       bool // True when chunks failed or cancellation stopped the run early
}

// Engine turns the session's intermediate batches into one parquet artifact.
type Engine struct {
	cfg    Config
	buf    *buffer.TickBuffer
	store  *store.Store
	dir    *instruments.Directory // nil: no enrichment
	sink   archive.Sink           // nil: archival disabled
	logger *slog.Logger
}

// New creates an Engine. dir and sink may be nil.
func New(cfg Config, buf *buffer.TickBuffer, st *store.Store, dir *instruments.Directory, sink archive.Sink, logger *slog.Logger) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		buf:    buf,
		store:  st,
		dir:    dir,
		sink:   sink,
		logger: logger,
	}
}

// Consolidate drains the buffer one last time, then processes all batch
// files for the session in chunks. Zero rows is not an error: no artifact is
// produced and the result says so. Cancellation is honored at chunk
// boundaries only; an in-flight chunk finishes first.
func (e *Engine) Consolidate(ctx context.Context, sessionDate time.Time) (*Result, error) {
	e.logger.Info("starting consolidation", "date", sessionDate.Format("2006-01-02"))

	e.finalDrain()

	files, err := e.store.List()
	if err != nil {
		return nil, fmt.Errorf("enumerate batches: %w", err)
	}

	res := &Result{}
	if len(files) == 0 {
		e.logger.Info("no batches to consolidate")
		return res, nil
	}

	if err := os.MkdirAll(e.cfg.FinalDir, 0o755); err != nil {
		return nil, fmt.Errorf("create final dir: %w", err)
	}
	artifactPath := filepath.Join(e.cfg.FinalDir,
		fmt.Sprintf("%s_%s.parquet", e.cfg.ArtifactPrefix, sessionDate.In(e.cfg.Location).Format("20060102")))

	var (
		out      *os.File
		w        *parquet.GenericWriter[Row]
		consumed []string
	)
	fail := func(err error) (*Result, error) {
		if w != nil {
			w.Close()
		}
		if out != nil {
			out.Close()
			os.Remove(artifactPath)
		}
		return nil, err
	}

	for start := 0; start < len(files); start += e.cfg.ChunkSize {
		if ctx.Err() != nil {
			e.logger.Warn("consolidation cancelled, stopping at chunk boundary",
				"chunks_done", res.ChunksTotal,
			)
			res.Partial = true
			break
		}

		end := start + e.cfg.ChunkSize
		if end > len(files) {
			end = len(files)
		}
		chunk := files[start:end]
		chunkIdx := start / e.cfg.ChunkSize
		res.ChunksTotal++

		rows, rejected, err := e.loadChunk(chunk, sessionDate)
		res.RowsRejected += rejected
		if err != nil {
			e.logger.Error("chunk failed, skipping",
				"chunk", chunkIdx,
				"files", len(chunk),
				"error", err,
			)
			res.ChunksFailed++
			continue
		}
		if len(rows) == 0 {
			consumed = append(consumed, chunk...)
			continue
		}

		// The writer opens lazily on the first non-empty chunk; its schema
		// (the Row struct) binds the whole file.
		if w == nil {
			out, err = os.Create(artifactPath)
			if err != nil {
				return fail(fmt.Errorf("create artifact: %w", err))
			}
			w = parquet.NewGenericWriter[Row](out)
		}

		if _, err := w.Write(rows); err != nil {
			// A failed parquet append leaves the writer in an unknown state;
			// this escapes chunk isolation and aborts the run.
			return fail(fmt.Errorf("append chunk %d: %w", chunkIdx, err))
		}

		res.Rows += int64(len(rows))
		consumed = append(consumed, chunk...)
		e.logger.Info("chunk consolidated",
			"chunk", chunkIdx,
			"files", len(chunk),
			"rows", len(rows),
		)
	}

	if w == nil {
		e.logger.Info("zero rows consolidated, no artifact produced",
			"chunks_failed", res.ChunksFailed,
		)
		res.Partial = res.Partial || res.ChunksFailed > 0
		e.removeConsumed(consumed, res)
		return res, nil
	}

	if err := w.Close(); err != nil {
		return fail(fmt.Errorf("seal artifact: %w", err))
	}
	if err := out.Close(); err != nil {
		os.Remove(artifactPath)
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	res.ArtifactPath = artifactPath
	res.Partial = res.Partial || res.ChunksFailed > 0
	e.removeConsumed(consumed, res)

	e.logger.Info("artifact sealed",
		"path", artifactPath,
		"rows", res.Rows,
		"chunks", res.ChunksTotal,
		"chunks_failed", res.ChunksFailed,
	)

	if e.sink != nil {
		e.archiveArtifact(ctx, res)
	}

	return res, nil
}

// finalDrain captures everything accumulated since the last periodic flush.
func (e *Engine) finalDrain() {
	ticks := e.buf.Drain()
	if len(ticks) == 0 {
		return
	}
	path, err := e.store.WriteBatch(ticks, time.Now())
	if err != nil {
		e.logger.Error("final drain write failed, rows lost",
			"rows", len(ticks),
			"error", err,
		)
		return
	}
	e.logger.Info("final drain flushed", "rows", len(ticks), "file", path)
}

// loadChunk reads, normalizes and cleans one chunk. Any file-level failure
// (unreadable file, schema drift) fails the whole chunk.
func (e *Engine) loadChunk(files []string, sessionDate time.Time) ([]Row, int64, error) {
	var (
		rows     []Row
		rejected int64
	)
	for _, path := range files {
		header, records, err := store.ReadBatch(path)
		if err != nil {
			return nil, rejected, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		idx, err := indexColumns(header)
		if err != nil {
			return nil, rejected, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for _, rec := range records {
			row, err := normalizeRow(rec, idx, e.dir, sessionDate)
			if err != nil {
				rejected++
				continue
			}
			rows = append(rows, row)
		}
	}
	return cleanChunk(rows), rejected, nil
}

// removeConsumed deletes batch files that were successfully read. Files of
// failed chunks stay on disk for diagnosis.
func (e *Engine) removeConsumed(paths []string, res *Result) {
	for _, p := range paths {
		if err := e.store.Remove(p); err != nil {
			e.logger.Warn("failed to remove consumed batch", "file", p, "error", err)
			continue
		}
		res.FilesConsumed++
	}
}

// archiveArtifact hands the sealed artifact to the sink and removes the
// local copy on success. An upload failure keeps the local file.
func (e *Engine) archiveArtifact(ctx context.Context, res *Result) {
	remoteID, err := e.sink.Put(ctx, res.ArtifactPath)
	if err != nil {
		e.logger.Error("archive upload failed, keeping local artifact",
			"path", res.ArtifactPath,
			"error", err,
		)
		return
	}
	res.RemoteID = remoteID
	if err := os.Remove(res.ArtifactPath); err != nil {
		e.logger.Warn("failed to remove local artifact after upload", "error", err)
	}
	e.logger.Info("artifact archived", "remote_id", remoteID)
}
