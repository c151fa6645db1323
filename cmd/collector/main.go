// Command collector ingests a day's tick stream for a configured instrument
// universe, spools it to intermediate batches, and consolidates everything
// into one parquet artifact at end of day.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quantrail/tickvault/internal/archive"
	"github.com/quantrail/tickvault/internal/auth"
	"github.com/quantrail/tickvault/internal/buffer"
	"github.com/quantrail/tickvault/internal/catalog"
	"github.com/quantrail/tickvault/internal/config"
	"github.com/quantrail/tickvault/internal/consolidate"
	"github.com/quantrail/tickvault/internal/feed"
	"github.com/quantrail/tickvault/internal/flusher"
	"github.com/quantrail/tickvault/internal/instruments"
	"github.com/quantrail/tickvault/internal/session"
	"github.com/quantrail/tickvault/internal/store"
	"github.com/quantrail/tickvault/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("collector failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.CollectorConfig, logger *slog.Logger) error {
	loc, err := cfg.Session.Location()
	if err != nil {
		return err
	}
	open, err := cfg.Session.OpenTime()
	if err != nil {
		return err
	}
	closeAt, err := cfg.Session.CloseTime()
	if err != nil {
		return err
	}
	eod, err := cfg.Session.EODTime()
	if err != nil {
		return err
	}

	// Missing or incomplete credentials abort before any ingestion begins.
	creds, err := auth.LoadCredentials(cfg.Auth.CredentialsFile)
	if err != nil {
		return err
	}
	logger.Info("credentials loaded", "file", cfg.Auth.CredentialsFile)

	buf := buffer.New(4096)
	st, err := store.New(cfg.Store.TempDir)
	if err != nil {
		return err
	}

	// Shared cancellation: operator interrupt, feed fatal and EOD all funnel
	// into this one context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client := feed.NewClient(feed.ClientConfig{
		URL:                cfg.Feed.WSURL,
		APIKey:             creds.APIKey,
		AccessToken:        creds.AccessToken,
		PingInterval:       cfg.Feed.PingInterval,
		ReadTimeout:        cfg.Feed.ReadTimeout,
		ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
		MaxReconnects:      cfg.Feed.MaxReconnects,
		SubscribeBatchSize: cfg.Feed.SubscribeBatchSize,
	}, logger)

	manager := session.NewManager(session.Config{
		Location: loc,
		Open:     open,
		Close:    closeAt,
		EOD:      eod,
	}, session.SystemClock{}, client, logger)

	var dir *instruments.Directory

	active, err := manager.WaitUntilOpen(ctx)
	if err != nil {
		logger.Info("cancelled before session open, consolidating what exists")
	}
	if active {
		dir, err = runSession(ctx, cancel, cfg, creds, loc, buf, st, client, manager, logger)
		if err != nil {
			return err
		}
	}

	// Let in-flight appends and flushes settle before the final drain.
	logger.Info("waiting grace period before consolidation", "grace", cfg.Session.GracePeriod)
	time.Sleep(cfg.Session.GracePeriod)

	return consolidateSession(cfg, buf, st, dir, loc, logger)
}

// runSession builds the instrument directory, connects the feed, and pumps
// tick events into the buffer until EOD or cancellation.
func runSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.CollectorConfig,
	creds *auth.Credentials,
	loc *time.Location,
	buf *buffer.TickBuffer,
	st *store.Store,
	client *feed.Client,
	manager *session.Manager,
	logger *slog.Logger,
) (*instruments.Directory, error) {
	rest := resty.New().SetHeader("Authorization", "token "+creds.APIKey+":"+creds.AccessToken)

	insts, err := instruments.FetchDump(ctx, rest, cfg.Instruments.DumpURL, loc)
	if err != nil {
		// Startup condition: without the universe there is nothing to
		// subscribe to.
		return nil, err
	}
	dir := instruments.NewDirectory(insts)
	logger.Info("instrument directory built", "instruments", dir.Len())

	selCfg := instruments.DefaultSelectorConfig(cfg.Instruments.Underlying)
	if cfg.Instruments.StrikeWindow > 0 {
		selCfg.StrikeWindow = cfg.Instruments.StrikeWindow
	}
	tokens := instruments.Select(selCfg, insts, time.Now().In(loc), cfg.Instruments.ATMFallback)
	if len(tokens) == 0 {
		logger.Warn("instrument selection matched nothing, session will record no ticks")
	} else {
		logger.Info("instruments selected", "tokens", len(tokens))
	}

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if err := client.Subscribe(tokens); err != nil {
		logger.Error("subscribe failed", "error", err)
	}

	fl := flusher.New(flusher.Config{Interval: cfg.Flush.Interval}, buf, st, logger)
	if err := fl.Start(ctx); err != nil {
		return nil, err
	}

	// Ingestion task: the only writer into the buffer.
	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		for ev := range client.Events() {
			switch ev.Kind {
			case feed.KindTicks:
				buf.AppendBatch(feed.ToTicks(ev.Ticks, ev.ReceivedAt.In(loc)))
			case feed.KindDisconnected:
				// Reconnection is the client's own responsibility.
				logger.Warn("feed disconnected", "error", ev.Err)
			case feed.KindFatal:
				logger.Error("feed gave up reconnecting", "error", ev.Err)
				cancel()
			}
		}
	}()

	if err := manager.Run(ctx); err != nil {
		logger.Info("session ended abnormally", "reason", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	fl.Stop(stopCtx)
	client.Close()
	<-ingestDone

	stats := buf.Stats()
	logger.Info("session ingestion finished",
		"state", manager.State().String(),
		"appended", stats.TotalAppended,
		"flushed", stats.TotalDrained,
	)
	return dir, nil
}

// consolidateSession runs EOD consolidation and records the artifact.
// Consolidation uses a fresh context: the shared cancellation that ended the
// session must not abort it.
func consolidateSession(
	cfg *config.CollectorConfig,
	buf *buffer.TickBuffer,
	st *store.Store,
	dir *instruments.Directory,
	loc *time.Location,
	logger *slog.Logger,
) error {
	var sink archive.Sink
	if cfg.Archive.Enabled {
		switch cfg.Archive.Kind {
		case "fs":
			fsSink, err := archive.NewFSSink(cfg.Archive.Dir)
			if err != nil {
				return err
			}
			sink = fsSink
		case "http":
			sink = archive.NewHTTPSink(resty.New(), cfg.Archive.URL, cfg.Archive.Prefix)
		}
	}

	engine := consolidate.New(consolidate.Config{
		ChunkSize: cfg.Consolidate.ChunkSize,
		FinalDir:  cfg.Store.FinalDir,
		Location:  loc,
	}, buf, st, dir, sink, logger)

	ctx := context.Background()
	sessionDate := time.Now().In(loc)

	res, err := engine.Consolidate(ctx, sessionDate)
	if err != nil {
		return err
	}
	logger.Info("consolidation finished",
		"rows", res.Rows,
		"chunks", res.ChunksTotal,
		"chunks_failed", res.ChunksFailed,
		"artifact", res.ArtifactPath,
		"remote_id", res.RemoteID,
		"partial", res.Partial,
	)

	if cfg.Database.Host != "" && (res.ArtifactPath != "" || res.RemoteID != "") {
		cat, err := catalog.Connect(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("catalog unavailable, manifest not recorded", "error", err)
			return nil
		}
		defer cat.Close()

		if err := cat.RecordArtifact(ctx, catalog.ArtifactRecord{
			InstanceID:  cfg.Instance.ID,
			SessionDate: sessionDate,
			RemoteID:    res.RemoteID,
			Rows:        res.Rows,
			Partial:     res.Partial,
			SealedAt:    time.Now().UTC(),
		}); err != nil {
			logger.Error("failed to record artifact", "error", err)
		}
	}

	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
