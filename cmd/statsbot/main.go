package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/scrapstats/internal/api"
	"github.com/fadedpez/scrapstats/internal/backend"
	"github.com/fadedpez/scrapstats/internal/bot"
	"github.com/fadedpez/scrapstats/internal/commands"
	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/fadedpez/scrapstats/internal/discord"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/metrics"
	"github.com/fadedpez/scrapstats/pkg/directory"
	"github.com/fadedpez/scrapstats/pkg/scheduler"
	"github.com/fadedpez/scrapstats/pkg/services/ingest"
	"github.com/fadedpez/scrapstats/pkg/services/statistics"
	"github.com/fadedpez/scrapstats/pkg/stats"
	"github.com/fadedpez/scrapstats/pkg/storage/file"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	logging.Default = logger

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// app holds everything the surfaces share
type app struct {
	logger   *logging.Logger
	metrics  *metrics.Metrics
	store    *stats.Store
	players  *directory.File
	recorder *ingest.Service
	queries  *statistics.Service
	router   *commands.Router
	flusher  *scheduler.FlushScheduler
}

// newApp builds the store, directory and services. A backend that cannot be
// read yet does not stop startup: the store runs unloaded and a scheduled
// task keeps retrying the load.
func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	policy, err := stats.ParseFlushPolicy(cfg.FlushPolicy)
	if err != nil {
		return nil, err
	}

	store, err := backend.Open(cfg, "", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.StorageMethod, err)
	}

	a := &app{logger: logger, metrics: metrics.New()}
	a.store = stats.New(store,
		stats.WithPolicy(policy),
		stats.WithObserver(a.metrics),
		stats.WithLogger(logger),
	)

	a.players = directory.NewFile(cfg.PlayersPath(), file.OSMedium{}, logger)
	if err := a.players.Load(ctx); err != nil {
		// Names come back as players are seen again
		logger.LogError(err)
	}

	a.recorder = ingest.NewService(a.store,
		ingest.WithMaxAmount(cfg.MaxEventAmount),
		ingest.WithDirectory(a.players),
		ingest.WithObserver(a.metrics),
		ingest.WithLogger(logger),
	)
	a.queries = statistics.NewService(a.store, a.players, logger)
	a.router = commands.NewRouter(a.queries,
		commands.WithDirectory(a.players),
		commands.WithLinks(a.players),
		commands.WithCounter(a.metrics),
		commands.WithLogger(logger),
	)

	a.flusher = scheduler.NewFlushScheduler(a.store, cfg.FlushInterval, logger)
	a.flusher.AddTask("directory_save", cfg.FlushInterval, a.players.SaveIfDirty)

	if err := a.load(ctx); err != nil {
		logger.Error("Failed to load gambling stats from %s storage: %v", a.store.Backend().Name(), err)
		logger.Warn("Recording in memory only, retrying the load every %s", cfg.LoadRetryInterval)
		a.flusher.AddTask("ledger_load", cfg.LoadRetryInterval, a.load)
	}
	return a, nil
}

// load opens the store once and makes every ledger id searchable
func (a *app) load(ctx context.Context) error {
	if a.store.Loaded() {
		return nil
	}
	if err := a.store.Open(ctx); err != nil {
		return err
	}

	entries := a.store.Ledger().Snapshot().Entries
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PlayerID)
	}
	a.players.AddIDs(ids)

	a.logger.Info("Loaded gambling stats for %d players from %s storage", len(ids), a.store.Backend().Name())
	return nil
}

// close saves the directory and flushes the ledger one last time
func (a *app) close(ctx context.Context) error {
	a.flusher.Stop()

	var errs []error
	if err := a.players.SaveIfDirty(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to save player directory: %w", err))
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to save gambling stats: %w", err))
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	a.flusher.Start(ctx)

	var httpServer *http.Server
	if cfg.HTTPEnabled() {
		srv := api.NewServer(a.recorder, a.queries,
			api.WithCommands(a.router),
			api.WithObserver(a.metrics),
			api.WithMetricsHandler(a.metrics.Handler()),
			api.WithLogger(logger),
		)
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("HTTP API listening on %s", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server stopped: %v", err)
			}
		}()
	}

	var discordBot *bot.Bot
	if cfg.DiscordEnabled() {
		session, err := discord.NewSession(cfg.Token)
		if err != nil {
			return shutdown(logger, a, httpServer, nil, fmt.Errorf("error creating Discord session: %w", err))
		}
		discordBot = bot.New(cfg, session, a.router, logger)
		if err := discordBot.Start(); err != nil {
			return shutdown(logger, a, httpServer, nil, fmt.Errorf("error starting bot: %w", err))
		}
		logger.Info("Discord bot is running")
	}

	logger.Info("Gambling stats running with %s flush policy. Press Ctrl+C to exit", a.store.Policy())
	<-ctx.Done()

	logger.Info("Shutting down...")
	return shutdown(logger, a, httpServer, discordBot, nil)
}

// shutdown stops every surface before the final flush so no event is lost
func shutdown(logger *logging.Logger, a *app, httpServer *http.Server, discordBot *bot.Bot, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("HTTP server shutdown: %v", err)
		}
	}
	if discordBot != nil {
		discordBot.Shutdown()
	}

	if err := a.close(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
