package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardwatch/cardwatch/internal/config"
	"github.com/cardwatch/cardwatch/internal/data/postgres"
	"github.com/cardwatch/cardwatch/internal/importer"
	"github.com/cardwatch/cardwatch/internal/logger"
	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/normalize"
	"github.com/cardwatch/cardwatch/internal/platform/persistence"
	"github.com/cardwatch/cardwatch/internal/watcher"
)

func main() {
	configName := flag.String("config", "app", "config name (reads configs/<name>.env)")
	flag.Parse()

	cfg, err := config.Load(*configName)
	if err != nil {
		fatalLog := logger.New("info")
		fatalLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level)
	log.Info().
		Str("incoming", cfg.Watcher.IncomingDir).
		Dur("interval", cfg.Watcher.PollInterval).
		Msg("Starting statement watcher")

	for _, dir := range []string{cfg.Watcher.IncomingDir, cfg.Watcher.ProcessedDir, cfg.Watcher.FailedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store := postgres.NewStore(db, log)

	owner, err := store.GetUserByUsername(ctx, cfg.Watcher.Owner)
	if err != nil {
		log.Fatal().Err(err).Str("username", cfg.Watcher.Owner).Msg("Failed to resolve watcher owner account")
	}

	normalizer := normalize.NewGeminiNormalizer(cfg.Model.Name, cfg.Model.APIVersion, cfg.Model.Timeout)
	imp := importer.New(store, log)
	events := watcher.NewEventLog(cfg.Watcher.LogFile)
	lifecycle := watcher.NewLifecycle(cfg.Watcher, normalizer, imp, owner.ID, events, log)
	poller := watcher.NewPoller(cfg.Watcher.IncomingDir, cfg.Watcher.PollInterval, lifecycle, log)

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("Starting metrics listener")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Metrics listener stopped")
			}
		}()
	}

	poller.Start(ctx)

	log.Info().Msg("Watcher stopped")
}
