package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/cardwatch/cardwatch/internal/config"
	"github.com/cardwatch/cardwatch/internal/data/postgres"
	"github.com/cardwatch/cardwatch/internal/importer"
	"github.com/cardwatch/cardwatch/internal/logger"
	"github.com/cardwatch/cardwatch/internal/normalize"
	"github.com/cardwatch/cardwatch/internal/platform/persistence"
	"github.com/cardwatch/cardwatch/internal/watcher"
)

// One-shot ingestion of a single statement file, using the same lifecycle as
// the watcher daemon. Useful for reprocessing a file out of band.
func main() {
	var (
		configName = flag.String("config", "app", "config name (reads configs/<name>.env)")
		file       = flag.String("file", "", "path to a raw statement CSV inside the incoming directory")
	)
	flag.Parse()

	cfg, err := config.Load(*configName)
	if err != nil {
		fatalLog := logger.New("info")
		fatalLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level)

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ctx = logger.WithContext(ctx, log)

	db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store := postgres.NewStore(db, log)

	owner, err := store.GetUserByUsername(ctx, cfg.Watcher.Owner)
	if err != nil {
		log.Fatal().Err(err).Str("username", cfg.Watcher.Owner).Msg("Failed to resolve owner account")
	}

	normalizer := normalize.NewGeminiNormalizer(cfg.Model.Name, cfg.Model.APIVersion, cfg.Model.Timeout)
	imp := importer.New(store, log)
	events := watcher.NewEventLog(cfg.Watcher.LogFile)
	lifecycle := watcher.NewLifecycle(cfg.Watcher, normalizer, imp, owner.ID, events, log)

	log.Info().Str("file", *file).Msg("Starting ingestion")

	state, err := lifecycle.ProcessFile(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Stringer("state", state).Msg("Ingestion failed")
	}

	fmt.Println("Ingestion completed successfully.")
}
