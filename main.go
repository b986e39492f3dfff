package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoprecio/api"
	"geoprecio/artifacts"
	"geoprecio/config"
	"geoprecio/features"
	"geoprecio/geo"
	"geoprecio/logging"
	"geoprecio/predictor"
	"geoprecio/recommend"
	"geoprecio/scheduler"
	"geoprecio/storage"
	"geoprecio/workers"
)

var (
	backfillNow = flag.Bool("backfill", false, "Run one prediction backfill batch and exit")
	refreshNow  = flag.Bool("refresh-stats", false, "Refresh comuna statistics and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("geoprecio.log", 0)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting geoprecio...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Density provider: the POI index when the table loads, the macro-zone
	// table otherwise. The choice is fixed for the process lifetime.
	var provider geo.DensityProvider
	if pois, err := store.LoadPOIs(ctx); err == nil && len(pois) > 0 {
		index := geo.NewIndex(pois)
		log.Printf("POI index built: %d points", index.Size())
		provider = index
	} else {
		if err != nil {
			log.Printf("Warning: could not load POIs: %v", err)
		}
		zones, zerr := geo.LoadZoneTable(cfg.Geo.ZonesPath)
		if zerr != nil {
			log.Printf("Warning: zone table %s unusable (%v), using built-in", cfg.Geo.ZonesPath, zerr)
			zones = geo.DefaultZoneTable()
		}
		log.Println("Running with degraded macro-zone densities")
		provider = zones
	}

	bundle := artifacts.Load(cfg.Model.ArtifactsDir)
	deriver := features.NewDeriver(provider, cfg.Geo.Bounds)
	pred := predictor.New(deriver, bundle, cfg.Model.PriceFloorM2)
	scorer := recommend.NewScorer(cfg.Model.UFValueCLP)

	backfill := workers.NewBackfillWorker(store, pred, cfg.Backfill.BatchSize)

	if *backfillNow {
		log.Println("Running backfill batch...")
		n := backfill.ProcessBatch(ctx)
		log.Printf("Backfill complete: %d updated", n)
		return
	}
	if *refreshNow {
		if err := store.RefreshComunaStats(ctx); err != nil {
			log.Fatalf("Stats refresh failed: %v", err)
		}
		log.Println("Comuna statistics refreshed")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(&cfg.Scheduler, store)
	sched.SetWorkers(backfill)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go backfill.Run(ctx, cfg.Backfill.Interval)
	log.Println("Backfill worker started")

	server := api.NewServer(cfg.HTTP.Addr, store, pred, scorer, bundle)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	sched.Stop()
	log.Println("Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Database.Backend == "sqlite" || cfg.Database.PostgresURL == "" {
		log.Printf("SQLite database: %s", cfg.Database.SQLitePath)
		return storage.NewSQLiteStore(cfg.Database.SQLitePath)
	}

	store, err := storage.NewPostgresStore(ctx, cfg.Database.PostgresURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.PostgresURL))
	return store, nil
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	// Find : after user
	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
