package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report which migrations are pending without applying them")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *dryRun {
		logger.Info("Dry run mode - reporting migration status without applying")
		status, err := db.MigrationStatus(ctx)
		if err != nil {
			logger.Fatalw("Failed to read migration status", "error", err)
		}
		for _, m := range status {
			applied := ""
			if !m.AppliedAt.IsZero() {
				applied = m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%03d  %-8s  %-25s  %s\n", m.Source.Version, m.State, applied, m.Source.Path)
		}
		return
	}

	logger.Info("Running database migrations...")
	if err := db.Migrate(ctx); err != nil {
		logger.Fatalw("Failed to apply migrations", "error", err)
	}

	fmt.Println("Migration process completed")
}
