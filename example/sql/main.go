// Driver-mode demo: every query issued through the wrapped driver carries a
// stack-trace comment, with no per-call-site changes. Inspect them with
//
//	SELECT query FROM pg_stat_activity WHERE state = 'active';
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/querytrail/querytrail-go/example/sql/internal/config"
	"github.com/querytrail/querytrail-go/example/sql/internal/database"
	"github.com/querytrail/querytrail-go/example/sql/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	// Optional .env with EXAMPLE_DATABASE_URL and QUERYTRAIL_* overrides.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("could not load .env")
	}

	shutdownMetrics, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up metrics")
	}
	defer shutdownMetrics(ctx)

	db, err := database.New(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.CreateTable(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create table")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(config.OperationInterval * time.Second)
	defer ticker.Stop()

	logger.Info().Msg("issuing annotated queries; ctrl-c to stop")
	for {
		select {
		case <-sigChan:
			logger.Info().Msg("shutting down")
			return
		case <-ticker.C:
			if err := db.InsertUsers(ctx); err != nil {
				logger.Error().Err(err).Msg("insert failed")
			}
			if err := db.QueryUsers(ctx); err != nil {
				logger.Error().Err(err).Msg("query failed")
			}
		}
	}
}
