// Package database opens the demo database through the querytrail driver
// wrapper, so every statement reaches Postgres with a stack-trace comment.
package database

import (
	"database/sql"

	_ "github.com/lib/pq" // Register postgres driver
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/querytrail/querytrail-go/example/sql/internal/config"
	qtsql "github.com/querytrail/querytrail-go/sql"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// New opens an annotating connection. Queries issued through it show up in
// pg_stat_activity and the slow-query log with their originating call stack.
func New(logger zerolog.Logger) (*DB, error) {
	db, err := qtsql.Open("postgres", config.DSN(),
		qtsql.WithDBSystem(config.DefaultDBSystem),
		qtsql.WithDBName(config.DefaultDBName),
		qtsql.WithInstanceName(config.DefaultInstance),
		qtsql.WithConfigFromEnv(),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DefaultMaxOpen)
	db.SetMaxIdleConns(config.DefaultMaxIdle)

	// Pool gauges; attributes are auto-detected from the wrapped driver.
	if err := qtsql.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("example-app")); err != nil {
		logger.Warn().Err(err).Msg("failed to register pool metrics")
	}

	return &DB{DB: db, logger: logger}, nil
}
