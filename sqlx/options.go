package sqlx

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/querytrail/querytrail-go/stacktrace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	// This identifies the library in metrics.
	scope = "github.com/querytrail/querytrail-go/sqlx"
)

// config holds the configuration for the annotating sqlx wrapper.
type config struct {
	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	// When no global provider is configured, a no-op meter is used (safe, but no metrics).
	MeterProvider metric.MeterProvider

	// Meter is the meter instance created from MeterProvider.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Trace controls how call stacks are captured, filtered and rendered
	// into the query comment. Defaults to stacktrace.DefaultConfig().
	Trace stacktrace.Config

	// DBSystem identifies the database management system (DBMS) product.
	// Examples: "postgresql", "mysql", "sqlite", "mssql", "oracle"
	DBSystem string

	// DBName is the name of the database being accessed.
	DBName string

	// InstanceName identifies a specific database connection instance,
	// such as "primary" or "replica" in a read/write split.
	InstanceName string
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		MeterProvider: otel.GetMeterProvider(),
		Trace:         stacktrace.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// Initialize the meter after options are applied.
	// If no provider is configured globally, this is a no-op implementation
	// that safely does nothing - no errors, just no telemetry data collected.
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Initialize metrics (ignore errors, will just be nil if fails)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// Option configures the annotating sqlx wrapper.
type Option func(*config)

// WithMeterProvider sets a custom meter provider.
// If not called, the global provider from otel.GetMeterProvider() is used.
//
// Example:
//
//	mp := sdkmetric.NewMeterProvider(...)
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithMeterProvider(mp),
//	)
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = mp
	}
}

// WithConfig replaces the whole annotation config.
//
// Example:
//
//	cfg := stacktrace.DefaultConfig()
//	cfg.FilterStdlib = false
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithConfig(cfg),
//	)
func WithConfig(trace stacktrace.Config) Option {
	return func(cfg *config) {
		cfg.Trace = trace
	}
}

// WithConfigFromEnv loads the annotation config from QUERYTRAIL_*
// environment variables. See stacktrace.ConfigFromEnv for the list.
//
// Example:
//
//	// QUERYTRAIL_MAX_FRAMES=30 QUERYTRAIL_FILTER_STDLIB=false ./myapp
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithConfigFromEnv(),
//	)
func WithConfigFromEnv() Option {
	return func(cfg *config) {
		cfg.Trace = stacktrace.ConfigFromEnv()
	}
}

// WithDisabled turns query annotation off while keeping the wrapper (and
// its metrics) in place. Queries pass through untouched.
//
// Example:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithDisabled(),
//	)
func WithDisabled() Option {
	return func(cfg *config) {
		cfg.Trace.Enabled = false
	}
}

// WithMaxFrames caps the number of stack frames rendered into the
// comment. Zero means no cap. Innermost frames win when truncating.
//
// Example:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithMaxFrames(30),
//	)
func WithMaxFrames(n int) Option {
	return func(cfg *config) {
		cfg.Trace.MaxFrames = n
	}
}

// WithMinAppFrames sets how many application frames the filtered stack
// must retain before the formatter falls back to the unfiltered tail.
//
// Example:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithMinAppFrames(2),
//	)
func WithMinAppFrames(n int) Option {
	return func(cfg *config) {
		cfg.Trace.MinAppFrames = n
	}
}

// WithDBSystem sets the database system identifier (DBMS product).
// This is added as the "db.system" attribute on all metrics.
//
// Common values:
//   - "postgresql" - PostgreSQL
//   - "mysql" - MySQL
//   - "sqlite" - SQLite
//
// Example:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithDBSystem("postgresql"),
//	)
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}

// WithDBName sets the database name being accessed.
// This is added as the "db.name" attribute on all metrics.
//
// Example:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithDBName("users_db"),
//	)
func WithDBName(name string) Option {
	return func(cfg *config) {
		cfg.DBName = name
	}
}

// WithInstanceName sets an identifier for this specific database connection.
// This is added as the "db.instance" attribute on all metrics.
//
// Use this to distinguish between multiple connections to the SAME database,
// such as primary/replica setups or read/write splits.
//
// Example:
//
//	writerDB, _ := qtsqlx.Open("postgres", primaryDSN,
//	    qtsqlx.WithInstanceName("primary"),
//	)
//	readerDB, _ := qtsqlx.Open("postgres", replicaDSN,
//	    qtsqlx.WithInstanceName("replica"),
//	)
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}
