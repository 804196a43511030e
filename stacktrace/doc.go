// Package stacktrace annotates SQL queries with a filtered snapshot of the
// application call stack, rendered as a trailing block comment. Operators
// reading slow-query logs or pg_stat_activity see which code path issued a
// query without any out-of-band correlation.
//
// # Features
//
//   - Call-stack capture with noise filters for dependency roots, the
//     standard library, database-layer internals, and test-runner machinery
//   - Bounded output keeping the frames closest to the call site
//   - Sanitized rendering that cannot break out of the SQL comment
//   - Idempotent, strictly fail-open annotation: a broken stack trace never
//     breaks a query
//
// # Quick Start
//
//	import "github.com/querytrail/querytrail-go/stacktrace"
//
//	query := stacktrace.Annotate("SELECT * FROM users WHERE active = true")
//	// SELECT * FROM users WHERE active = true
//	// /*
//	// STACKTRACE:
//	// # /app/views.go:25 in github.com/acme/app.getActiveUsers
//	// */
//	rows, err := db.QueryContext(ctx, query)
//
// # Configuration
//
// Behavior is controlled by Config; DefaultConfig documents the defaults and
// ConfigFromEnv reads QUERYTRAIL_* environment variables:
//
//	cfg := stacktrace.DefaultConfig()
//	cfg.MaxFrames = 5
//	query := stacktrace.AnnotateWith(sql, cfg)
//
// Most applications use the scope, sql, or sqlx packages of this module
// instead of calling Annotate directly; those integrations rewrite queries on
// their way to the driver.
package stacktrace
