// Package sql provides a database/sql driver wrapper that annotates
// every outgoing query with a filtered, human-readable call stack,
// rendered as a trailing block comment.
//
// A DBA looking at a slow query in pg_stat_activity or the slow query
// log sees exactly which application code path issued it:
//
//	SELECT * FROM users WHERE active = true
//	/*
//	STACKTRACE:
//	# /app/internal/views/users.go:42 in myapp/internal/views.ActiveUsers
//	# /app/cmd/api/main.go:118 in main.run
//	*/
//
// # Features
//
//   - Call stack comment appended to every Exec, Query and Prepare
//   - Third-party, ORM, stdlib and test-framework frames filtered out
//   - Annotation is idempotent and fails open: queries always run
//   - OpenTelemetry metrics for annotation outcomes and operation latency
//   - Full compatibility with database/sql interface
//
// # Quick Start
//
// Open a database connection with annotation:
//
//	import qtsql "github.com/querytrail/querytrail-go/sql"
//
//	db, err := qtsql.Open("postgres", dsn,
//	    qtsql.WithDBSystem("postgresql"),
//	    qtsql.WithDBName("myapp"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Use like standard *sql.DB
//	rows, err := db.QueryContext(ctx, "SELECT * FROM users")
//
// # Driver Registration
//
// For more control, register a wrapped driver:
//
//	driver := qtsql.WrapDriver(pq.Driver{},
//	    qtsql.WithDBSystem("postgresql"),
//	)
//	sql.Register("postgres-annotated", driver)
//
//	db, _ := sql.Open("postgres-annotated", dsn)
//
// # Configuration Options
//
// Common options for customization:
//
//	db, _ := qtsql.Open("postgres", dsn,
//	    qtsql.WithDBSystem("postgresql"),  // Database type for metrics
//	    qtsql.WithDBName("users_db"),      // Database name for metrics
//	    qtsql.WithMaxFrames(30),           // Cap rendered frames
//	    qtsql.WithConfigFromEnv(),         // Or read QUERYTRAIL_* vars
//	)
//
// Annotation never interferes with query execution. If stack capture or
// rendering fails, the original query is sent untouched and the failure
// shows up on the querytrail.annotations counter.
//
// # Observability
//
// The wrapper automatically emits:
//
//   - querytrail.annotations (counter by outcome: annotated, disabled,
//     already_annotated, failed)
//   - db.client.operation.duration (histogram by operation)
//   - db.client.connections.* (pool gauges via RecordPoolMetrics)
package sql
