// Package sqlx wraps github.com/jmoiron/sqlx so every statement-bearing
// call carries a stack-trace comment identifying the code path that issued
// the query. It covers the sqlx-specific surface (Get, Select, NamedExec,
// NamedQuery, Queryx) in addition to the standard database/sql operations.
//
// # Features
//
//   - Annotating wrappers for DB, Tx, Stmt and NamedStmt
//   - Named queries bound before annotation, so ":name" parsing stays intact
//   - Prepared statements annotated once, at prepare time
//   - Fail-open: a broken stack capture never breaks a query
//   - Optional OpenTelemetry metrics (annotation outcomes, operation latency,
//     connection pool stats)
//
// # Quick Start
//
//	import qtsqlx "github.com/querytrail/querytrail-go/sqlx"
//
//	db, err := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithDBSystem("postgresql"),
//	    qtsqlx.WithDBName("myapp"),
//	)
//
//	var user User
//	err = db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", 1)
//	// Reaches the database as
//	// SELECT * FROM users WHERE id = $1
//	// /*
//	// STACKTRACE:
//	// # /app/handlers/user.go:42 in github.com/acme/app/handlers.(*UserHandler).Show
//	// */
//
// # Configuration
//
// Capture and filtering follow a stacktrace.Config, defaulting to
// stacktrace.DefaultConfig. Override it per database handle:
//
//	db, _ := qtsqlx.Open("postgres", dsn,
//	    qtsqlx.WithMaxFrames(30),
//	    qtsqlx.WithConfigFromEnv(),
//	)
//
// For scoped (enter/exit) activation instead of always-on annotation, see
// the scope package. For plain database/sql, see the sql package.
package sqlx
