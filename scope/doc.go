// Package scope activates SQL stack-trace annotation for bounded stretches
// of work: a request handler, a background job, a test. A Connection hands
// out cursors through a swappable factory; entering a scope swaps the factory
// for one producing annotating proxies, and exiting restores the previous
// factory no matter how the scoped work ends.
//
// # Features
//
//   - Guard with guaranteed factory restore, panic-safe and reusable
//   - Block form (With) and decorator form (Wrap)
//   - Nested scopes restore in LIFO order and never double-annotate
//   - Optional debug cursors with a bounded query log and zerolog events
//
// # Quick Start
//
//	conn := scope.NewConnection(db)
//
//	err := scope.With(conn, func() error {
//	    cur, err := conn.Cursor(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    defer cur.Close()
//
//	    // Reaches the database as
//	    // SELECT * FROM orders WHERE status = 'open'
//	    // /*
//	    // STACKTRACE:
//	    // # /app/orders.go:42 in github.com/acme/app.openOrders
//	    // */
//	    rows, err := cur.Query(ctx, "SELECT * FROM orders WHERE status = 'open'")
//	    ...
//	})
//
// # Debug Cursors
//
// With scope.WithDebug the connection records every statement it executed,
// annotation included:
//
//	conn := scope.NewConnection(db, scope.WithDebug(), scope.WithLogger(logger))
//	...
//	for _, rec := range conn.Queries() {
//	    fmt.Println(rec.SQL, rec.Duration)
//	}
//
// # Concurrency
//
// Queries may run concurrently under an active scope, one cursor per
// goroutine. Scope activation itself is not coordinated across goroutines:
// overlapping guards on one connection restore whichever factory their exit
// order dictates. Bracket one logical unit of work per scope; for process-wide
// annotation use the sql or sqlx packages of this module instead.
package scope
