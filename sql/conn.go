package sql

import (
	"context"
	"database/sql/driver"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/querytrail/querytrail-go/stacktrace"
)

// Compile-time interface checks.
var (
	_ driver.Conn               = (*stackConn)(nil)
	_ driver.ConnPrepareContext = (*stackConn)(nil)
	_ driver.ConnBeginTx        = (*stackConn)(nil)
	_ driver.ExecerContext      = (*stackConn)(nil)
	_ driver.QueryerContext     = (*stackConn)(nil)
	_ driver.Pinger             = (*stackConn)(nil)
	_ driver.SessionResetter    = (*stackConn)(nil)
	_ driver.Validator          = (*stackConn)(nil)
)

// stackConn wraps a driver.Conn with query annotation.
type stackConn struct {
	conn driver.Conn
	cfg  *config
}

// newStackConn creates a new annotating connection.
func newStackConn(conn driver.Conn, cfg *config) *stackConn {
	return &stackConn{
		conn: conn,
		cfg:  cfg,
	}
}

// annotate appends the call stack comment to query and records the
// outcome. The query comes back untouched when annotation is disabled,
// already present, or produced nothing.
func (c *stackConn) annotate(ctx context.Context, query string) string {
	outcome := outcomeAnnotated
	annotated := query

	switch {
	case !c.cfg.Trace.Enabled:
		outcome = outcomeDisabled
	case stacktrace.HasMarker(query):
		outcome = outcomeAlreadyAnnotated
	default:
		annotated = stacktrace.AnnotateWith(query, c.cfg.Trace)
		if annotated == query {
			outcome = outcomeFailed
		}
	}

	c.cfg.Metrics.recordAnnotation(ctx, outcome, c.cfg.baseAttributes())
	return annotated
}

// Prepare implements driver.Conn.
// The statement is prepared with the annotation already in place, so the
// recorded stack points at the code that prepared it, not each execution.
func (c *stackConn) Prepare(query string) (driver.Stmt, error) {
	annotated := c.annotate(context.Background(), query)
	stmt, err := c.conn.Prepare(annotated)
	if err != nil {
		return nil, err
	}
	return newStackStmt(stmt, c.cfg, annotated), nil
}

// Close implements driver.Conn.
func (c *stackConn) Close() error {
	return c.conn.Close()
}

// Begin implements driver.Conn.
// Deprecated: Use BeginTx instead. This exists for driver.Conn interface compatibility.
func (c *stackConn) Begin() (driver.Tx, error) {
	tx, err := c.conn.Begin() //nolint:staticcheck // Required for driver.Conn interface
	if err != nil {
		return nil, err
	}
	return newStackTx(tx, c.cfg), nil
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *stackConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	annotated := c.annotate(ctx, query)

	var stmt driver.Stmt
	var err error

	if preparer, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, annotated)
	} else {
		stmt, err = c.conn.Prepare(annotated)
	}

	if err != nil {
		return nil, err
	}
	return newStackStmt(stmt, c.cfg, annotated), nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *stackConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	start := time.Now()

	var tx driver.Tx
	var err error

	if beginner, ok := c.conn.(driver.ConnBeginTx); ok {
		tx, err = beginner.BeginTx(ctx, opts)
	} else {
		tx, err = c.conn.Begin() //nolint:staticcheck // Fallback for older drivers
	}

	// Record metrics
	c.cfg.Metrics.recordOperationDuration(ctx, time.Since(start), "BEGIN", c.cfg.baseAttributes(), err)

	if err != nil {
		return nil, err
	}

	return newStackTx(tx, c.cfg), nil
}

// ExecContext implements driver.ExecerContext.
func (c *stackConn) ExecContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	execer, ok := c.conn.(driver.ExecerContext)
	if !ok {
		// Fallback: database/sql retries through PrepareContext,
		// which annotates.
		return nil, driver.ErrSkip
	}

	start := time.Now()
	operation := extractOperation(query)
	annotated := c.annotate(ctx, query)

	result, err := execer.ExecContext(ctx, annotated, args)

	// Record metrics
	c.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		c.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.QueryerContext.
func (c *stackConn) QueryContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Rows, error) {
	queryer, ok := c.conn.(driver.QueryerContext)
	if !ok {
		// Fallback: database/sql retries through PrepareContext,
		// which annotates.
		return nil, driver.ErrSkip
	}

	start := time.Now()
	operation := extractOperation(query)
	annotated := c.annotate(ctx, query)

	rows, err := queryer.QueryContext(ctx, annotated, args)

	// Record metrics
	c.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		c.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping implements driver.Pinger.
func (c *stackConn) Ping(ctx context.Context) error {
	start := time.Now()

	var err error
	if pinger, ok := c.conn.(driver.Pinger); ok {
		err = pinger.Ping(ctx)
	}

	// Record metrics
	c.cfg.Metrics.recordOperationDuration(ctx, time.Since(start), "PING", c.cfg.baseAttributes(), err)

	return err
}

// ResetSession implements driver.SessionResetter.
func (c *stackConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

// IsValid implements driver.Validator.
func (c *stackConn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

// baseAttributes returns the base attributes for all metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", cfg.DBSystem))
	}
	if cfg.DBName != "" {
		attrs = append(attrs, attribute.String("db.name", cfg.DBName))
	}
	if cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", cfg.InstanceName))
	}
	return attrs
}
