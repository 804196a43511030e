package sql

import (
	"context"
	"database/sql/driver"
	"time"
)

// Compile-time interface checks.
var (
	_ driver.Stmt             = (*stackStmt)(nil)
	_ driver.StmtExecContext  = (*stackStmt)(nil)
	_ driver.StmtQueryContext = (*stackStmt)(nil)
)

// stackStmt wraps a driver.Stmt prepared from an annotated query.
type stackStmt struct {
	stmt  driver.Stmt
	cfg   *config
	query string
}

// newStackStmt creates a new statement wrapper. query is the annotated
// text the statement was prepared with.
func newStackStmt(stmt driver.Stmt, cfg *config, query string) *stackStmt {
	return &stackStmt{
		stmt:  stmt,
		cfg:   cfg,
		query: query,
	}
}

// Close implements driver.Stmt.
func (s *stackStmt) Close() error {
	return s.stmt.Close()
}

// NumInput implements driver.Stmt.
func (s *stackStmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec implements driver.Stmt.
// Deprecated: Use ExecContext instead. This exists for driver.Stmt interface compatibility.
func (s *stackStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.stmt.Exec(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// Query implements driver.Stmt.
// Deprecated: Use QueryContext instead. This exists for driver.Stmt interface compatibility.
func (s *stackStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.stmt.Query(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// ExecContext implements driver.StmtExecContext.
func (s *stackStmt) ExecContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Result, error) {
	start := time.Now()

	var result driver.Result
	var err error

	if execer, ok := s.stmt.(driver.StmtExecContext); ok {
		result, err = execer.ExecContext(ctx, args)
	} else {
		// Fallback to non-context version
		values := namedValueToValue(args)
		result, err = s.stmt.Exec(values) //nolint:staticcheck // Fallback for older drivers
	}

	// Record metrics
	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}

	return result, nil
}

// QueryContext implements driver.StmtQueryContext.
func (s *stackStmt) QueryContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Rows, error) {
	start := time.Now()

	var rows driver.Rows
	var err error

	if queryer, ok := s.stmt.(driver.StmtQueryContext); ok {
		rows, err = queryer.QueryContext(ctx, args)
	} else {
		// Fallback to non-context version
		values := namedValueToValue(args)
		rows, err = s.stmt.Query(values) //nolint:staticcheck // Fallback for older drivers
	}

	// Record metrics
	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}

	return rows, nil
}

// namedValueToValue converts NamedValue slice to Value slice.
func namedValueToValue(named []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		values[i] = nv.Value
	}
	return values
}
