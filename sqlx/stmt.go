package sqlx

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Stmt wraps *sqlx.Stmt. The statement text was annotated at prepare time,
// so executions delegate directly; only operation metrics are recorded here.
type Stmt struct {
	*sqlx.Stmt
	cfg   *config
	query string
}

// GetContext executes the prepared statement for a single row.
func (s *Stmt) GetContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	start := time.Now()

	err := s.Stmt.GetContext(ctx, dest, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	return err
}

// SelectContext executes the prepared statement and scans results into dest.
func (s *Stmt) SelectContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	start := time.Now()

	err := s.Stmt.SelectContext(ctx, dest, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	return err
}

// ExecContext executes the prepared statement.
func (s *Stmt) ExecContext(ctx context.Context, args ...interface{}) (sql.Result, error) {
	start := time.Now()

	result, err := s.Stmt.ExecContext(ctx, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	return result, err
}

// QueryContext executes the prepared statement and returns rows.
func (s *Stmt) QueryContext(ctx context.Context, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()

	rows, err := s.Stmt.QueryContext(ctx, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryRowContext executes the prepared statement and returns a single row.
func (s *Stmt) QueryRowContext(ctx context.Context, args ...interface{}) *sql.Row {
	start := time.Now()

	row := s.Stmt.QueryRowContext(ctx, args...)

	// A row error only surfaces on Scan, so the record carries none.
	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		nil,
	)

	return row
}

// QueryxContext executes the prepared statement and returns sqlx.Rows.
func (s *Stmt) QueryxContext(ctx context.Context, args ...interface{}) (*sqlx.Rows, error) {
	start := time.Now()

	rows, err := s.Stmt.QueryxContext(ctx, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryRowxContext executes the prepared statement and returns sqlx.Row.
func (s *Stmt) QueryRowxContext(ctx context.Context, args ...interface{}) *sqlx.Row {
	start := time.Now()

	row := s.Stmt.QueryRowxContext(ctx, args...)

	s.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(s.query),
		s.cfg.baseAttributes(),
		nil,
	)

	return row
}

// Unsafe returns a version of Stmt that silently ignores missing destination fields.
func (s *Stmt) Unsafe() *Stmt {
	return &Stmt{
		Stmt:  s.Stmt.Unsafe(),
		cfg:   s.cfg,
		query: s.query,
	}
}

// NamedStmt wraps *sqlx.NamedStmt. Named statements are prepared from the
// raw query (see DB.PrepareNamedContext) and execute unannotated; the
// wrapper records operation metrics.
type NamedStmt struct {
	*sqlx.NamedStmt
	cfg   *config
	query string
}

// GetContext executes the named statement for a single row.
func (ns *NamedStmt) GetContext(ctx context.Context, dest interface{}, arg interface{}) error {
	start := time.Now()

	err := ns.NamedStmt.GetContext(ctx, dest, arg)

	ns.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(ns.query),
		ns.cfg.baseAttributes(),
		err,
	)

	return err
}

// SelectContext executes the named statement and scans results into dest.
func (ns *NamedStmt) SelectContext(ctx context.Context, dest interface{}, arg interface{}) error {
	start := time.Now()

	err := ns.NamedStmt.SelectContext(ctx, dest, arg)

	ns.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(ns.query),
		ns.cfg.baseAttributes(),
		err,
	)

	return err
}

// ExecContext executes the named statement.
func (ns *NamedStmt) ExecContext(ctx context.Context, arg interface{}) (sql.Result, error) {
	start := time.Now()

	result, err := ns.NamedStmt.ExecContext(ctx, arg)

	ns.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(ns.query),
		ns.cfg.baseAttributes(),
		err,
	)

	return result, err
}

// QueryxContext executes the named statement and returns sqlx.Rows.
func (ns *NamedStmt) QueryxContext(ctx context.Context, arg interface{}) (*sqlx.Rows, error) {
	start := time.Now()

	rows, err := ns.NamedStmt.QueryxContext(ctx, arg)

	ns.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(ns.query),
		ns.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryRowxContext executes the named statement and returns a single sqlx.Row.
func (ns *NamedStmt) QueryRowxContext(ctx context.Context, arg interface{}) *sqlx.Row {
	start := time.Now()

	row := ns.NamedStmt.QueryRowxContext(ctx, arg)

	ns.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		extractOperation(ns.query),
		ns.cfg.baseAttributes(),
		nil,
	)

	return row
}

// Unsafe returns a version of NamedStmt that silently ignores missing
// destination fields.
func (ns *NamedStmt) Unsafe() *NamedStmt {
	return &NamedStmt{
		NamedStmt: ns.NamedStmt.Unsafe(),
		cfg:       ns.cfg,
		query:     ns.query,
	}
}
