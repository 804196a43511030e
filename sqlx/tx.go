package sqlx

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Tx wraps *sqlx.Tx so every statement issued inside the transaction
// carries a stack-trace comment, the same way DB does outside one.
type Tx struct {
	*sqlx.Tx
	cfg *config
}

// GetContext executes a query that is expected to return at most one row
// and scans the result into dest.
func (tx *Tx) GetContext(
	ctx context.Context,
	dest interface{},
	query string,
	args ...interface{},
) error {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	err := tx.Tx.GetContext(ctx, dest, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return err
}

// SelectContext executes a query and scans all results into dest.
func (tx *Tx) SelectContext(
	ctx context.Context,
	dest interface{},
	query string,
	args ...interface{},
) error {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	err := tx.Tx.SelectContext(ctx, dest, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return err
}

// NamedExecContext executes a named query inside the transaction. As on DB,
// parameters are bound before the comment is appended.
func (tx *Tx) NamedExecContext(
	ctx context.Context,
	query string,
	arg interface{},
) (sql.Result, error) {
	bound, args, err := tx.Tx.BindNamed(query, arg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, bound)

	result, err := tx.Tx.ExecContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return result, err
}

// NamedQuery executes a named query inside the transaction and returns rows.
func (tx *Tx) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	ctx := context.Background()

	bound, args, err := tx.Tx.BindNamed(query, arg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, bound)

	rows, err := tx.Tx.QueryxContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryxContext executes a query and returns sqlx.Rows.
func (tx *Tx) QueryxContext(
	ctx context.Context,
	query string,
	args ...interface{},
) (*sqlx.Rows, error) {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	rows, err := tx.Tx.QueryxContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	row := tx.Tx.QueryRowxContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		nil,
	)

	return row
}

// ExecContext executes a query without returning rows.
func (tx *Tx) ExecContext(
	ctx context.Context,
	query string,
	args ...interface{},
) (sql.Result, error) {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	result, err := tx.Tx.ExecContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return result, err
}

// QueryContext executes a query and returns rows.
func (tx *Tx) QueryContext(
	ctx context.Context,
	query string,
	args ...interface{},
) (*sql.Rows, error) {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	rows, err := tx.Tx.QueryContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		err,
	)

	return rows, err
}

// QueryRowContext executes a query and returns a single row.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	operation := extractOperation(query)
	annotated := tx.cfg.annotate(ctx, query)

	row := tx.Tx.QueryRowContext(ctx, annotated, args...)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		operation,
		tx.cfg.baseAttributes(),
		nil,
	)

	return row
}

// PrepareNamedContext prepares a named statement inside the transaction.
// As on DB, the statement is prepared from the raw query and executes
// unannotated.
func (tx *Tx) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	start := time.Now()

	stmt, err := tx.Tx.PrepareNamedContext(ctx, query)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		"PREPARE",
		tx.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}

	return &NamedStmt{NamedStmt: stmt, cfg: tx.cfg, query: query}, nil
}

// PrepareNamed prepares a named statement without context.
func (tx *Tx) PrepareNamed(query string) (*NamedStmt, error) {
	return tx.PrepareNamedContext(context.Background(), query)
}

// PreparexContext prepares a statement with the annotation already in place.
func (tx *Tx) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	start := time.Now()
	annotated := tx.cfg.annotate(ctx, query)

	stmt, err := tx.Tx.PreparexContext(ctx, annotated)

	tx.cfg.Metrics.recordOperationDuration(
		ctx,
		time.Since(start),
		"PREPARE",
		tx.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		return nil, err
	}

	return &Stmt{Stmt: stmt, cfg: tx.cfg, query: annotated}, nil
}

// Preparex prepares a statement without context.
func (tx *Tx) Preparex(query string) (*Stmt, error) {
	return tx.PreparexContext(context.Background(), query)
}

// StmtxContext returns a transaction-specific version of a prepared statement.
func (tx *Tx) StmtxContext(ctx context.Context, stmt *Stmt) *Stmt {
	return &Stmt{
		Stmt:  tx.Tx.StmtxContext(ctx, stmt.Stmt),
		cfg:   tx.cfg,
		query: stmt.query,
	}
}

// Stmtx returns a transaction-specific version of a prepared statement.
func (tx *Tx) Stmtx(stmt *Stmt) *Stmt {
	return tx.StmtxContext(context.Background(), stmt)
}

// NamedStmtContext returns a transaction-specific version of a named statement.
func (tx *Tx) NamedStmtContext(ctx context.Context, stmt *NamedStmt) *NamedStmt {
	return &NamedStmt{
		NamedStmt: tx.Tx.NamedStmtContext(ctx, stmt.NamedStmt),
		cfg:       tx.cfg,
		query:     stmt.query,
	}
}

// NamedStmt returns a transaction-specific version of a named statement.
func (tx *Tx) NamedStmt(stmt *NamedStmt) *NamedStmt {
	return tx.NamedStmtContext(context.Background(), stmt)
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	start := time.Now()

	err := tx.Tx.Commit()

	tx.cfg.Metrics.recordOperationDuration(
		context.Background(),
		time.Since(start),
		"COMMIT",
		tx.cfg.baseAttributes(),
		err,
	)

	return err
}

// Rollback rolls the transaction back.
func (tx *Tx) Rollback() error {
	start := time.Now()

	err := tx.Tx.Rollback()

	tx.cfg.Metrics.recordOperationDuration(
		context.Background(),
		time.Since(start),
		"ROLLBACK",
		tx.cfg.baseAttributes(),
		err,
	)

	return err
}

// Rebind transforms a query from QUESTION to the DB driver's bindvar type.
func (tx *Tx) Rebind(query string) string {
	return tx.Tx.Rebind(query)
}

// BindNamed binds a named query to a map or struct.
func (tx *Tx) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return tx.Tx.BindNamed(query, arg)
}

// DriverName returns the driver name.
func (tx *Tx) DriverName() string {
	return tx.Tx.DriverName()
}

// Unsafe returns a version of Tx that silently ignores missing destination fields.
func (tx *Tx) Unsafe() *Tx {
	return &Tx{
		Tx:  tx.Tx.Unsafe(),
		cfg: tx.cfg,
	}
}
