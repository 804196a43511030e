package scope

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Compile-time interface checks.
var (
	_ Cursor = (*baseCursor)(nil)
	_ Cursor = (*DebugCursor)(nil)
)

// Cursor is the capability set scopes wrap: statement execution, batched
// execution, queries, and handle release. It mirrors how database handles are
// used inside a unit of work; annotating proxies preserve exactly this
// surface.
//
// A Cursor is not safe for concurrent use. Acquire one per goroutine.
type Cursor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// ExecMany runs the same statement once per parameter set, stopping at
	// the first error.
	ExecMany(ctx context.Context, query string, batches [][]interface{}) error

	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRow runs a statement expected to return at most one row. Errors
	// surface on Scan.
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Close releases the underlying handle.
	Close() error
}

// baseCursor executes against a dedicated connection from the pool.
type baseCursor struct {
	conn *sql.Conn
}

func (b *baseCursor) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return b.conn.ExecContext(ctx, query, args...)
}

func (b *baseCursor) ExecMany(ctx context.Context, query string, batches [][]interface{}) error {
	for i, args := range batches {
		if _, err := b.conn.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return nil
}

func (b *baseCursor) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return b.conn.QueryContext(ctx, query, args...)
}

func (b *baseCursor) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.conn.QueryRowContext(ctx, query, args...)
}

func (b *baseCursor) Close() error {
	return b.conn.Close()
}

// DebugCursor wraps a Cursor with query logging: every statement is timed,
// appended to the connection's query log, and emitted as a debug log event.
type DebugCursor struct {
	next Cursor
	conn *Connection

	last    QueryRecord
	hasLast bool
}

func newDebugCursor(next Cursor, conn *Connection) *DebugCursor {
	return &DebugCursor{next: next, conn: conn}
}

// Last returns the most recent record this cursor produced.
func (d *DebugCursor) Last() (QueryRecord, bool) {
	return d.last, d.hasLast
}

func (d *DebugCursor) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.next.Exec(ctx, query, args...)
	d.record(query, args, 0, time.Since(start), err)
	return res, err
}

func (d *DebugCursor) ExecMany(ctx context.Context, query string, batches [][]interface{}) error {
	start := time.Now()
	err := d.next.ExecMany(ctx, query, batches)
	d.record(query, nil, len(batches), time.Since(start), err)
	return err
}

func (d *DebugCursor) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.next.Query(ctx, query, args...)
	d.record(query, args, 0, time.Since(start), err)
	return rows, err
}

func (d *DebugCursor) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.next.QueryRow(ctx, query, args...)
	// A row error only surfaces on Scan, so the record carries none.
	d.record(query, args, 0, time.Since(start), nil)
	return row
}

func (d *DebugCursor) Close() error {
	return d.next.Close()
}

func (d *DebugCursor) record(query string, args []interface{}, batch int, duration time.Duration, err error) {
	rec := QueryRecord{
		SQL:      query,
		Args:     args,
		Batch:    batch,
		Duration: duration,
	}
	d.last = rec
	d.hasLast = true
	d.conn.log.add(rec)

	evt := d.conn.logger.Debug().
		Str("sql", query).
		Dur("duration", duration)
	if batch > 0 {
		evt = evt.Int("batch", batch)
	}
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("query executed")
}
