package scope

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/querytrail/querytrail-go/stacktrace"
)

// queryLogLimit bounds the debug query log; the oldest records are dropped.
const queryLogLimit = 1000

// CursorFactory produces cursors for a Connection. Scopes swap the factory to
// hand out annotating cursors and restore the previous one on exit.
type CursorFactory func(ctx context.Context) (Cursor, error)

// QueryRecord is one entry of the debug query log.
type QueryRecord struct {
	// SQL is the statement as it went to the database, annotation included.
	SQL string

	// Args holds the bind parameters of a single statement. Empty for
	// batched execution.
	Args []interface{}

	// Batch is the number of parameter sets of an ExecMany call, 0 for
	// single statements.
	Batch int

	// Duration is the wall time of the database call.
	Duration time.Duration
}

// Connection wraps a *sql.DB with a swappable cursor factory. By default it
// hands out plain cursors; entering a scope swaps the factory for one that
// produces annotating proxies.
//
// Concurrent queries through a Connection are fine, one cursor per goroutine.
// Entering and exiting scopes concurrently from multiple goroutines is not
// coordinated: the last exit wins the restored factory. Scopes are meant to
// bracket a single logical unit of work.
type Connection struct {
	db     *sql.DB
	logger zerolog.Logger
	cfg    stacktrace.Config
	debug  bool

	mu      sync.Mutex
	factory CursorFactory

	log queryLog
}

// Option configures a Connection.
type Option func(*Connection)

// WithDebug makes the default factory produce debug cursors, which time every
// statement, append it to the query log, and emit a debug-level log event.
func WithDebug() Option {
	return func(c *Connection) {
		c.debug = true
	}
}

// WithLogger sets the logger used for scope lifecycle events and debug-cursor
// query events. The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithConfig sets the annotation configuration scopes on this connection use
// by default. The default is stacktrace.DefaultConfig.
func WithConfig(cfg stacktrace.Config) Option {
	return func(c *Connection) {
		c.cfg = cfg
	}
}

// NewConnection wraps db. The connection does not own db; closing it remains
// the caller's job.
//
// Example:
//
//	conn := scope.NewConnection(db,
//	    scope.WithDebug(),
//	    scope.WithLogger(logger),
//	)
//	cur, err := conn.Cursor(ctx)
func NewConnection(db *sql.DB, opts ...Option) *Connection {
	c := &Connection{
		db:     db,
		logger: zerolog.Nop(),
		cfg:    stacktrace.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.factory = c.defaultCursor
	return c
}

// DB returns the wrapped database handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Debug reports whether the connection hands out debug cursors.
func (c *Connection) Debug() bool {
	return c.debug
}

// Config returns the annotation configuration scopes inherit from this
// connection.
func (c *Connection) Config() stacktrace.Config {
	return c.cfg
}

// Cursor produces a cursor via the current factory.
func (c *Connection) Cursor(ctx context.Context) (Cursor, error) {
	return c.CursorFactory()(ctx)
}

// CursorFactory returns the currently installed factory.
func (c *Connection) CursorFactory() CursorFactory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factory
}

// SetCursorFactory installs a factory. A nil factory resets to the default.
func (c *Connection) SetCursorFactory(factory CursorFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if factory == nil {
		factory = c.defaultCursor
	}
	c.factory = factory
}

// Queries returns a copy of the debug query log, oldest first.
func (c *Connection) Queries() []QueryRecord {
	return c.log.snapshot()
}

// ClearQueries empties the debug query log.
func (c *Connection) ClearQueries() {
	c.log.clear()
}

// defaultCursor is the factory installed at construction time.
func (c *Connection) defaultCursor(ctx context.Context) (Cursor, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	base := &baseCursor{conn: conn}
	if c.debug {
		return newDebugCursor(base, c), nil
	}
	return base, nil
}

// queryLog is a bounded, concurrency-safe record of executed statements.
type queryLog struct {
	mu      sync.Mutex
	records []QueryRecord
}

func (q *queryLog) add(rec QueryRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.records) >= queryLogLimit {
		q.records = append(q.records[1:], rec)
		return
	}
	q.records = append(q.records, rec)
}

func (q *queryLog) snapshot() []QueryRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueryRecord, len(q.records))
	copy(out, q.records)
	return out
}

func (q *queryLog) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
}
