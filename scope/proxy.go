package scope

import (
	"context"
	"database/sql"

	"github.com/querytrail/querytrail-go/stacktrace"
)

// Compile-time interface checks.
var (
	_ Cursor = (*TraceCursor)(nil)
	_ Cursor = (*TraceDebugCursor)(nil)
)

// TraceCursor is the annotating proxy handed out while a scope is active. It
// rewrites the SQL of every statement-bearing call through the annotator and
// delegates everything else untouched. Annotation is fail-open and
// idempotent, so a proxy wrapping another proxy still annotates only once.
type TraceCursor struct {
	next Cursor
	cfg  stacktrace.Config
}

func (t *TraceCursor) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.next.Exec(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceCursor) ExecMany(ctx context.Context, query string, batches [][]interface{}) error {
	return t.next.ExecMany(ctx, stacktrace.AnnotateWith(query, t.cfg), batches)
}

func (t *TraceCursor) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.next.Query(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceCursor) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.next.QueryRow(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceCursor) Close() error {
	return t.next.Close()
}

// TraceDebugCursor is the annotating proxy for debug cursors. Annotation
// happens before the debug layer records the statement, so the query log
// shows what actually went to the database, and the debug surface (Last)
// stays available.
type TraceDebugCursor struct {
	next *DebugCursor
	cfg  stacktrace.Config
}

// Last returns the most recent record of the wrapped debug cursor.
func (t *TraceDebugCursor) Last() (QueryRecord, bool) {
	return t.next.Last()
}

func (t *TraceDebugCursor) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.next.Exec(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceDebugCursor) ExecMany(ctx context.Context, query string, batches [][]interface{}) error {
	return t.next.ExecMany(ctx, stacktrace.AnnotateWith(query, t.cfg), batches)
}

func (t *TraceDebugCursor) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.next.Query(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceDebugCursor) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.next.QueryRow(ctx, stacktrace.AnnotateWith(query, t.cfg), args...)
}

func (t *TraceDebugCursor) Close() error {
	return t.next.Close()
}

// traceFactory wraps a saved factory so produced cursors annotate. The proxy
// variant matches what the saved factory produced: debug cursors keep their
// debug surface.
func traceFactory(saved CursorFactory, cfg stacktrace.Config) CursorFactory {
	return func(ctx context.Context) (Cursor, error) {
		cur, err := saved(ctx)
		if err != nil {
			return nil, err
		}
		if dc, ok := cur.(*DebugCursor); ok {
			return &TraceDebugCursor{next: dc, cfg: cfg}, nil
		}
		return &TraceCursor{next: cur, cfg: cfg}, nil
	}
}
