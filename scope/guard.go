package scope

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/querytrail/querytrail-go/stacktrace"
)

// Guard activates query annotation on a Connection for a bounded stretch of
// work. Enter saves the connection's current cursor factory and installs the
// annotating one; Exit restores what was saved, unconditionally.
//
// Guards nest: an inner guard saves the outer guard's factory, so exits in
// LIFO order restore correctly, and the annotator's idempotence keeps nested
// scopes from double-annotating. A guard is reusable after Exit.
//
// Enter on an active guard and Exit on an inactive one are no-ops, which
// makes deferred exits safe to stack.
type Guard struct {
	conn   *Connection
	cfg    stacktrace.Config
	logger zerolog.Logger
	id     string

	mu     sync.Mutex
	active bool
	saved  CursorFactory
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardConfig overrides the annotation configuration for this guard only.
// The default is the connection's configuration.
func WithGuardConfig(cfg stacktrace.Config) GuardOption {
	return func(g *Guard) {
		g.cfg = cfg
	}
}

// NewGuard creates an inactive guard for conn.
//
// Example:
//
//	g := scope.NewGuard(conn)
//	g.Enter()
//	defer g.Exit()
//	// queries through conn now carry a stack-trace comment
func NewGuard(conn *Connection, opts ...GuardOption) *Guard {
	g := &Guard{
		conn:   conn,
		cfg:    conn.Config(),
		logger: conn.logger,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the guard's identifier, as logged on enter and exit.
func (g *Guard) ID() string {
	return g.id
}

// Active reports whether the guard currently holds a saved factory.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Enter saves the connection's current factory and installs the annotating
// one. Entering an active guard is a no-op.
func (g *Guard) Enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return
	}
	g.saved = g.conn.CursorFactory()
	g.conn.SetCursorFactory(traceFactory(g.saved, g.cfg))
	g.active = true
	g.logger.Debug().Str("scope_id", g.id).Msg("query annotation scope entered")
}

// Exit restores the factory saved by Enter and clears it. Exiting an inactive
// guard is a no-op.
func (g *Guard) Exit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return
	}
	g.conn.SetCursorFactory(g.saved)
	g.saved = nil
	g.active = false
	g.logger.Debug().Str("scope_id", g.id).Msg("query annotation scope exited")
}

// With runs fn inside a fresh scope on conn. The scope is exited on every
// path out of fn; a panic in fn propagates after the factory is restored.
//
// Example:
//
//	err := scope.With(conn, func() error {
//	    _, err := cur.Exec(ctx, "UPDATE users SET active = false WHERE id = $1", id)
//	    return err
//	})
func With(conn *Connection, fn func() error, opts ...GuardOption) error {
	g := NewGuard(conn, opts...)
	g.Enter()
	defer g.Exit()
	return fn()
}

// Wrap returns fn wrapped so that every invocation runs inside its own scope
// on conn.
//
// Example:
//
//	handler := scope.Wrap(conn, updateInventory)
//	err := handler(ctx)
func Wrap(conn *Connection, fn func(context.Context) error, opts ...GuardOption) func(context.Context) error {
	return func(ctx context.Context) error {
		return With(conn, func() error {
			return fn(ctx)
		}, opts...)
	}
}
