package sql

import (
	"context"
	"database/sql/driver"
	"time"
)

// Compile-time interface check.
var _ driver.Tx = (*stackTx)(nil)

// stackTx wraps a driver.Tx so commit and rollback durations land in
// the same histogram as statements. Transactions carry no SQL text of
// their own, so there is nothing to annotate here.
type stackTx struct {
	tx  driver.Tx
	cfg *config
}

// newStackTx creates a new transaction wrapper.
func newStackTx(tx driver.Tx, cfg *config) *stackTx {
	return &stackTx{
		tx:  tx,
		cfg: cfg,
	}
}

// Commit implements driver.Tx.
func (t *stackTx) Commit() error {
	start := time.Now()
	err := t.tx.Commit()
	t.cfg.Metrics.recordOperationDuration(
		context.Background(), time.Since(start), "COMMIT", t.cfg.baseAttributes(), err)
	return err
}

// Rollback implements driver.Tx.
func (t *stackTx) Rollback() error {
	start := time.Now()
	err := t.tx.Rollback()
	t.cfg.Metrics.recordOperationDuration(
		context.Background(), time.Since(start), "ROLLBACK", t.cfg.baseAttributes(), err)
	return err
}
