package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTx counts commits and rollbacks.
type recordingTx struct {
	commits     int
	rollbacks   int
	commitErr   error
	rollbackErr error
}

var _ DriverTx = (*recordingTx)(nil)

func (t *recordingTx) Commit() error {
	t.commits++
	return t.commitErr
}

func (t *recordingTx) Rollback() error {
	t.rollbacks++
	return t.rollbackErr
}

func TestNewStackTx(t *testing.T) {
	t.Run("given tx and config, then creates wrapped transaction", func(t *testing.T) {
		raw := &recordingTx{}
		cfg := newConfig(WithDBSystem("postgresql"))

		tx := newStackTx(raw, cfg)

		require.NotNil(t, tx)
		assert.Equal(t, raw, tx.tx)
		assert.Equal(t, cfg, tx.cfg)
	})
}

func TestStackTx_Commit(t *testing.T) {
	tests := []struct {
		name      string
		commitErr error
		wantErr   assert.ErrorAssertionFunc
	}{
		{
			name:      "given successful commit, then returns nil",
			commitErr: nil,
			wantErr:   assert.NoError,
		},
		{
			name:      "given commit error, then returns error",
			commitErr: assert.AnError,
			wantErr:   assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &recordingTx{commitErr: tt.commitErr}
			cfg := newConfig(WithDBSystem("postgresql"))
			tx := newStackTx(raw, cfg)

			err := tx.Commit()

			tt.wantErr(t, err)
			assert.Equal(t, 1, raw.commits)
		})
	}
}

func TestStackTx_Rollback(t *testing.T) {
	tests := []struct {
		name        string
		rollbackErr error
		wantErr     assert.ErrorAssertionFunc
	}{
		{
			name:        "given successful rollback, then returns nil",
			rollbackErr: nil,
			wantErr:     assert.NoError,
		},
		{
			name:        "given rollback error, then returns error",
			rollbackErr: assert.AnError,
			wantErr:     assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &recordingTx{rollbackErr: tt.rollbackErr}
			cfg := newConfig(WithDBSystem("postgresql"))
			tx := newStackTx(raw, cfg)

			err := tx.Rollback()

			tt.wantErr(t, err)
			assert.Equal(t, 1, raw.rollbacks)
		})
	}
}
