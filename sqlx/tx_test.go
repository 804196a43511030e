package sqlx

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querytrail/querytrail-go/stacktrace"
)

func beginCaptureTx(t *testing.T, opts ...Option) (*Tx, sqlmock.Sqlmock, *sqlCapture) {
	t.Helper()

	db, mock, capture := newCaptureDB(t, opts...)
	mock.ExpectBegin()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	return tx, mock, capture
}

func TestTx_ExecContext(t *testing.T) {
	t.Run("given statement in transaction, then SQL is annotated", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		query := "INSERT INTO audit (action) VALUES (?)"
		_, err := tx.ExecContext(context.Background(), query, "login")
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assertAnnotated(t, query, capture.last())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given disabled config, then transaction SQL passes through", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t, WithDisabled())
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		query := "INSERT INTO audit (action) VALUES (?)"
		_, err := tx.ExecContext(context.Background(), query, "login")
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		assert.Equal(t, query, capture.last())
	})
}

func TestTx_QueryMethods(t *testing.T) {
	t.Run("given get in transaction, then annotated query fills destination", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"balance"}).AddRow(100))
		mock.ExpectCommit()

		query := "SELECT balance FROM accounts WHERE id = ? FOR UPDATE"
		var balance int
		require.NoError(t, tx.GetContext(context.Background(), &balance, query, 1))
		require.NoError(t, tx.Commit())

		assert.Equal(t, 100, balance)
		assertAnnotated(t, query, capture.last())
	})

	t.Run("given select in transaction, then annotated query fills slice", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectCommit()

		query := "SELECT id FROM accounts"
		var ids []int
		require.NoError(t, tx.SelectContext(context.Background(), &ids, query))
		require.NoError(t, tx.Commit())

		assert.Equal(t, []int{1, 2}, ids)
		assertAnnotated(t, query, capture.last())
	})

	t.Run("given queryrowx in transaction, then annotates", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		query := "SELECT id FROM accounts LIMIT 1"
		var id int
		require.NoError(t, tx.QueryRowxContext(context.Background(), query).Scan(&id))
		require.NoError(t, tx.Commit())

		assertAnnotated(t, query, capture.last())
	})
}

func TestTx_NamedExecContext(t *testing.T) {
	t.Run("given named exec in transaction, then binds before annotating", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		_, err := tx.NamedExecContext(context.Background(),
			"UPDATE accounts SET balance = :balance WHERE id = :id",
			map[string]interface{}{"balance": 50, "id": 1},
		)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		got := capture.last()
		require.True(t, strings.HasPrefix(got, "UPDATE accounts SET balance = ? WHERE id = ?"), got)
		assert.Equal(t, 1, strings.Count(got, stacktrace.Marker))
	})
}

func TestTx_Preparex(t *testing.T) {
	t.Run("given preparex in transaction, then statement is annotated once", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectPrepare("")
		mock.ExpectCommit()

		query := "SELECT id FROM accounts WHERE id = ?"
		stmt, err := tx.PreparexContext(context.Background(), query)
		require.NoError(t, err)
		defer stmt.Close()
		require.NoError(t, tx.Commit())

		assertAnnotated(t, query, capture.last())
	})
}

func TestTx_Rollback(t *testing.T) {
	t.Run("given rollback, then delegates and records", func(t *testing.T) {
		tx, mock, _ := beginCaptureTx(t)
		mock.ExpectRollback()

		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTx_Passthroughs(t *testing.T) {
	t.Run("given helpers, then delegate without annotation", func(t *testing.T) {
		tx, mock, capture := beginCaptureTx(t)
		mock.ExpectCommit()

		assert.Equal(t, "sqlmock", tx.DriverName())
		assert.Equal(t, "SELECT 1", tx.Rebind("SELECT 1"))

		bound, args, err := tx.BindNamed("SELECT :v", map[string]interface{}{"v": 1})
		require.NoError(t, err)
		assert.Equal(t, "SELECT ?", bound)
		assert.Equal(t, []interface{}{1}, args)

		unsafe := tx.Unsafe()
		assert.Same(t, tx.cfg, unsafe.cfg)

		require.NoError(t, tx.Commit())
		assert.Empty(t, capture.queries)
	})
}
