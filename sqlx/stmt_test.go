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

func prepareCaptureStmt(t *testing.T, query string) (*Stmt, sqlmock.Sqlmock, *sqlCapture) {
	t.Helper()

	db, mock, capture := newCaptureDB(t)
	mock.ExpectPrepare("")

	stmt, err := db.PreparexContext(context.Background(), query)
	require.NoError(t, err)
	t.Cleanup(func() { stmt.Close() })

	return stmt, mock, capture
}

func TestStmt_ExecContext(t *testing.T) {
	t.Run("given prepared statement, then executions reuse the annotated text", func(t *testing.T) {
		stmt, mock, capture := prepareCaptureStmt(t, "UPDATE users SET name = ? WHERE id = ?")
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(0, 1))

		prepared := capture.last()
		assertAnnotated(t, "UPDATE users SET name = ? WHERE id = ?", prepared)

		_, err := stmt.ExecContext(context.Background(), "ada", 1)
		require.NoError(t, err)
		_, err = stmt.ExecContext(context.Background(), "grace", 2)
		require.NoError(t, err)

		// Repeated execution never grows a second marker: the statement text
		// was fixed at prepare time.
		assert.Equal(t, 1, strings.Count(stmt.query, stacktrace.Marker))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStmt_QueryMethods(t *testing.T) {
	t.Run("given get, then scans through prepared statement", func(t *testing.T) {
		stmt, mock, _ := prepareCaptureStmt(t, "SELECT name FROM users WHERE id = ?")
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"name"}).AddRow("ada"))

		var name string
		require.NoError(t, stmt.GetContext(context.Background(), &name, 1))
		assert.Equal(t, "ada", name)
	})

	t.Run("given select, then scans all rows", func(t *testing.T) {
		stmt, mock, _ := prepareCaptureStmt(t, "SELECT name FROM users")
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"name"}).AddRow("ada").AddRow("grace"))

		var names []string
		require.NoError(t, stmt.SelectContext(context.Background(), &names))
		assert.Equal(t, []string{"ada", "grace"}, names)
	})

	t.Run("given queryx, then returns sqlx rows", func(t *testing.T) {
		stmt, mock, _ := prepareCaptureStmt(t, "SELECT id, name FROM users")
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ada"))

		rows, err := stmt.QueryxContext(context.Background())
		require.NoError(t, err)
		defer rows.Close()

		require.True(t, rows.Next())
	})

	t.Run("given queryrow, then scans single row", func(t *testing.T) {
		stmt, mock, _ := prepareCaptureStmt(t, "SELECT count(*) FROM users")
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"count"}).AddRow(3))

		var count int
		require.NoError(t, stmt.QueryRowContext(context.Background()).Scan(&count))
		assert.Equal(t, 3, count)
	})
}

func TestStmt_Unsafe(t *testing.T) {
	t.Run("given unsafe, then keeps annotated query and config", func(t *testing.T) {
		stmt, _, _ := prepareCaptureStmt(t, "SELECT name FROM users")

		unsafe := stmt.Unsafe()
		assert.Equal(t, stmt.query, unsafe.query)
		assert.Same(t, stmt.cfg, unsafe.cfg)
	})
}

func TestNamedStmt(t *testing.T) {
	t.Run("given named statement, then executes with intact named binding", func(t *testing.T) {
		db, mock, capture := newCaptureDB(t)
		mock.ExpectPrepare("")
		mock.ExpectExec("").WillReturnResult(sqlmock.NewResult(1, 1))

		stmt, err := db.PrepareNamedContext(context.Background(),
			"INSERT INTO users (name) VALUES (:name)")
		require.NoError(t, err)
		defer stmt.Close()

		_, err = stmt.ExecContext(context.Background(),
			map[string]interface{}{"name": "ada"})
		require.NoError(t, err)

		// Named statements prepare from the raw query and stay unannotated.
		assert.False(t, stacktrace.HasMarker(capture.last()))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given named get, then scans destination", func(t *testing.T) {
		db, mock, _ := newCaptureDB(t)
		mock.ExpectPrepare("")
		mock.ExpectQuery("").WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow(1))

		stmt, err := db.PrepareNamedContext(context.Background(),
			"SELECT id FROM users WHERE name = :name")
		require.NoError(t, err)
		defer stmt.Close()

		var id int
		require.NoError(t, stmt.GetContext(context.Background(), &id,
			map[string]interface{}{"name": "ada"}))
		assert.Equal(t, 1, id)
	})
}
