package database

import "context"

// User is the demo row type.
type User struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// CreateTable creates the users table if it doesn't exist
func (db *DB) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100),
			email VARCHAR(100)
		)
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// InsertUser inserts one user via a named query.
func (db *DB) InsertUser(ctx context.Context, user User) error {
	_, err := db.NamedExecContext(ctx,
		"INSERT INTO users (name, email) VALUES (:name, :email) ON CONFLICT DO NOTHING",
		user,
	)
	return err
}

// ListUsers selects all users, newest first.
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := db.SelectContext(ctx, &users,
		"SELECT id, name, email FROM users ORDER BY id DESC LIMIT 10")
	return users, err
}

// CountUsers returns the user count inside a transaction, so the demo also
// exercises annotated transactional statements.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT count(*) FROM users"); err != nil {
		return 0, err
	}
	return count, tx.Commit()
}
