// Scope-and-sqlx demo. The sqlx wrapper annotates unconditionally; the
// scope package shows the bounded form, where annotation is active only
// between guard enter and exit, plus a debug query log of what actually
// went to the database.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/querytrail/querytrail-go/example/sqlx/internal/database"
	"github.com/querytrail/querytrail-go/scope"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("could not load .env")
	}

	db, err := database.New(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer db.Close()

	if err := db.CreateTable(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create table")
	}

	// Always-on mode: these run annotated because the sqlx wrapper
	// annotates every statement-bearing call.
	if err := db.InsertUser(ctx, database.User{Name: "Alice", Email: "alice@example.com"}); err != nil {
		logger.Fatal().Err(err).Msg("insert failed")
	}
	users, err := db.ListUsers(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list failed")
	}
	logger.Info().Int("users", len(users)).Msg("listed users (always-on mode)")

	count, err := db.CountUsers(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("count failed")
	}
	logger.Info().Int("count", count).Msg("counted users in a transaction")

	// Scoped mode: annotation only while the guard is active, with a
	// debug cursor recording each executed statement.
	conn := scope.NewConnection(db.DB.DB.DB,
		scope.WithDebug(),
		scope.WithLogger(logger),
	)

	err = scope.With(conn, func() error {
		cur, err := conn.Cursor(ctx)
		if err != nil {
			return err
		}
		defer cur.Close()

		rows, err := cur.Query(ctx, "SELECT name FROM users WHERE email LIKE '%example.com'")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
		}
		return rows.Err()
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("scoped query failed")
	}

	for _, rec := range conn.Queries() {
		logger.Info().
			Str("sql", rec.SQL).
			Dur("duration", rec.Duration).
			Msg("debug query log entry")
	}
}
