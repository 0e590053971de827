package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

var postgresStatements = statements{
	createTable: `
		CREATE TABLE IF NOT EXISTS channel_threads (
			channel_id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	get:    `SELECT thread_id FROM channel_threads WHERE channel_id = $1`,
	upsert: postgresUpsert,
	delete: `DELETE FROM channel_threads WHERE channel_id = $1`,
}

const postgresUpsert = `
		INSERT INTO channel_threads (channel_id, thread_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			updated_at = EXCLUDED.updated_at`

// NewPostgresStore connects to dsn and makes sure the table exists.
func NewPostgresStore(dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping error: %w", err)
	}
	return initSQLStore(db, "postgres", postgresStatements, logger)
}
