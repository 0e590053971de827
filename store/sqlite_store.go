package store

import (
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateTableStmt = `
CREATE TABLE IF NOT EXISTS channel_threads (
    channel_id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`
	sqliteGetStmt    = `SELECT thread_id FROM channel_threads WHERE channel_id = ?;`
	sqliteUpsertStmt = `INSERT INTO channel_threads (channel_id, thread_id, updated_at) VALUES (?, ?, ?) ON CONFLICT(channel_id) DO UPDATE SET thread_id = excluded.thread_id, updated_at = excluded.updated_at;`
	sqliteDeleteStmt = `DELETE FROM channel_threads WHERE channel_id = ?;`
)

var sqliteStatements = statements{
	createTable: sqliteCreateTableStmt,
	get:         sqliteGetStmt,
	upsert:      sqliteUpsertStmt,
	delete:      sqliteDeleteStmt,
}

// NewSQLiteStore opens (creating if needed) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLStore, error) {
	s, err := newSQLStore("sqlite3", dbPath, sqliteStatements, logger)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway; one connection avoids "database is locked".
	s.db.SetMaxOpenConns(1)
	return s, nil
}
