package store

import (
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

const duckdbCreateTableSQL = `
	CREATE TABLE IF NOT EXISTS channel_threads (
		channel_id VARCHAR PRIMARY KEY,
		thread_id VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`

// DuckDB supports UPSERT (ON CONFLICT DO UPDATE) on the primary key.
const duckdbUpsertSQL = `
	INSERT INTO channel_threads (channel_id, thread_id, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (channel_id) DO UPDATE SET
		thread_id = excluded.thread_id,
		updated_at = excluded.updated_at;`

var duckdbStatements = statements{
	createTable: duckdbCreateTableSQL,
	get:         "SELECT thread_id FROM channel_threads WHERE channel_id = ?;",
	upsert:      duckdbUpsertSQL,
	delete:      "DELETE FROM channel_threads WHERE channel_id = ?;",
}

// NewDuckDBStore opens (creating if needed) the DuckDB database at dbPath.
func NewDuckDBStore(dbPath string, logger *slog.Logger) (*SQLStore, error) {
	return newSQLStore("duckdb", dbPath, duckdbStatements, logger)
}
