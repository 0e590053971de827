// Package store persists the association between a chat channel and the
// assistant thread that holds its conversation.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrUnknownDriver is returned by Open for a driver name it does not know.
var ErrUnknownDriver = errors.New("unknown store driver")

// ConversationStore maps channel IDs to thread IDs. Values are plain strings
// with no expiry.
type ConversationStore interface {
	Get(ctx context.Context, channelID string) (threadID string, ok bool, err error)
	Set(ctx context.Context, channelID, threadID string) error
	Delete(ctx context.Context, channelID string) error
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. An empty dsn selects the driver's
// default location under data/.
func Open(driver, dsn string, logger *slog.Logger) (ConversationStore, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		if dsn == "" {
			dsn = filepath.Join("data", "conversations.db")
		}
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		return NewSQLiteStore(dsn, logger)
	case DriverDuckDB:
		if dsn == "" {
			dsn = filepath.Join("data", "conversations.duckdb")
		}
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		return NewDuckDBStore(dsn, logger)
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("postgres store requires STORE_DSN")
		}
		return NewPostgresStore(dsn, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("データディレクトリの作成に失敗しました: %w", err)
	}
	return nil
}
