package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// statements holds the dialect-specific SQL for one backend.
type statements struct {
	createTable string
	get         string
	upsert      string
	delete      string
}

// SQLStore is a ConversationStore on top of database/sql. The SQLite, DuckDB
// and Postgres backends differ only in driver name and statements.
type SQLStore struct {
	db     *sql.DB
	stmts  statements
	name   string
	logger *slog.Logger
}

func newSQLStore(driverName, dsn string, stmts statements, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s データベースへの接続に失敗しました: %w", driverName, err)
	}
	return initSQLStore(db, driverName, stmts, logger)
}

func initSQLStore(db *sql.DB, name string, stmts statements, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.Exec(stmts.createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("channel_threads テーブルの作成に失敗しました: %w", err)
	}
	logger.Info("conversation store ready", "driver", name)
	return &SQLStore{db: db, stmts: stmts, name: name, logger: logger}, nil
}

func (s *SQLStore) Get(ctx context.Context, channelID string) (string, bool, error) {
	var threadID string
	err := s.db.QueryRowContext(ctx, s.stmts.get, channelID).Scan(&threadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("チャンネル %s のスレッド取得に失敗しました: %w", channelID, err)
	}
	return threadID, true, nil
}

func (s *SQLStore) Set(ctx context.Context, channelID, threadID string) error {
	if _, err := s.db.ExecContext(ctx, s.stmts.upsert, channelID, threadID, time.Now().UTC()); err != nil {
		return fmt.Errorf("チャンネル %s のスレッド保存に失敗しました: %w", channelID, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, channelID string) error {
	result, err := s.db.ExecContext(ctx, s.stmts.delete, channelID)
	if err != nil {
		return fmt.Errorf("チャンネル %s のスレッド削除に失敗しました: %w", channelID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("could not read affected rows", "driver", s.name, "error", err)
	} else if rowsAffected == 0 {
		s.logger.Debug("no mapping to delete", "driver", s.name, "channel_id", channelID)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		s.logger.Info("closing conversation store", "driver", s.name)
		return s.db.Close()
	}
	return nil
}
