package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the default store: a single local database file.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, seenWindow time.Duration, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if seenWindow <= 0 {
		seenWindow = DefaultSeenWindow
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" on one database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{sqlStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		urlIn: func(urls []string) sq.Sqlizer {
			return sq.Eq{"url": urls}
		},
		chunkSize:  500,
		seenWindow: seenWindow,
		now:        time.Now,
		logger:     logger,
	}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("✅ SQLite store ready", "path", path)
	return s, nil
}
