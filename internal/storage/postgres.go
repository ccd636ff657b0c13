package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// PostgresStore keeps processed articles in PostgreSQL, for deployments that
// already run a database.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new PostgreSQL store instance
func NewPostgresStore(ctx context.Context, connectionString string, seenWindow time.Duration, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if seenWindow <= 0 {
		seenWindow = DefaultSeenWindow
	}
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{sqlStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		urlIn: func(urls []string) sq.Sqlizer {
			return sq.Expr("url = ANY(?)", pq.Array(urls))
		},
		chunkSize:  5000,
		seenWindow: seenWindow,
		now:        time.Now,
		logger:     logger,
	}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("✅ PostgreSQL store connected successfully")
	return s, nil
}
