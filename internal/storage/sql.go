package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/deusflow/newsclip/internal/news"
)

const newsTable = "clipped_news"

// schema works unchanged on SQLite and PostgreSQL. Times are unix seconds.
const schema = `
CREATE TABLE IF NOT EXISTS clipped_news (
	url TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source TEXT,
	media_name TEXT,
	category TEXT,
	relevance_score INTEGER,
	importance_score INTEGER,
	published_at BIGINT,
	collected_at BIGINT NOT NULL,
	processed_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clipped_news_processed_at ON clipped_news(processed_at);
`

const upsertSuffix = `ON CONFLICT (url) DO UPDATE SET
	title = excluded.title,
	source = excluded.source,
	media_name = excluded.media_name,
	category = excluded.category,
	relevance_score = excluded.relevance_score,
	importance_score = excluded.importance_score,
	published_at = excluded.published_at,
	collected_at = excluded.collected_at,
	processed_at = excluded.processed_at`

// sqlStore is the dialect-neutral part of the SQLite and PostgreSQL stores.
type sqlStore struct {
	db         *sql.DB
	sb         sq.StatementBuilderType
	urlIn      func(urls []string) sq.Sqlizer
	chunkSize  int
	seenWindow time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Debug("✅ Database schema initialized")
	return nil
}

func (s *sqlStore) IsSeen(ctx context.Context, url string) (bool, error) {
	seen, err := s.FilterSeen(ctx, []string{url})
	if err != nil {
		return false, err
	}
	return seen[url], nil
}

func (s *sqlStore) FilterSeen(ctx context.Context, urls []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	cutoff := s.now().Add(-s.seenWindow).Unix()

	for start := 0; start < len(urls); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(urls) {
			end = len(urls)
		}
		query, args, err := s.sb.Select("url").
			From(newsTable).
			Where(s.urlIn(urls[start:end])).
			Where(sq.GtOrEq{"processed_at": cutoff}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build seen query: %w", err)
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query seen urls: %w", err)
		}
		for rows.Next() {
			var url string
			if err := rows.Scan(&url); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan seen url: %w", err)
			}
			seen[url] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate seen urls: %w", err)
		}
	}
	return seen, nil
}

func (s *sqlStore) RecordSeen(ctx context.Context, articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	processed := s.now().Unix()
	for _, a := range articles {
		query, args, err := s.sb.Insert(newsTable).
			Columns("url", "title", "source", "media_name", "category",
				"relevance_score", "importance_score", "published_at", "collected_at", "processed_at").
			Values(a.URL, a.Title, a.Source, a.MediaName, a.Category,
				nullInt(a.RelevanceScore), nullInt(a.ImportanceScore), nullUnix(a.PublishedAt),
				a.CollectedAt.Unix(), processed).
			Suffix(upsertSuffix).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("record %s: %w", a.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record tx: %w", err)
	}
	s.logger.Info("💾 Recorded articles", "count", len(articles))
	return nil
}

func (s *sqlStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	query, args, err := s.sb.Delete(newsTable).Where(sq.Lt{"processed_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge: %w", err)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		s.logger.Info("🗑️ Cleaned up old records", "rows", rows, "days", days)
	}
	return rows, nil
}

func (s *sqlStore) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	query, args, err := s.sb.Select("COUNT(*)").From(newsTable).ToSql()
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	stats["total_items"] = total

	cutoff := s.now().Add(-s.seenWindow).Unix()
	query, args, err = s.sb.Select("COALESCE(category, '')", "COUNT(*)").
		From(newsTable).
		Where(sq.GtOrEq{"processed_at": cutoff}).
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	active := 0
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		if category == "" {
			category = "general"
		}
		stats["category_"+category] += count
		active += count
	}
	stats["active_items"] = active
	return stats, rows.Err()
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
