package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/newsclip/internal/news"
)

const (
	DefaultSeenWindow    = 7 * 24 * time.Hour
	DefaultRetentionDays = 30
)

// Store remembers processed article URLs so later runs skip them.
type Store interface {
	// IsSeen reports whether url was recorded within the seen window.
	IsSeen(ctx context.Context, url string) (bool, error)
	// FilterSeen returns the subset of urls recorded within the seen window.
	FilterSeen(ctx context.Context, urls []string) (map[string]bool, error)
	// RecordSeen upserts the articles with the current time as processed_at.
	RecordSeen(ctx context.Context, articles []news.Article) error
	// PurgeOlderThan deletes records processed more than days ago.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	Stats(ctx context.Context) (map[string]int, error)
	Close() error
}

// Open picks the backend from dsn: postgres:// URLs use PostgreSQL, paths
// ending in .json use the JSON file store, anything else is a SQLite path.
func Open(ctx context.Context, dsn string, seenWindow time.Duration, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if seenWindow <= 0 {
		seenWindow = DefaultSeenWindow
	}
	logger = logger.With("component", "storage")

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, seenWindow, logger)
	case strings.HasSuffix(dsn, ".json"):
		fs := NewFileStore(dsn, seenWindow, logger)
		if err := fs.Load(); err != nil {
			return nil, err
		}
		return fs, nil
	case dsn == "":
		return nil, fmt.Errorf("store dsn is empty")
	default:
		return NewSQLiteStore(ctx, dsn, seenWindow, logger)
	}
}

// extractDomain extracts domain from URL
func extractDomain(url string) string {
	if url == "" {
		return "unknown"
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	domain, _, _ := strings.Cut(url, "/")
	if domain == "" {
		return "unknown"
	}
	domain = strings.TrimPrefix(domain, "www.")
	return strings.ToLower(domain)
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*FileStore)(nil)
)
