package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newSQLite(t *testing.T, c *clock) Store {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "news.db"), DefaultSeenWindow, nil)
	require.NoError(t, err)
	s.now = c.now
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newFile(t *testing.T, c *clock) Store {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "seen.json"), DefaultSeenWindow, nil)
	require.NoError(t, s.Load())
	s.now = c.now
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]func(*testing.T, *clock) Store{
		"sqlite": newSQLite,
		"file":   newFile,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
			store := open(t, c)
			ctx := context.Background()

			published := c.t.Add(-3 * time.Hour)
			articles := []news.Article{
				{URL: "https://idomin.com/1", Title: "accepted", Category: "policy", CollectedAt: c.t,
					RelevanceScore: news.Score(80), ImportanceScore: news.Score(4), PublishedAt: &published},
				{URL: "https://example.com/2", Title: "rejected", CollectedAt: c.t},
			}
			require.NoError(t, store.RecordSeen(ctx, articles))

			seen, err := store.IsSeen(ctx, "https://idomin.com/1")
			require.NoError(t, err)
			assert.True(t, seen)

			seen, err = store.IsSeen(ctx, "https://unknown.example/3")
			require.NoError(t, err)
			assert.False(t, seen)

			filtered, err := store.FilterSeen(ctx, []string{"https://idomin.com/1", "https://example.com/2", "https://new/3"})
			require.NoError(t, err)
			assert.Equal(t, map[string]bool{"https://idomin.com/1": true, "https://example.com/2": true}, filtered)

			// Re-recording the same URL is an upsert.
			require.NoError(t, store.RecordSeen(ctx, articles[:1]))
			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, stats["total_items"])
			assert.Equal(t, 2, stats["active_items"])

			// Past the seen window the URL may be processed again.
			c.t = c.t.Add(8 * 24 * time.Hour)
			seen, err = store.IsSeen(ctx, "https://idomin.com/1")
			require.NoError(t, err)
			assert.False(t, seen)

			removed, err := store.PurgeOlderThan(ctx, 30)
			require.NoError(t, err)
			assert.Equal(t, int64(0), removed)

			c.t = c.t.Add(23 * 24 * time.Hour)
			removed, err = store.PurgeOlderThan(ctx, 30)
			require.NoError(t, err)
			assert.Equal(t, int64(2), removed)

			stats, err = store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, stats["total_items"])
		})
	}
}

func TestFileStoreReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	first := NewFileStore(path, DefaultSeenWindow, nil)
	require.NoError(t, first.RecordSeen(context.Background(), []news.Article{{URL: "https://a/1", Title: "a"}}))

	second := NewFileStore(path, DefaultSeenWindow, nil)
	require.NoError(t, second.Load())
	seen, err := second.IsSeen(context.Background(), "https://a/1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestOpenChoosesBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, filepath.Join(dir, "seen.json"), 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, filepath.Join(dir, "news.db"), 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "", 0, nil)
	assert.Error(t, err)
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "idomin.com", extractDomain("https://www.idomin.com/news/1"))
	assert.Equal(t, "unknown", extractDomain(""))
}
