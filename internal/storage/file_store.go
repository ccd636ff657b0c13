package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/deusflow/newsclip/internal/news"
)

// SeenRecord is one processed article as kept in the JSON file.
type SeenRecord struct {
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Source          string     `json:"source"`
	MediaName       string     `json:"media_name"`
	Category        string     `json:"category"`
	RelevanceScore  *int       `json:"relevance_score,omitempty"`
	ImportanceScore *int       `json:"importance_score,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CollectedAt     time.Time  `json:"collected_at"`
	ProcessedAt     time.Time  `json:"processed_at"`
}

// FileStore manages processed articles in a JSON file. It suits single
// process deployments without a database.
type FileStore struct {
	filePath   string
	seenWindow time.Duration
	items      map[string]SeenRecord
	mu         sync.RWMutex
	now        func() time.Time
	logger     *slog.Logger
}

// NewFileStore creates a new file store instance
func NewFileStore(filePath string, seenWindow time.Duration, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	if seenWindow <= 0 {
		seenWindow = DefaultSeenWindow
	}
	return &FileStore{
		filePath:   filePath,
		seenWindow: seenWindow,
		items:      make(map[string]SeenRecord),
		now:        time.Now,
		logger:     logger,
	}
}

// Load loads existing records from file
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SeenRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal store: %w", err)
	}
	for _, item := range items {
		fs.items[item.URL] = item
	}
	fs.logger.Debug("Loaded file store", "path", fs.filePath, "items", len(items))
	return nil
}

// save writes the records; callers hold the lock.
func (fs *FileStore) save() error {
	items := make([]SeenRecord, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func (fs *FileStore) IsSeen(_ context.Context, url string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.seenLocked(url), nil
}

func (fs *FileStore) seenLocked(url string) bool {
	item, exists := fs.items[url]
	if !exists {
		return false
	}
	return !item.ProcessedAt.Before(fs.now().Add(-fs.seenWindow))
}

func (fs *FileStore) FilterSeen(_ context.Context, urls []string) (map[string]bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	seen := make(map[string]bool)
	for _, url := range urls {
		if fs.seenLocked(url) {
			seen[url] = true
		}
	}
	return seen, nil
}

func (fs *FileStore) RecordSeen(_ context.Context, articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	processed := fs.now()
	for _, a := range articles {
		rec := SeenRecord{
			URL:         a.URL,
			Title:       a.Title,
			Source:      a.Source,
			MediaName:   a.MediaName,
			Category:    a.Category,
			CollectedAt: a.CollectedAt,
			ProcessedAt: processed,
		}
		if a.RelevanceScore != nil {
			rec.RelevanceScore = news.Score(*a.RelevanceScore)
		}
		if a.ImportanceScore != nil {
			rec.ImportanceScore = news.Score(*a.ImportanceScore)
		}
		if a.PublishedAt != nil {
			t := *a.PublishedAt
			rec.PublishedAt = &t
		}
		fs.items[a.URL] = rec
	}
	if err := fs.save(); err != nil {
		return err
	}
	fs.logger.Info("💾 Recorded articles", "count", len(articles))
	return nil
}

func (fs *FileStore) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cutoff := fs.now().Add(-time.Duration(days) * 24 * time.Hour)
	var removed int64
	for url, item := range fs.items {
		if item.ProcessedAt.Before(cutoff) {
			delete(fs.items, url)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := fs.save(); err != nil {
		return 0, err
	}
	fs.logger.Info("🗑️ Cleaned up old records", "rows", removed, "days", days)
	return removed, nil
}

// Stats counts records in total and per domain.
func (fs *FileStore) Stats(_ context.Context) (map[string]int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	stats := map[string]int{"total_items": len(fs.items)}
	active := 0
	for url, item := range fs.items {
		if fs.seenLocked(url) {
			active++
		}
		stats["domain_"+extractDomain(item.URL)]++
	}
	stats["active_items"] = active
	return stats, nil
}

func (fs *FileStore) Close() error { return nil }
