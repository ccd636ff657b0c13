package app

import (
	"context"
	"time"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/deusflow/newsclip/internal/scoring"
)

// Collector provides raw articles. rss.Collector implements it.
type Collector interface {
	Fetch(ctx context.Context, query string, window time.Duration) ([]news.RawArticle, error)
	FetchFeeds(ctx context.Context, urls []string, window time.Duration) []news.RawArticle
}

// SeenStore remembers processed URLs across runs. Every storage backend implements it.
type SeenStore interface {
	FilterSeen(ctx context.Context, urls []string) (map[string]bool, error)
	RecordSeen(ctx context.Context, articles []news.Article) error
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// Publisher delivers the ranked articles and the insight.
type Publisher interface {
	Publish(ctx context.Context, ranked []news.Article, insight oracle.Insight) (news.PublishResult, error)
}

// Scorer splits articles into accepted and rejected ones.
type Scorer interface {
	ClassifyAndFilter(ctx context.Context, articles []news.Article, opts scoring.Options) (accepted, rejected []news.Article)
}

type Deduplicator interface {
	Deduplicate(articles []news.Article, threshold float64) []news.Article
}

type InsightSynthesizer interface {
	Synthesize(ctx context.Context, ranked []news.Article) oracle.Insight
}

// Budget is reset at the start of every run.
type Budget interface {
	Reset()
}

// Deps wires the pipeline's collaborators. Budget may be nil.
type Deps struct {
	Collector Collector
	Store     SeenStore
	Publisher Publisher
	Scorer    Scorer
	Dedup     Deduplicator
	Insight   InsightSynthesizer
	Budget    Budget
}
