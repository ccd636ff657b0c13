package scoring

import (
	"context"
	"log/slog"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
)

const (
	DefaultRelevanceThreshold = 60
	maxImportance             = 5
)

// Oracle is the part of the oracle client the coordinator needs.
type Oracle interface {
	Classify(ctx context.Context, req oracle.ClassifyRequest) oracle.Classification
	ClassifyBatch(ctx context.Context, reqs []oracle.ClassifyRequest, batchSize int) []oracle.Classification
	Summarize(ctx context.Context, req oracle.SummarizeRequest) oracle.Summary
}

// Enricher fetches article bodies before summarization.
type Enricher interface {
	Enrich(ctx context.Context, articles []news.Article) []news.Article
}

type Options struct {
	RelevanceThreshold int
	UseBatch           bool
	BatchSize          int
	Summarize          bool
}

// Coordinator runs classification and summarization over a batch of articles
// and splits it into accepted and rejected records.
type Coordinator struct {
	oracle   Oracle
	priority news.PriorityTable
	enricher Enricher
	logger   *slog.Logger
}

func NewCoordinator(o Oracle, priority news.PriorityTable, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		oracle:   o,
		priority: priority,
		logger:   logger.With("component", "scoring"),
	}
}

// WithEnricher sets the body fetcher used for accepted articles before summaries.
func (c *Coordinator) WithEnricher(e Enricher) *Coordinator {
	c.enricher = e
	return c
}

// ClassifyAndFilter classifies every article, accepts those the oracle marks
// relevant with a score at or above the threshold, applies the priority media
// bonus to accepted ones and optionally summarizes them. Inputs are not
// modified; returned records are fresh copies carrying the oracle's scores.
func (c *Coordinator) ClassifyAndFilter(ctx context.Context, articles []news.Article, opts Options) (accepted, rejected []news.Article) {
	if len(articles) == 0 {
		return nil, nil
	}

	reqs := make([]oracle.ClassifyRequest, len(articles))
	for i, a := range articles {
		reqs[i] = oracle.ClassifyRequest{Title: a.Title, Description: a.Description, CategoryHint: a.Category}
	}

	var verdicts []oracle.Classification
	if opts.UseBatch {
		c.logger.Info("📦 Batch classification", "articles", len(articles), "batch_size", opts.BatchSize)
		verdicts = c.oracle.ClassifyBatch(ctx, reqs, opts.BatchSize)
	} else {
		verdicts = make([]oracle.Classification, len(reqs))
		for i, req := range reqs {
			c.logger.Debug("Classifying", "n", i+1, "of", len(reqs), "title", req.Title)
			verdicts[i] = c.oracle.Classify(ctx, req)
		}
	}

	for i, a := range articles {
		v := verdicts[i]
		scored := a.Clone()
		scored.RelevanceScore = news.Score(v.RelevanceScore)
		scored.ImportanceScore = news.Score(v.ImportanceScore)
		if v.Category != "" {
			scored.Category = v.Category
		}

		if !v.IsRelevant || v.RelevanceScore < opts.RelevanceThreshold {
			c.logger.Debug("❌ Rejected", "title", a.Title, "relevance", v.RelevanceScore, "reason", v.Reason)
			rejected = append(rejected, scored)
			continue
		}

		if bonus := c.priority.Bonus(a.URL); bonus > 0 {
			boosted := v.ImportanceScore + bonus
			if boosted > maxImportance {
				boosted = maxImportance
			}
			if boosted > v.ImportanceScore {
				scored.ImportanceScore = news.Score(boosted)
			}
		}
		c.logger.Debug("✅ Accepted", "title", a.Title, "relevance", v.RelevanceScore, "importance", scored.Importance())
		accepted = append(accepted, scored)
	}

	c.logger.Info("🔎 Classification done", "accepted", len(accepted), "rejected", len(rejected))

	if opts.Summarize && len(accepted) > 0 {
		if c.enricher != nil {
			accepted = c.enricher.Enrich(ctx, accepted)
		}
		for i := range accepted {
			a := &accepted[i]
			s := c.oracle.Summarize(ctx, oracle.SummarizeRequest{
				Title:    a.Title,
				Content:  bodyOf(*a),
				Category: a.Category,
			})
			a.OneLineSummary = s.OneLineSummary
			d := s.DetailedSummary
			d.ActionItems = append([]string{}, d.ActionItems...)
			a.DetailedSummary = &d
			a.Keywords = append([]string{}, s.Keywords...)
		}
	}
	return accepted, rejected
}

// bodyOf prefers fetched content over the feed description.
func bodyOf(a news.Article) string {
	if a.Content != "" {
		return a.Content
	}
	return a.Description
}
