package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/newsclip/internal/metrics"
	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/deusflow/newsclip/internal/ranking"
	"github.com/deusflow/newsclip/internal/rss"
	"github.com/deusflow/newsclip/internal/scoring"
)

// Period selects how far back a run looks.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
)

// PeriodAt picks the period for a run started at t.
func PeriodAt(t time.Time, afternoonStartHour int) Period {
	if t.Hour() < afternoonStartHour {
		return Morning
	}
	return Afternoon
}

// ParsePeriod accepts "morning", "afternoon" or "evening". An empty string
// returns "" so the caller can fall back to PeriodAt.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "morning":
		return Morning, nil
	case "afternoon", "evening":
		return Afternoon, nil
	default:
		return "", fmt.Errorf("unknown period %q (want morning or afternoon)", s)
	}
}

// Settings are the run parameters taken from config.
type Settings struct {
	Combinations        []rss.KeywordCombination
	Feeds               []string
	MorningWindow       time.Duration
	AfternoonWindow     time.Duration
	AllowedDomains      []string
	Scoring             scoring.Options
	SimilarityThreshold float64
	RetentionDays       int
	// DryRun skips publishing and does not record anything as seen.
	DryRun bool
}

func (s Settings) window(p Period) time.Duration {
	if p == Afternoon {
		return s.AfternoonWindow
	}
	return s.MorningWindow
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Period     Period
	Window     time.Duration
	Collected  int
	Fresh      int
	Accepted   int
	Rejected   int
	Duplicates int
	Ranked     []news.Article
	Insight    oracle.Insight
	Published  news.PublishResult
	Purged     int64
	Duration   time.Duration
}

// Pipeline runs collect, filter, score, dedup, rank, insight and publish.
type Pipeline struct {
	deps     Deps
	settings Settings
	now      func() time.Time
	logger   *slog.Logger
}

func NewPipeline(deps Deps, settings Settings, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, settings: settings, now: time.Now, logger: logger}
}

// Run executes one clipping run. Oracle failures never abort it; collector,
// store and publisher failures are returned.
func (p *Pipeline) Run(ctx context.Context, period Period) (*Report, error) {
	start := p.now()
	if period == "" {
		period = Morning
	}
	report := &Report{RunID: uuid.NewString(), Period: period, Window: p.settings.window(period)}
	log := p.logger.With("run_id", report.RunID)
	log.Info("🚀 Clipping run started", "period", period, "window", report.Window)

	err := p.run(ctx, log, report, start)

	report.Duration = p.now().Sub(start)
	metrics.Global.RecordProcessingTime(report.Duration)
	metrics.Global.AddRun(metrics.RunCounts{
		Collected:  report.Collected,
		Accepted:   report.Accepted,
		Rejected:   report.Rejected,
		Duplicates: report.Duplicates,
		Published:  len(report.Published.Success),
		Failed:     len(report.Published.Failed),
	})
	if err != nil {
		metrics.Global.SetError(err.Error())
		log.Error("❌ Clipping run failed", "error", err, "duration", report.Duration)
		return report, err
	}
	metrics.Global.SetLastRun(report.RunID)
	log.Info("✅ Clipping run finished", "published", len(report.Published.Success), "duration", report.Duration)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, report *Report, now time.Time) error {
	raws, err := p.collect(ctx, log, report.Window)
	if err != nil {
		return err
	}
	articles, dropped := news.FromRawBatch(raws, now)
	report.Collected = len(articles)
	log.Info("📥 Collected", "articles", len(articles), "dropped", dropped)

	articles = FilterByPublishTime(articles, now, report.Window)
	log.Info("⏰ Publish time filter", "kept", len(articles))
	articles = FilterByDomain(articles, p.settings.AllowedDomains)
	log.Info("🏢 Media filter", "kept", len(articles))
	if len(articles) == 0 {
		log.Warn("No articles in the window from the configured media")
		return p.purge(ctx, log, report)
	}

	articles, err = p.dropSeen(ctx, articles)
	if err != nil {
		return err
	}
	report.Fresh = len(articles)
	log.Info("✨ New articles", "count", len(articles))
	if len(articles) == 0 {
		return p.purge(ctx, log, report)
	}

	if p.deps.Budget != nil {
		p.deps.Budget.Reset()
	}
	accepted, rejected := p.deps.Scorer.ClassifyAndFilter(ctx, articles, p.settings.Scoring)
	report.Accepted = len(accepted)
	report.Rejected = len(rejected)

	if len(accepted) == 0 {
		log.Info("No relevant articles this run")
		if err := p.record(ctx, rejected); err != nil {
			return err
		}
		return p.purge(ctx, log, report)
	}

	deduped := p.deps.Dedup.Deduplicate(accepted, p.settings.SimilarityThreshold)
	report.Duplicates = len(accepted) - len(deduped)
	report.Ranked = ranking.Rank(deduped, true)
	report.Insight = p.deps.Insight.Synthesize(ctx, report.Ranked)

	if p.settings.DryRun {
		log.Info("🧪 Dry run, nothing published or recorded", "ranked", len(report.Ranked))
		for i, a := range report.Ranked {
			log.Info("Ranked", "n", i+1, "importance", a.Importance(), "relevance", a.Relevance(), "title", a.Title)
		}
		return nil
	}

	result, pubErr := p.deps.Publisher.Publish(ctx, report.Ranked, report.Insight)
	report.Published = result

	// Articles whose message failed stay unrecorded so the next run retries them.
	toRecord := append(withoutFailed(accepted, report.Ranked, result.Failed), rejected...)
	if err := p.record(ctx, toRecord); err != nil {
		if pubErr != nil {
			return fmt.Errorf("publish: %w (record: %v)", pubErr, err)
		}
		return err
	}
	if pubErr != nil {
		return fmt.Errorf("publish: %w", pubErr)
	}
	return p.purge(ctx, log, report)
}

// collect runs every keyword search and the static feeds. A failing search
// is logged and skipped; the run fails only if every search failed and the
// feeds gave nothing.
func (p *Pipeline) collect(ctx context.Context, log *slog.Logger, window time.Duration) ([]news.RawArticle, error) {
	var all []news.RawArticle
	var failures []string
	for _, combo := range p.settings.Combinations {
		query := combo.Query()
		if query == "" {
			continue
		}
		items, err := p.deps.Collector.Fetch(ctx, query, window)
		if err != nil {
			log.Warn("⚠️ Search failed", "combination", combo.Name, "error", err)
			failures = append(failures, combo.Name)
			continue
		}
		for i := range items {
			if items[i].CategoryHint == "" {
				items[i].CategoryHint = combo.Category
			}
		}
		all = append(all, items...)
	}
	if len(p.settings.Feeds) > 0 {
		all = append(all, p.deps.Collector.FetchFeeds(ctx, p.settings.Feeds, window)...)
	}

	if len(all) == 0 && len(failures) > 0 && len(failures) == len(p.settings.Combinations) {
		return nil, fmt.Errorf("collect: all %d searches failed", len(failures))
	}
	return all, nil
}

func (p *Pipeline) dropSeen(ctx context.Context, articles []news.Article) ([]news.Article, error) {
	urls := make([]string, len(articles))
	for i, a := range articles {
		urls[i] = a.URL
	}
	seen, err := p.deps.Store.FilterSeen(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("check seen urls: %w", err)
	}
	fresh := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if !seen[a.URL] {
			fresh = append(fresh, a)
		}
	}
	return fresh, nil
}

func (p *Pipeline) record(ctx context.Context, articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	if err := p.deps.Store.RecordSeen(ctx, articles); err != nil {
		return fmt.Errorf("record seen: %w", err)
	}
	return nil
}

// purge drops old records. Failing to purge does not fail the run.
func (p *Pipeline) purge(ctx context.Context, log *slog.Logger, report *Report) error {
	if p.settings.RetentionDays <= 0 {
		return nil
	}
	n, err := p.deps.Store.PurgeOlderThan(ctx, p.settings.RetentionDays)
	if err != nil {
		log.Warn("⚠️ Purge failed", "error", err)
		return nil
	}
	report.Purged = n
	if n > 0 {
		log.Info("🧹 Purged old records", "count", n, "days", p.settings.RetentionDays)
	}
	return nil
}

// FilterByPublishTime keeps articles published within window before now.
// Articles without a publish time are dropped.
func FilterByPublishTime(articles []news.Article, now time.Time, window time.Duration) []news.Article {
	cutoff := now.Add(-window)
	out := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt == nil || a.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterByDomain keeps articles whose URL contains one of domains.
// An empty list keeps everything.
func FilterByDomain(articles []news.Article, domains []string) []news.Article {
	var allowed []string
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			allowed = append(allowed, d)
		}
	}
	if len(allowed) == 0 {
		return articles
	}
	out := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		for _, d := range allowed {
			if strings.Contains(a.URL, d) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// withoutFailed drops accepted articles that belong to a representative the
// publisher could not deliver, including the duplicates folded into it.
func withoutFailed(accepted, ranked []news.Article, failedTitles []string) []news.Article {
	if len(failedTitles) == 0 {
		return accepted
	}
	failed := make(map[string]bool, len(failedTitles))
	for _, t := range failedTitles {
		failed[t] = true
	}
	skip := make(map[string]bool)
	for _, r := range ranked {
		if !failed[r.Title] {
			continue
		}
		skip[r.URL] = true
		for _, rel := range r.RelatedArticles {
			skip[rel.URL] = true
		}
	}
	out := make([]news.Article, 0, len(accepted))
	for _, a := range accepted {
		if !skip[a.URL] {
			out = append(out, a)
		}
	}
	return out
}
