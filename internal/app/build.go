package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/newsclip/internal/cache"
	"github.com/deusflow/newsclip/internal/config"
	"github.com/deusflow/newsclip/internal/dedup"
	"github.com/deusflow/newsclip/internal/insight"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/deusflow/newsclip/internal/ratelimit"
	"github.com/deusflow/newsclip/internal/retry"
	"github.com/deusflow/newsclip/internal/rss"
	"github.com/deusflow/newsclip/internal/scoring"
	"github.com/deusflow/newsclip/internal/scraper"
	"github.com/deusflow/newsclip/internal/storage"
	"github.com/deusflow/newsclip/internal/telegram"
)

// Service is a wired pipeline plus the resources it holds open.
type Service struct {
	Pipeline *Pipeline
	Store    storage.Store
	Governor *ratelimit.Governor

	closers []func() error
}

// Close releases the store, the oracle backend and the summary cache.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires the production pipeline from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{}

	store, err := storage.Open(ctx, cfg.StoreDSN, cfg.SeenWindow, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	svc.Store = store
	svc.closers = append(svc.closers, store.Close)

	completer, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	if closeCompleter != nil {
		svc.closers = append(svc.closers, closeCompleter)
	}

	prompts, err := oracle.LoadPrompts(cfg.PromptsDir)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	svc.Governor = ratelimit.NewGovernor(cfg.OracleMinInterval, cfg.MaxOracleRequests, logger.With("component", "ratelimit"))

	opts := []oracle.Option{
		oracle.WithGovernor(svc.Governor),
		oracle.WithPrompts(prompts),
		oracle.WithMaxAttempts(cfg.RetryAttempts),
		oracle.WithBackoff(retry.Linear(cfg.RetryDelay)),
		oracle.WithLogger(logger),
	}
	if cfg.SummaryCacheTTL > 0 {
		memo := cache.New[oracle.Summary](10 * time.Minute)
		svc.closers = append(svc.closers, func() error { memo.Close(); return nil })
		opts = append(opts, oracle.WithSummaryCache(memo, cfg.SummaryCacheTTL))
	}
	client := oracle.NewClient(completer, opts...)

	coordinator := scoring.NewCoordinator(client, cfg.PriorityDomains, logger)
	if cfg.ScrapeMaxArticles > 0 {
		coordinator.WithEnricher(scraper.New(logger, cfg.ScrapeMaxArticles, cfg.ScrapeMinDescription))
	}

	collector := rss.NewCollector(logger,
		rss.WithLocale(cfg.Language, cfg.Country),
		rss.WithMaxResults(cfg.MaxResultsPerQuery),
	)

	publisher := telegram.NewPublisher(cfg.TelegramToken, cfg.TelegramChatID,
		telegram.WithRegions(cfg.Regions),
		telegram.WithLogger(logger),
	)

	deps := Deps{
		Collector: collector,
		Store:     store,
		Publisher: publisher,
		Scorer:    coordinator,
		Dedup:     dedup.New(cfg.PriorityDomains, logger),
		Insight:   insight.NewSynthesizer(client, cfg.InsightMaxItems, logger),
		Budget:    svc.Governor,
	}
	settings := Settings{
		Combinations:    cfg.KeywordCombinations,
		Feeds:           cfg.Feeds,
		MorningWindow:   cfg.MorningWindow,
		AfternoonWindow: cfg.AfternoonWindow,
		AllowedDomains:  cfg.AllowedDomains(),
		Scoring: scoring.Options{
			RelevanceThreshold: cfg.RelevanceThreshold,
			UseBatch:           cfg.UseBatch,
			BatchSize:          cfg.BatchSize,
			Summarize:          cfg.Summarize,
		},
		SimilarityThreshold: cfg.SimilarityThreshold,
		RetentionDays:       cfg.RetentionDays,
		DryRun:              cfg.DryRun,
	}
	svc.Pipeline = NewPipeline(deps, settings, logger.With("component", "pipeline"))
	return svc, nil
}

func newCompleter(ctx context.Context, cfg *config.Config) (oracle.Completer, func() error, error) {
	switch cfg.OracleProvider {
	case config.ProviderOpenAI:
		c, err := oracle.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		c, err := oracle.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}
