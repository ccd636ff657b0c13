package oracle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/newsclip/internal/cache"
	"github.com/deusflow/newsclip/internal/metrics"
	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/ratelimit"
	"github.com/deusflow/newsclip/internal/retry"
)

const (
	DefaultMaxAttempts     = 3
	DefaultBackoffBase     = 30 * time.Second
	DefaultBatchSize       = 5
	DefaultInsightMaxItems = 20
)

// Client runs classification, summarization and insight requests against a
// Completer. None of its operations return errors: failures are logged and
// turned into default results.
type Client struct {
	completer   Completer
	governor    *ratelimit.Governor
	prompts     Prompts
	maxAttempts int
	backoff     retry.BackoffPolicy
	temperature float32
	maxTokens   int
	summaries   *cache.Cache[Summary]
	summaryTTL  time.Duration
	logger      *slog.Logger
}

type Option func(*Client)

// WithBackoff replaces the linear 30s-per-attempt wait after a rate limit.
func WithBackoff(p retry.BackoffPolicy) Option {
	return func(c *Client) { c.backoff = p }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithGovernor(g *ratelimit.Governor) Option {
	return func(c *Client) { c.governor = g }
}

func WithPrompts(p Prompts) Option {
	return func(c *Client) { c.prompts = p }
}

// WithSummaryCache memoizes successful summaries for ttl.
func WithSummaryCache(memo *cache.Cache[Summary], ttl time.Duration) Option {
	return func(c *Client) {
		c.summaries = memo
		c.summaryTTL = ttl
	}
}

func WithSampling(temperature float32, maxTokens int) Option {
	return func(c *Client) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(completer Completer, opts ...Option) *Client {
	c := &Client{
		completer:   completer,
		prompts:     DefaultPrompts(),
		maxAttempts: DefaultMaxAttempts,
		backoff:     retry.Linear(DefaultBackoffBase),
		temperature: 0.3,
		maxTokens:   1024,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "oracle", "backend", completer.Name())
	return c
}

// call sends one logical request. Only rate-limit failures are retried.
func (c *Client) call(ctx context.Context, op, system, user string) (string, error) {
	var out string
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		Retryable:   IsRateLimited,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			metrics.OracleCall(op, "rate_limited")
			c.logger.Warn("⏳ Oracle rate limited, waiting", "op", op, "attempt", attempt, "wait", wait, "error", err)
		},
	}, func(int) error {
		if c.governor != nil {
			if err := c.governor.Acquire(ctx, op); err != nil {
				return err
			}
		}
		text, err := c.completer.Complete(ctx, Prompt{
			System:      system,
			User:        user,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return ErrEmptyResponse
		}
		out = text
		return nil
	})

	switch {
	case err == nil:
		metrics.OracleCall(op, "ok")
	case errors.Is(err, ErrBudgetExhausted):
		metrics.OracleCall(op, "budget")
	case errors.Is(err, retry.ErrExhausted):
		metrics.OracleCall(op, "exhausted")
	default:
		metrics.OracleCall(op, "error")
	}
	return out, err
}

// Classify scores one article. It falls back to a non-relevant default on any failure.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) Classification {
	text, err := c.call(ctx, "classify", c.prompts.Filter, classifyMessage(req))
	if err != nil {
		c.logger.Error("❌ Classification failed", "title", req.Title, "error", err)
		return defaultClassification(req, "error: "+err.Error())
	}
	var w classificationWire
	if !decodeObject(text, &w) || w.empty() {
		c.logger.Warn("⚠️ Unparseable classification", "title", req.Title)
		return defaultClassification(req, "analysis failed")
	}
	return w.toClassification()
}

// ClassifyBatch classifies reqs in chunks of batchSize, one request per chunk.
// Items the chunk answer does not cover are classified one by one. The result
// has one entry per request, in order.
func (c *Client) ClassifyBatch(ctx context.Context, reqs []ClassifyRequest, batchSize int) []Classification {
	out := make([]Classification, len(reqs))
	if len(reqs) == 0 {
		return out
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(reqs); start += batchSize {
		end := start + batchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		chunk := reqs[start:end]
		results := c.classifyChunk(ctx, chunk)

		fallbacks := 0
		for i := range chunk {
			if results[i] != nil {
				out[start+i] = *results[i]
				continue
			}
			fallbacks++
			out[start+i] = c.Classify(ctx, chunk[i])
		}
		c.logger.Info("📦 Batch classified", "from", start+1, "to", end, "fallbacks", fallbacks)
	}
	return out
}

func (c *Client) classifyChunk(ctx context.Context, chunk []ClassifyRequest) []*Classification {
	results := make([]*Classification, len(chunk))

	text, err := c.call(ctx, "classify_batch", c.prompts.Filter, batchMessage(chunk))
	if err != nil {
		c.logger.Error("❌ Batch classification failed", "size", len(chunk), "error", err)
		return results
	}
	var wires []classificationWire
	if !decodeArray(text, &wires) {
		c.logger.Warn("⚠️ Batch answer is not a JSON array, classifying one by one", "size", len(chunk))
		return results
	}
	for pos, w := range wires {
		idx := pos + 1
		if w.Index.Set {
			idx = w.Index.Value
		}
		if idx < 1 || idx > len(chunk) || results[idx-1] != nil || w.empty() {
			continue
		}
		cl := w.toClassification()
		results[idx-1] = &cl
	}
	return results
}

// Summarize writes the briefing summary for one article. The default keeps
// the title as the one-line summary.
func (c *Client) Summarize(ctx context.Context, req SummarizeRequest) Summary {
	var key string
	if c.summaries != nil {
		key = cache.Key(req.Title, req.Content, req.Category)
		if s, ok := c.summaries.Get(key); ok {
			if c.governor != nil {
				c.governor.RecordCacheHit()
			}
			return cloneSummary(s)
		}
		if c.governor != nil {
			c.governor.RecordCacheMiss()
		}
	}

	text, err := c.call(ctx, "summarize", c.prompts.Summarize, summarizeMessage(req))
	if err != nil {
		c.logger.Error("❌ Summary failed", "title", req.Title, "error", err)
		return defaultSummary(req)
	}
	var w summaryWire
	if !decodeObject(text, &w) {
		c.logger.Warn("⚠️ Unparseable summary", "title", req.Title)
		return defaultSummary(req)
	}

	s := Summary{
		OneLineSummary: strings.TrimSpace(w.OneLineSummary),
		DetailedSummary: news.DetailedSummary{
			Background:       string(w.DetailedSummary.Background),
			CurrentSituation: string(w.DetailedSummary.CurrentSituation),
			Impact:           string(w.DetailedSummary.Impact),
			ActionItems:      nonNil(w.DetailedSummary.ActionItems),
		},
		Keywords:    nonNil(w.Keywords),
		UrgencyNote: string(w.UrgencyNote),
	}
	if s.OneLineSummary == "" {
		s.OneLineSummary = req.Title
	}
	if c.summaries != nil {
		c.summaries.Set(key, cloneSummary(s), c.summaryTTL)
	}
	return s
}

// SynthesizeInsight asks for one insight over the first maxItems articles.
// An empty Insight means the oracle gave nothing usable.
func (c *Client) SynthesizeInsight(ctx context.Context, articles []news.Article, maxItems int) Insight {
	if len(articles) == 0 {
		return Insight{}
	}
	if maxItems <= 0 {
		maxItems = DefaultInsightMaxItems
	}
	if len(articles) > maxItems {
		articles = articles[:maxItems]
	}

	text, err := c.call(ctx, "insight", c.prompts.Insight, insightMessage(articles))
	if err != nil {
		c.logger.Error("❌ Insight failed", "articles", len(articles), "error", err)
		return Insight{}
	}
	var w insightWire
	if decodeObject(text, &w) {
		if in := w.toInsight(); !in.IsEmpty() {
			return in
		}
	}
	c.logger.Debug("Insight answer is not JSON, reading sections")
	return parseInsightSections(text)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func cloneSummary(s Summary) Summary {
	s.Keywords = append([]string{}, s.Keywords...)
	s.DetailedSummary.ActionItems = append([]string{}, s.DetailedSummary.ActionItems...)
	return s
}
