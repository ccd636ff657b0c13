package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/deusflow/newsclip/internal/retry"
)

const DefaultAPIBase = "https://api.telegram.org"

// APIError is a non-200 answer from the Bot API.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("telegram API error: status %d: %s", e.StatusCode, e.Description)
}

// retryable treats rate limits, server errors and transport failures as
// transient. Other 4xx answers (bad markup, unknown chat) will not get better.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

// Publisher posts the clipping to a Telegram chat: one message per ranked
// article followed by a digest with the insight.
type Publisher struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	regions RegionTable
	retry   retry.RetryConfig
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithAPIBase points the publisher at another Bot API host, mostly for tests.
func WithAPIBase(u string) Option {
	return func(p *Publisher) { p.apiBase = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Publisher) { p.client = c }
}

func WithRegions(t RegionTable) Option {
	return func(p *Publisher) { p.regions = t }
}

// WithRetry sets the attempts and backoff used for every message.
func WithRetry(attempts int, backoff retry.BackoffPolicy) Option {
	return func(p *Publisher) {
		p.retry.MaxAttempts = attempts
		p.retry.Backoff = backoff
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPublisher(token, chatID string, opts ...Option) *Publisher {
	p := &Publisher{
		token:   token,
		chatID:  chatID,
		apiBase: DefaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		regions: DefaultRegionTable(),
		retry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.Exponential(2 * time.Second),
			Retryable:   retryable,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "telegram")
	return p
}

// Publish sends every ranked article and then the digest. A failed article is
// listed in the result and does not stop the rest. The returned error is set
// when the digest could not be sent or when every article failed.
func (p *Publisher) Publish(ctx context.Context, ranked []news.Article, in oracle.Insight) (news.PublishResult, error) {
	result := news.PublishResult{Success: []string{}, Failed: []string{}}
	if len(ranked) == 0 {
		return result, nil
	}

	for i, a := range ranked {
		text := FormatArticle(i+1, a, p.regions.Extract(a.Title))
		if err := p.SendMessage(ctx, text); err != nil {
			p.logger.Error("❌ Article not sent", "title", a.Title, "error", err)
			result.Failed = append(result.Failed, a.Title)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}
		result.Success = append(result.Success, a.Title)
	}

	if err := p.SendMessage(ctx, FormatDigest(in, ranked, p.regions, time.Now())); err != nil {
		return result, fmt.Errorf("send digest: %w", err)
	}
	p.logger.Info("📨 Clipping published", "sent", len(result.Success), "failed", len(result.Failed))

	if len(result.Success) == 0 {
		return result, fmt.Errorf("all %d article messages failed", len(result.Failed))
	}
	return result, nil
}

// SendMessage sends one HTML message with retry.
func (p *Publisher) SendMessage(ctx context.Context, text string) error {
	cfg := p.retry
	cfg.OnRetry = func(attempt int, wait time.Duration, err error) {
		p.logger.Warn("⚠️ Error send to Telegram", "attempt", attempt, "wait", wait, "error", err)
	}
	return retry.WithRetry(ctx, cfg, func(attempt int) error {
		if err := p.sendMessageOnce(ctx, text); err != nil {
			return err
		}
		p.logger.Debug("Message sent to Telegram", "attempt", attempt)
		return nil
	})
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// sendMessageOnce does one try to send message
func (p *Publisher) sendMessageOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", p.apiBase, p.token)

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                p.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			p.logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var answer apiResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&answer)
		return &APIError{StatusCode: resp.StatusCode, Description: answer.Description}
	}
	return nil
}
