package rss

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsclip/internal/news"
)

const (
	GoogleNewsSearchURL = "https://news.google.com/rss/search"
	SourceGoogleNews    = "google_news"
	SourceFeed          = "rss"
	defaultUserAgent    = "Mozilla/5.0 (compatible; newsclip/1.0)"
)

// KeywordCombination is one saved search: any of the issues together with
// any of the regions.
type KeywordCombination struct {
	Name     string   `yaml:"name"`
	Issues   []string `yaml:"issues"`
	Regions  []string `yaml:"regions"`
	Category string   `yaml:"category"`
}

// Query renders the combination as a Google News search expression, e.g.
// `(budget OR "public housing") (Changwon OR Gimhae)`.
func (k KeywordCombination) Query() string {
	issues := orTerms(k.Issues)
	regions := orTerms(k.Regions)
	switch {
	case issues != "" && regions != "":
		return fmt.Sprintf("(%s) (%s)", issues, regions)
	case issues != "":
		return issues
	default:
		return regions
	}
}

func orTerms(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Contains(t, " ") {
			t = `"` + t + `"`
		}
		quoted = append(quoted, t)
	}
	return strings.Join(quoted, " OR ")
}

// Collector reads Google News search feeds and plain RSS feeds.
type Collector struct {
	parser     *gofeed.Parser
	baseURL    string
	language   string
	country    string
	maxResults int
	policy     *bluemonday.Policy
	logger     *slog.Logger
}

type Option func(*Collector)

// WithBaseURL points searches at another endpoint, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *Collector) { c.baseURL = u }
}

func WithLocale(language, country string) Option {
	return func(c *Collector) {
		if language != "" {
			c.language = language
		}
		if country != "" {
			c.country = country
		}
	}
}

func WithMaxResults(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) { c.parser.Client = client }
}

func NewCollector(logger *slog.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	parser := gofeed.NewParser()
	parser.UserAgent = defaultUserAgent
	parser.Client = &http.Client{Timeout: 15 * time.Second}

	c := &Collector{
		parser:     parser,
		baseURL:    GoogleNewsSearchURL,
		language:   "ko",
		country:    "KR",
		maxResults: 30,
		policy:     bluemonday.StrictPolicy(),
		logger:     logger.With("component", "rss"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL builds the search feed URL restricted to the last window.
func (c *Collector) SearchURL(query string, window time.Duration) string {
	q := query
	if hours := int(window.Hours()); hours > 0 {
		q = fmt.Sprintf("%s when:%dh", query, hours)
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("hl", c.language)
	params.Set("gl", c.country)
	params.Set("ceid", c.country+":"+c.language)
	return c.baseURL + "?" + params.Encode()
}

// Fetch runs one Google News search and returns at most maxResults items.
func (c *Collector) Fetch(ctx context.Context, query string, window time.Duration) ([]news.RawArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	feedURL := c.SearchURL(query, window)
	c.logger.Debug("RSS URL", "url", feedURL)

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("google news search %q: %w", query, err)
	}

	items := feed.Items
	if len(items) > c.maxResults {
		items = items[:c.maxResults]
	}
	out := make([]news.RawArticle, 0, len(items))
	for _, item := range items {
		title, media := splitMedia(item.Title)
		out = append(out, news.RawArticle{
			Title:       title,
			URL:         item.Link,
			Source:      SourceGoogleNews,
			Description: c.cleanText(item.Description),
			MediaName:   media,
			SearchQuery: query,
			PublishedAt: item.PublishedParsed,
		})
	}
	c.logger.Info("📰 Google News collected", "query", query, "items", len(out))
	return out, nil
}

// FetchFeeds downloads plain RSS feeds and keeps items published within window.
// A broken feed is logged and skipped.
func (c *Collector) FetchFeeds(ctx context.Context, urls []string, window time.Duration) []news.RawArticle {
	var all []news.RawArticle
	successCount := 0
	cutoff := time.Now().Add(-window)

	for _, feedURL := range urls {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			c.logger.Warn("⚠️ Error parsing RSS", "url", feedURL, "error", err)
			continue
		}
		successCount++
		for _, item := range feed.Items {
			if window > 0 && item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
				continue
			}
			content := item.Content
			if content != "" {
				content = c.cleanText(content)
			}
			all = append(all, news.RawArticle{
				Title:       strings.TrimSpace(item.Title),
				URL:         item.Link,
				Source:      SourceFeed,
				Description: c.cleanText(item.Description),
				Content:     content,
				MediaName:   strings.TrimSpace(feed.Title),
				PublishedAt: item.PublishedParsed,
			})
		}
		c.logger.Debug("Loaded feed", "url", feedURL, "items", len(feed.Items))
	}

	c.logger.Info("📰 Processed RSS feeds", "ok", successCount, "total", len(urls), "items", len(all))
	return all
}

// cleanText strips markup and entities and collapses whitespace.
func (c *Collector) cleanText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(c.policy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// splitMedia separates Google News' "Headline - Media" titles.
func splitMedia(title string) (string, string) {
	title = strings.TrimSpace(title)
	if i := strings.LastIndex(title, " - "); i > 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
	}
	return title, ""
}
