package news

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingURL is returned by the input adapter for records without a URL.
var ErrMissingURL = errors.New("article has no url")

// DetailedSummary is the structured summary produced for accepted articles.
type DetailedSummary struct {
	Background       string   `json:"background"`
	CurrentSituation string   `json:"current_situation"`
	Impact           string   `json:"impact"`
	ActionItems      []string `json:"action_items"`
}

// IsZero reports whether nothing was filled in.
func (d *DetailedSummary) IsZero() bool {
	return d == nil || (d.Background == "" && d.CurrentSituation == "" && d.Impact == "" && len(d.ActionItems) == 0)
}

// RelatedArticle is a collapsed duplicate attached to its cluster representative.
type RelatedArticle struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	MediaName string `json:"media_name"`
}

// Article is one news item as it flows through scoring, dedup and ranking.
// URL is the identity key.
type Article struct {
	URL         string
	Title       string
	Description string
	Content     string
	Source      string
	MediaName   string
	PublishedAt *time.Time
	CollectedAt time.Time
	SearchQuery string

	RelevanceScore  *int
	ImportanceScore *int
	Category        string
	Keywords        []string
	OneLineSummary  string
	DetailedSummary *DetailedSummary
	RelatedArticles []RelatedArticle
}

// Importance returns the importance score, 0 when unscored.
func (a Article) Importance() int {
	if a.ImportanceScore == nil {
		return 0
	}
	return *a.ImportanceScore
}

// Relevance returns the relevance score, 0 when unscored.
func (a Article) Relevance() int {
	if a.RelevanceScore == nil {
		return 0
	}
	return *a.RelevanceScore
}

// Clone returns a deep copy so callers can modify the result without
// touching the original record.
func (a Article) Clone() Article {
	c := a
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	if a.RelevanceScore != nil {
		c.RelevanceScore = Score(*a.RelevanceScore)
	}
	if a.ImportanceScore != nil {
		c.ImportanceScore = Score(*a.ImportanceScore)
	}
	if a.Keywords != nil {
		c.Keywords = append([]string(nil), a.Keywords...)
	}
	if a.DetailedSummary != nil {
		d := *a.DetailedSummary
		d.ActionItems = append([]string(nil), a.DetailedSummary.ActionItems...)
		c.DetailedSummary = &d
	}
	if a.RelatedArticles != nil {
		c.RelatedArticles = append([]RelatedArticle(nil), a.RelatedArticles...)
	}
	return c
}

// Score returns a pointer to v for the optional score fields.
func Score(v int) *int {
	return &v
}

// RawArticle is what a collector hands to the pipeline before validation.
type RawArticle struct {
	Title        string
	URL          string
	Source       string
	Description  string
	Content      string
	MediaName    string
	SearchQuery  string
	CategoryHint string
	PublishedAt  *time.Time
}

// FromRaw validates a collected item and turns it into an Article.
// CollectedAt is set to now.
func FromRaw(raw RawArticle, now time.Time) (Article, error) {
	url := strings.TrimSpace(raw.URL)
	if url == "" {
		return Article{}, fmt.Errorf("%q: %w", raw.Title, ErrMissingURL)
	}
	a := Article{
		URL:         url,
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Content:     strings.TrimSpace(raw.Content),
		Source:      raw.Source,
		MediaName:   strings.TrimSpace(raw.MediaName),
		CollectedAt: now,
		SearchQuery: raw.SearchQuery,
		Category:    raw.CategoryHint,
	}
	if raw.PublishedAt != nil {
		t := *raw.PublishedAt
		a.PublishedAt = &t
	}
	return a, nil
}

// FromRawBatch converts a collected batch. Items without a URL are dropped and
// a repeated URL keeps its first occurrence. The number of dropped items is
// returned alongside.
func FromRawBatch(raws []RawArticle, now time.Time) ([]Article, int) {
	out := make([]Article, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	dropped := 0
	for _, raw := range raws {
		a, err := FromRaw(raw, now)
		if err != nil || seen[a.URL] {
			dropped++
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	return out, dropped
}

// PublishResult lists the titles a publisher delivered and the ones it could not.
type PublishResult struct {
	Success []string
	Failed  []string
}
