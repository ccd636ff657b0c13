package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newsclip/internal/news"
)

const maxContentRunes = 1800

// ArticleContent is full article content
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

// siteSelectors lists body selectors for outlets whose markup is known.
// Sites not listed use the generic selectors.
var siteSelectors = []struct {
	domain    string
	selectors []string
}{
	{"idomin.com", []string{"#article-view-content-div p", "#article-view-content-div"}},
	{"knnews.co.kr", []string{".article_content p", "#news_body_area p", ".news_text"}},
	{"kbs.co.kr", []string{"#cont_newstext", ".detail-body p"}},
	{"mbcgn.kr", []string{"#article-view-content-div p", ".article-body p"}},
}

var genericSelectors = []string{
	"article p",
	".article p",
	".article-body p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

var junkPhrases = []string{
	"무단전재 및 재배포 금지",
	"무단 전재 및 재배포 금지",
	"저작권자",
	"Copyright",
	"All rights reserved",
	"기사제보",
	"구독하기",
}

// Scraper downloads article pages and extracts their body text.
type Scraper struct {
	client   *http.Client
	pause    time.Duration
	maxPages int
	minDesc  int
	logger   *slog.Logger
}

// New creates a scraper. Enrich fetches at most maxPages pages per call, and
// only for articles whose description is shorter than minDescription runes.
func New(logger *slog.Logger, maxPages, minDescription int) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		client:   &http.Client{Timeout: 15 * time.Second},
		pause:    500 * time.Millisecond,
		maxPages: maxPages,
		minDesc:  minDescription,
		logger:   logger.With("component", "scraper"),
	}
}

// ExtractFullArticle gets full text of article by URL
func (s *Scraper) ExtractFullArticle(ctx context.Context, url string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsclip/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	content := cleanContent(extractContent(doc, url))
	if content == "" {
		return nil, fmt.Errorf("can't get content")
	}
	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// Enrich fills Content for articles with a short description. Pages that
// fail to load are skipped; the articles are returned either way.
func (s *Scraper) Enrich(ctx context.Context, articles []news.Article) []news.Article {
	fetched := 0
	for i := range articles {
		a := &articles[i]
		if a.Content != "" || utf8.RuneCountInString(a.Description) >= s.minDesc {
			continue
		}
		if fetched >= s.maxPages || ctx.Err() != nil {
			break
		}
		if fetched > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return articles
			case <-time.After(s.pause):
			}
		}
		fetched++

		page, err := s.ExtractFullArticle(ctx, a.URL)
		if err != nil {
			s.logger.Warn("⚠️ Can't get content", "url", a.URL, "error", err)
			continue
		}
		if utf8.RuneCountInString(page.Content) <= 100 {
			s.logger.Debug("Content too short", "url", a.URL)
			continue
		}
		a.Content = page.Content
		s.logger.Debug("✅ Got content", "url", a.URL, "chars", utf8.RuneCountInString(page.Content))
	}
	return articles
}

func extractContent(doc *goquery.Document, url string) string {
	for _, site := range siteSelectors {
		if strings.Contains(url, site.domain) {
			if text := collectParagraphs(doc, site.selectors, 10, 1); text != "" {
				return text
			}
			break
		}
	}
	return collectParagraphs(doc, genericSelectors, 20, 3)
}

// collectParagraphs tries selectors in order and stops at the first one that
// yields at least enough paragraphs longer than minLen bytes.
func collectParagraphs(doc *goquery.Document, selectors []string, minLen, enough int) string {
	var best []string
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > minLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > len(best) {
			best = paragraphs
		}
		if len(paragraphs) >= enough {
			break
		}
	}
	return strings.Join(best, "\n\n")
}

// extractTitle gets article title
func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"meta[property='og:title']",
		"h1",
		"title",
	}
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		title := strings.TrimSpace(sel.AttrOr("content", sel.Text()))
		if title != "" {
			return title
		}
	}
	return ""
}

// cleanContent drops boilerplate lines and keeps whole paragraphs up to maxContentRunes.
func cleanContent(content string) string {
	var kept []string
	total := 0
	for _, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.Join(strings.Fields(paragraph), " ")
		if paragraph == "" || isJunk(paragraph) {
			continue
		}
		n := utf8.RuneCountInString(paragraph)
		if total > 0 && total+n > maxContentRunes {
			break
		}
		kept = append(kept, paragraph)
		total += n
	}
	return strings.Join(kept, "\n\n")
}

func isJunk(paragraph string) bool {
	lower := strings.ToLower(paragraph)
	for _, phrase := range junkPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
