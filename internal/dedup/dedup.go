package dedup

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/pmezard/go-difflib/difflib"
)

const DefaultThreshold = 0.6

var (
	// trailing " - Source" after the last dash-like separator
	sourceSuffixRe = regexp.MustCompile(`\s*[-–—]\s*[^-–—]+$`)
	// anything that is not a letter, digit, underscore or space
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Zs}]`)
)

// NormalizeTitle strips the trailing source attribution and punctuation and
// collapses whitespace.
func NormalizeTitle(title string) string {
	t := sourceSuffixRe.ReplaceAllString(title, "")
	t = punctuationRe.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// Similarity is the Ratcliff/Obershelp ratio of the two normalized titles.
// Arguments are put in a fixed order so the result does not depend on it.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na > nb {
		na, nb = nb, na
	}
	if na == "" && nb == "" {
		return 1
	}
	return difflib.NewMatcher(splitRunes(na), splitRunes(nb)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Deduplicator collapses near-identical stories into one representative.
type Deduplicator struct {
	priority news.PriorityTable
	logger   *slog.Logger
}

func New(priority news.PriorityTable, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{priority: priority, logger: logger.With("component", "dedup")}
}

// Deduplicate walks articles in order; each not yet clustered article seeds a
// cluster and absorbs every later unclustered article whose title similarity
// to the seed reaches threshold. Membership is not transitive. The best member
// of each cluster is returned with the others attached as related articles.
func (d *Deduplicator) Deduplicate(articles []news.Article, threshold float64) []news.Article {
	if len(articles) == 0 {
		return []news.Article{}
	}

	used := make([]bool, len(articles))
	out := make([]news.Article, 0, len(articles))

	for i := range articles {
		if used[i] {
			continue
		}
		used[i] = true
		cluster := []int{i}
		for j := i + 1; j < len(articles); j++ {
			if used[j] {
				continue
			}
			if Similarity(articles[i].Title, articles[j].Title) >= threshold {
				cluster = append(cluster, j)
				used[j] = true
			}
		}

		best := cluster[0]
		for _, k := range cluster[1:] {
			if d.better(articles[k], articles[best]) {
				best = k
			}
		}

		rep := articles[best].Clone()
		rep.RelatedArticles = make([]news.RelatedArticle, 0, len(cluster)-1)
		for _, k := range cluster {
			if k == best {
				continue
			}
			rep.RelatedArticles = append(rep.RelatedArticles, news.RelatedArticle{
				Title:     articles[k].Title,
				URL:       articles[k].URL,
				MediaName: articles[k].MediaName,
			})
		}
		if len(cluster) > 1 {
			d.logger.Debug("🔗 Collapsed duplicates", "title", rep.Title, "related", len(rep.RelatedArticles))
		}
		out = append(out, rep)
	}

	if removed := len(articles) - len(out); removed > 0 {
		d.logger.Info("🔗 Dedup done", "before", len(articles), "after", len(out), "collapsed", removed)
	}
	return out
}

// better reports whether a strictly outranks b: priority outlet first, then
// importance, relevance and description length.
func (d *Deduplicator) better(a, b news.Article) bool {
	ka := [4]int{d.priorityRank(a), a.Importance(), a.Relevance(), utf8.RuneCountInString(a.Description)}
	kb := [4]int{d.priorityRank(b), b.Importance(), b.Relevance(), utf8.RuneCountInString(b.Description)}
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] > kb[i]
		}
	}
	return false
}

func (d *Deduplicator) priorityRank(a news.Article) int {
	if d.priority.Contains(a.URL) {
		return 1
	}
	return 0
}
