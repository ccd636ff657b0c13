package ranking

import (
	"sort"

	"github.com/deusflow/newsclip/internal/news"
)

// Importance bucket names used by GroupByImportance.
const (
	BucketUrgent    = "urgent"
	BucketImportant = "important"
	BucketNormal    = "normal"
	BucketLow       = "low"
)

const defaultCategory = "general"

// Rank orders articles by importance, then relevance (unscored counts as 0).
// The sort is stable, so equal articles keep their input order in either
// direction. The input slice is left untouched.
func Rank(articles []news.Article, descending bool) []news.Article {
	out := make([]news.Article, len(articles))
	copy(out, articles)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Importance() != b.Importance() {
			if descending {
				return a.Importance() > b.Importance()
			}
			return a.Importance() < b.Importance()
		}
		if descending {
			return a.Relevance() > b.Relevance()
		}
		return a.Relevance() < b.Relevance()
	})
	return out
}

// GroupByCategory buckets articles by category, keeping their order inside
// each bucket. Articles without a category land in "general".
func GroupByCategory(articles []news.Article) map[string][]news.Article {
	groups := make(map[string][]news.Article)
	for _, a := range articles {
		category := a.Category
		if category == "" {
			category = defaultCategory
		}
		groups[category] = append(groups[category], a)
	}
	return groups
}

// GroupByImportance buckets articles into urgent (5), important (4),
// normal (3) and low (everything else). All four buckets are always present.
func GroupByImportance(articles []news.Article) map[string][]news.Article {
	groups := map[string][]news.Article{
		BucketUrgent:    {},
		BucketImportant: {},
		BucketNormal:    {},
		BucketLow:       {},
	}
	for _, a := range articles {
		groups[ImportanceBucket(a.Importance())] = append(groups[ImportanceBucket(a.Importance())], a)
	}
	return groups
}

// ImportanceBucket names the bucket an importance score falls into.
func ImportanceBucket(importance int) string {
	switch {
	case importance >= 5:
		return BucketUrgent
	case importance == 4:
		return BucketImportant
	case importance == 3:
		return BucketNormal
	default:
		return BucketLow
	}
}
