package ranking

import (
	"testing"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/stretchr/testify/assert"
)

func article(url string, importance, relevance *int) news.Article {
	return news.Article{URL: url, ImportanceScore: importance, RelevanceScore: relevance}
}

func urls(articles []news.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.URL
	}
	return out
}

func TestRankDescending(t *testing.T) {
	in := []news.Article{
		article("low", news.Score(2), news.Score(99)),
		article("unscored", nil, nil),
		article("top", news.Score(5), news.Score(70)),
		article("mid-a", news.Score(4), news.Score(80)),
		article("mid-b", news.Score(4), news.Score(90)),
	}
	got := Rank(in, true)
	assert.Equal(t, []string{"top", "mid-b", "mid-a", "low", "unscored"}, urls(got))
	assert.Equal(t, "low", in[0].URL, "input must not be reordered")
}

func TestRankStableOnTies(t *testing.T) {
	in := []news.Article{
		article("first", news.Score(3), news.Score(70)),
		article("second", news.Score(3), news.Score(70)),
		article("third", news.Score(3), news.Score(70)),
	}
	assert.Equal(t, []string{"first", "second", "third"}, urls(Rank(in, true)))
	assert.Equal(t, []string{"first", "second", "third"}, urls(Rank(in, false)))
}

func TestRankAscending(t *testing.T) {
	in := []news.Article{
		article("b", news.Score(4), nil),
		article("a", news.Score(1), nil),
	}
	assert.Equal(t, []string{"a", "b"}, urls(Rank(in, false)))
}

func TestGroupByCategory(t *testing.T) {
	in := []news.Article{
		{URL: "1", Category: "policy"},
		{URL: "2"},
		{URL: "3", Category: "policy"},
	}
	groups := GroupByCategory(in)
	assert.Equal(t, []string{"1", "3"}, urls(groups["policy"]))
	assert.Equal(t, []string{"2"}, urls(groups["general"]))
}

func TestGroupByImportance(t *testing.T) {
	in := []news.Article{
		article("u", news.Score(5), nil),
		article("i", news.Score(4), nil),
		article("n", news.Score(3), nil),
		article("l", news.Score(1), nil),
		article("none", nil, nil),
	}
	groups := GroupByImportance(in)
	assert.Equal(t, []string{"u"}, urls(groups[BucketUrgent]))
	assert.Equal(t, []string{"i"}, urls(groups[BucketImportant]))
	assert.Equal(t, []string{"n"}, urls(groups[BucketNormal]))
	assert.Equal(t, []string{"l", "none"}, urls(groups[BucketLow]))

	empty := GroupByImportance(nil)
	assert.Len(t, empty, 4)
}
