package dedup

import (
	"testing"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Council passes new housing bill — Daily Times": "Council passes new housing bill",
		"Council passes new housing bill - City Herald":  "Council passes new housing bill",
		"“Budget”, approved!  (final)":                    "Budget approved final",
		"경남도의회, 예산안 통과 - 경남도민일보":                        "경남도의회 예산안 통과",
		"":                                                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTitle(in), in)
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	titles := []string{
		"Council passes new housing bill — Daily Times",
		"COVID-19 cases rise - Reuters",
		"  spaced   out\ttitle ",
		"경남도의회, 예산안 통과 - 경남도민일보",
	}
	for _, title := range titles {
		once := NormalizeTitle(title)
		assert.Equal(t, once, NormalizeTitle(once), title)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Council passes new housing bill", "Council approves housing bill"},
		{"abcabcabc", "cbacbacba"},
		{"Governor visits flood site", "Flood site visited by governor"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), p[0])
	}
	assert.Equal(t, 1.0, Similarity("Same title - A", "Same title - B"))
}

func TestDeduplicateCollapsesSameStory(t *testing.T) {
	in := []news.Article{
		{URL: "https://dailytimes.example/1", Title: "Council passes new housing bill — Daily Times", MediaName: "Daily Times", ImportanceScore: news.Score(3)},
		{URL: "https://herald.example/2", Title: "Council passes new housing bill - City Herald", MediaName: "City Herald", ImportanceScore: news.Score(4)},
	}

	out := New(nil, nil).Deduplicate(in, DefaultThreshold)

	require.Len(t, out, 1)
	assert.Equal(t, "https://herald.example/2", out[0].URL)
	require.Len(t, out[0].RelatedArticles, 1)
	assert.Equal(t, news.RelatedArticle{
		Title:     "Council passes new housing bill — Daily Times",
		URL:       "https://dailytimes.example/1",
		MediaName: "Daily Times",
	}, out[0].RelatedArticles[0])
	assert.Nil(t, in[1].RelatedArticles, "input must not be modified")
}

func TestDeduplicatePrefersPriorityOutlet(t *testing.T) {
	in := []news.Article{
		{URL: "https://national.example/1", Title: "Port expansion approved", ImportanceScore: news.Score(5), RelevanceScore: news.Score(99)},
		{URL: "https://www.idomin.com/news/2", Title: "Port expansion approved", ImportanceScore: news.Score(2)},
	}
	out := New(news.DefaultPriorityTable(), nil).Deduplicate(in, DefaultThreshold)
	require.Len(t, out, 1)
	assert.Equal(t, "https://www.idomin.com/news/2", out[0].URL)
}

func TestDeduplicateTieKeepsFirst(t *testing.T) {
	in := []news.Article{
		{URL: "https://a/1", Title: "Same story"},
		{URL: "https://b/2", Title: "Same story"},
	}
	out := New(nil, nil).Deduplicate(in, DefaultThreshold)
	require.Len(t, out, 1)
	assert.Equal(t, "https://a/1", out[0].URL)
}

func TestDeduplicateIsNotTransitive(t *testing.T) {
	a := news.Article{URL: "https://x/a", Title: "abcdefghij"}
	b := news.Article{URL: "https://x/b", Title: "abcdefghijklmnopqrst"}
	c := news.Article{URL: "https://x/c", Title: "klmnopqrst"}

	assert.InDelta(t, 2.0/3.0, Similarity(a.Title, b.Title), 1e-9)
	assert.InDelta(t, 2.0/3.0, Similarity(b.Title, c.Title), 1e-9)
	assert.Equal(t, 0.0, Similarity(a.Title, c.Title))

	d := New(nil, nil)
	assert.Len(t, d.Deduplicate([]news.Article{a, b, c}, DefaultThreshold), 2)
	assert.Len(t, d.Deduplicate([]news.Article{b, a, c}, DefaultThreshold), 1)
}

func TestDeduplicateCardinality(t *testing.T) {
	in := []news.Article{
		{URL: "https://x/1", Title: "Same story"},
		{URL: "https://x/2", Title: "Same story"},
		{URL: "https://x/3", Title: "Other story entirely"},
	}
	d := New(nil, nil)
	assert.LessOrEqual(t, len(d.Deduplicate(in, DefaultThreshold)), len(in))

	out := d.Deduplicate(in, 1.01)
	require.Len(t, out, len(in))
	for _, a := range out {
		assert.Empty(t, a.RelatedArticles)
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	assert.Empty(t, New(nil, nil).Deduplicate(nil, DefaultThreshold))
}
