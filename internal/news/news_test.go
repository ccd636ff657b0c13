package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRawRejectsEmptyURL(t *testing.T) {
	_, err := FromRaw(RawArticle{Title: "no link", URL: "  "}, time.Now())
	require.ErrorIs(t, err, ErrMissingURL)
}

func TestFromRawSetsCollectedAtAndHint(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a, err := FromRaw(RawArticle{
		Title:        " Budget vote ",
		URL:          "https://idomin.com/1",
		CategoryHint: "policy",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "Budget vote", a.Title)
	assert.Equal(t, now, a.CollectedAt)
	assert.Equal(t, "policy", a.Category)
	assert.Nil(t, a.RelevanceScore)
	assert.Nil(t, a.ImportanceScore)
}

func TestFromRawBatchDropsInvalidAndRepeats(t *testing.T) {
	raws := []RawArticle{
		{Title: "a", URL: "https://x/1"},
		{Title: "b", URL: ""},
		{Title: "c", URL: "https://x/1"},
		{Title: "d", URL: "https://x/2"},
	}
	out, dropped := FromRawBatch(raws, time.Now())
	require.Len(t, out, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "a", out[0].Title)
	assert.Equal(t, "d", out[1].Title)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := Article{
		URL:             "https://x/1",
		ImportanceScore: Score(3),
		Keywords:        []string{"k"},
		DetailedSummary: &DetailedSummary{ActionItems: []string{"act"}},
	}
	c := orig.Clone()
	*c.ImportanceScore = 5
	c.Keywords[0] = "changed"
	c.DetailedSummary.ActionItems[0] = "changed"

	assert.Equal(t, 3, orig.Importance())
	assert.Equal(t, "k", orig.Keywords[0])
	assert.Equal(t, "act", orig.DetailedSummary.ActionItems[0])
}

func TestPriorityTableFirstMatchWins(t *testing.T) {
	table := PriorityTable{
		{Domain: "kbs.co.kr", Bonus: 1},
		{Domain: "changwon.kbs.co.kr", Bonus: 2},
	}
	assert.Equal(t, 1, table.Bonus("https://changwon.kbs.co.kr/news/1"))
	assert.Equal(t, 0, table.Bonus("https://example.com"))
	assert.True(t, DefaultPriorityTable().Contains("https://www.idomin.com/news/1"))
}
