package oracle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deusflow/newsclip/internal/cache"
	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/ratelimit"
	"github.com/deusflow/newsclip/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type reply struct {
	text string
	err  error
}

// scriptedCompleter returns the queued replies in order and then repeats the last one.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []reply
	prompts []Prompt
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	r := s.replies[len(s.replies)-1]
	if len(s.prompts) <= len(s.replies) {
		r = s.replies[len(s.prompts)-1]
	}
	return r.text, r.err
}

func (s *scriptedCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newTestClient(c Completer, opts ...Option) *Client {
	base := []Option{WithBackoff(retry.NoWait)}
	return NewClient(c, append(base, opts...)...)
}

func TestClassifyParsesFencedJSON(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: "```json\n{\"relevance_score\": 75, \"is_relevant\": true}\n```"}}}
	got := newTestClient(c).Classify(context.Background(), ClassifyRequest{Title: "Budget vote"})

	assert.Equal(t, 75, got.RelevanceScore)
	assert.True(t, got.IsRelevant)
	assert.Equal(t, 1, got.ImportanceScore)
	assert.Equal(t, "", got.Category)
}

func TestClassifyRetriesRateLimitThenSucceeds(t *testing.T) {
	var waits []int
	c := &scriptedCompleter{replies: []reply{
		{err: ErrRateLimited},
		{err: ErrRateLimited},
		{text: `{"relevance_score": 80, "importance_score": 4, "category": "policy", "is_relevant": true}`},
	}}
	client := newTestClient(c, WithBackoff(func(attempt int) time.Duration {
		waits = append(waits, attempt)
		return 0
	}))

	got := client.Classify(context.Background(), ClassifyRequest{Title: "t"})
	assert.Equal(t, 3, c.calls())
	assert.Equal(t, []int{1, 2}, waits)
	assert.Equal(t, 80, got.RelevanceScore)
	assert.Equal(t, 4, got.ImportanceScore)
	assert.Equal(t, "policy", got.Category)
}

func TestClassifyGivesUpAfterThreeRateLimits(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{err: ErrRateLimited}}}
	got := newTestClient(c).Classify(context.Background(), ClassifyRequest{Title: "t", CategoryHint: "economy"})

	assert.Equal(t, 3, c.calls())
	assert.False(t, got.IsRelevant)
	assert.Equal(t, 0, got.RelevanceScore)
	assert.Equal(t, 1, got.ImportanceScore)
	assert.Equal(t, "economy", got.Category)
}

func TestClassifyDoesNotRetryOtherErrors(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{err: errors.New("connection reset")}}}
	got := newTestClient(c).Classify(context.Background(), ClassifyRequest{Title: "t"})

	assert.Equal(t, 1, c.calls())
	assert.Equal(t, "general", got.Category)
	assert.Contains(t, got.Reason, "connection reset")
}

func TestClassifyDefaultsOnProse(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: "I cannot rate this article."}}}
	got := newTestClient(c).Classify(context.Background(), ClassifyRequest{Title: "t"})
	assert.Equal(t, defaultClassification(ClassifyRequest{Title: "t"}, "analysis failed"), got)
}

func TestClassifyClampsScores(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: `Here you go: {"relevance_score": "140", "importance_score": 9, "is_relevant": "true"}`}}}
	got := newTestClient(c).Classify(context.Background(), ClassifyRequest{Title: "t"})
	assert.Equal(t, 100, got.RelevanceScore)
	assert.Equal(t, 5, got.ImportanceScore)
	assert.True(t, got.IsRelevant)
}

func TestClassifyBatchFallsBackOnProse(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{
		{text: "Sorry, here is my opinion in words."},
		{text: `{"relevance_score": 10, "is_relevant": false}`},
		{text: `{"relevance_score": 20, "is_relevant": false}`},
		{text: `{"relevance_score": 30, "is_relevant": true}`},
	}}
	reqs := []ClassifyRequest{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	got := newTestClient(c).ClassifyBatch(context.Background(), reqs, 5)

	require.Len(t, got, 3)
	assert.Equal(t, 4, c.calls())
	assert.Equal(t, 10, got[0].RelevanceScore)
	assert.Equal(t, 20, got[1].RelevanceScore)
	assert.Equal(t, 30, got[2].RelevanceScore)
}

func TestClassifyBatchMapsByIndexAcrossChunks(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{
		{text: `[{"index": 2, "relevance_score": 22, "is_relevant": true}, {"index": 1, "relevance_score": 11, "is_relevant": true}]`},
		{text: "```json\n[{\"index\": 1, \"relevance_score\": 33, \"is_relevant\": false}]\n```"},
	}}
	reqs := []ClassifyRequest{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	got := newTestClient(c).ClassifyBatch(context.Background(), reqs, 2)

	require.Len(t, got, 3)
	assert.Equal(t, 2, c.calls())
	assert.Equal(t, 11, got[0].RelevanceScore)
	assert.Equal(t, 22, got[1].RelevanceScore)
	assert.Equal(t, 33, got[2].RelevanceScore)
	assert.Contains(t, c.prompts[1].User, "[1] Title: c")
}

func TestClassifyBatchFillsMissingItemsIndividually(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{
		{text: `[{"index": 1, "relevance_score": 90, "is_relevant": true}]`},
		{text: `{"relevance_score": 5, "is_relevant": false}`},
	}}
	got := newTestClient(c).ClassifyBatch(context.Background(), []ClassifyRequest{{Title: "a"}, {Title: "b"}}, 5)

	assert.Equal(t, 2, c.calls())
	assert.Equal(t, 90, got[0].RelevanceScore)
	assert.Equal(t, 5, got[1].RelevanceScore)
}

func TestClassifyBatchEmpty(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: "[]"}}}
	assert.Empty(t, newTestClient(c).ClassifyBatch(context.Background(), nil, 5))
	assert.Equal(t, 0, c.calls())
}

func TestSummarizeParsesStructure(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: `{"one_line_summary": "Council passes housing bill",
		"detailed_summary": {"background": "b", "current_situation": "c", "impact": "i", "action_items": ["call the mayor"]},
		"keywords": ["housing", "council"], "urgency_note": null}`}}}
	got := newTestClient(c).Summarize(context.Background(), SummarizeRequest{Title: "t", Content: "body"})

	assert.Equal(t, "Council passes housing bill", got.OneLineSummary)
	assert.Equal(t, "b", got.DetailedSummary.Background)
	assert.Equal(t, []string{"call the mayor"}, got.DetailedSummary.ActionItems)
	assert.Equal(t, []string{"housing", "council"}, got.Keywords)
}

func TestSummarizeDefaultKeepsTitle(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{err: errors.New("bad request")}}}
	got := newTestClient(c).Summarize(context.Background(), SummarizeRequest{Title: "Flood warning"})

	assert.Equal(t, "Flood warning", got.OneLineSummary)
	assert.Empty(t, got.Keywords)
	assert.True(t, got.DetailedSummary.IsZero())
}

func TestSummarizeUsesMemo(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: `{"one_line_summary": "s", "keywords": ["k"]}`}}}
	memo := cache.New[Summary](0)
	defer memo.Close()
	gov := ratelimit.NewGovernorWithLimiter(rate.NewLimiter(rate.Inf, 1), 0, nil)
	client := newTestClient(c, WithSummaryCache(memo, time.Hour), WithGovernor(gov))

	req := SummarizeRequest{Title: "t", Content: "body"}
	first := client.Summarize(context.Background(), req)
	first.Keywords[0] = "mutated"
	second := client.Summarize(context.Background(), req)

	assert.Equal(t, 1, c.calls())
	assert.Equal(t, []string{"k"}, second.Keywords)
	assert.Equal(t, 1, gov.GetStats()["cache_hits"])
}

func TestBudgetExhaustedReturnsDefaultWithoutCalling(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: `{"relevance_score": 90, "is_relevant": true}`}}}
	gov := ratelimit.NewGovernorWithLimiter(rate.NewLimiter(rate.Inf, 1), 1, nil)
	client := newTestClient(c, WithGovernor(gov))

	assert.True(t, client.Classify(context.Background(), ClassifyRequest{Title: "a"}).IsRelevant)
	second := client.Classify(context.Background(), ClassifyRequest{Title: "b"})
	assert.False(t, second.IsRelevant)
	assert.Equal(t, 1, c.calls())
}

func TestSynthesizeInsightLimitsPrompt(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: `{"headline": "Housing dominates", "key_trends": ["housing"], "opportunities": "press event"}`}}}
	articles := make([]news.Article, 25)
	for i := range articles {
		articles[i] = news.Article{URL: "u", Title: "title-" + string(rune('A'+i))}
	}

	got := newTestClient(c).SynthesizeInsight(context.Background(), articles, 20)
	assert.Equal(t, "Housing dominates", got.Headline)
	assert.Equal(t, "press event", got.Opportunities)
	assert.Contains(t, c.prompts[0].User, "title-T")
	assert.NotContains(t, c.prompts[0].User, "title-U")
	assert.True(t, strings.HasPrefix(c.prompts[0].User, "Today's clipped articles (20)"))
}

func TestSynthesizeInsightReadsProseSections(t *testing.T) {
	prose := `## Headline: Housing takes centre stage
### Key trends
- Rents keep rising
- Council pushes zoning reform
### Political implications
The ruling party gains ground on housing.
### Action suggestions
1. Brief the housing committee
### Risk alerts
* Protest planned downtown
### Opportunities
Joint press event with tenants' union.`
	c := &scriptedCompleter{replies: []reply{{text: prose}}}

	got := newTestClient(c).SynthesizeInsight(context.Background(), []news.Article{{URL: "u", Title: "t"}}, 20)
	assert.Equal(t, "Housing takes centre stage", got.Headline)
	assert.Equal(t, []string{"Rents keep rising", "Council pushes zoning reform"}, got.KeyTrends)
	assert.Equal(t, "The ruling party gains ground on housing.", got.PoliticalImplications)
	assert.Equal(t, []string{"Brief the housing committee"}, got.ActionSuggestions)
	assert.Equal(t, []string{"Protest planned downtown"}, got.RiskAlerts)
	assert.Equal(t, "Joint press event with tenants' union.", got.Opportunities)
}

func TestSynthesizeInsightEmptyInput(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{text: "{}"}}}
	assert.True(t, newTestClient(c).SynthesizeInsight(context.Background(), nil, 20).IsEmpty())
	assert.Equal(t, 0, c.calls())
}
