package insight

import (
	"context"
	"testing"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/stretchr/testify/assert"
)

type stubOracle struct {
	result   oracle.Insight
	calls    int
	maxItems int
}

func (s *stubOracle) SynthesizeInsight(_ context.Context, _ []news.Article, maxItems int) oracle.Insight {
	s.calls++
	s.maxItems = maxItems
	return s.result
}

func TestSynthesizePassesThrough(t *testing.T) {
	o := &stubOracle{result: oracle.Insight{Headline: "Housing week", KeyTrends: []string{"rents"}}}
	got := NewSynthesizer(o, 0, nil).Synthesize(context.Background(), []news.Article{{URL: "u"}})

	assert.Equal(t, "Housing week", got.Headline)
	assert.Equal(t, 20, o.maxItems)
}

func TestSynthesizeDefaultsOnFailure(t *testing.T) {
	o := &stubOracle{}
	got := NewSynthesizer(o, 20, nil).Synthesize(context.Background(), []news.Article{{URL: "u"}})

	assert.Equal(t, 1, o.calls)
	assert.NotEmpty(t, got.Headline)
	assert.Len(t, got.KeyTrends, 1)
}

func TestSynthesizeEmptyInputSkipsOracle(t *testing.T) {
	o := &stubOracle{}
	got := NewSynthesizer(o, 20, nil).Synthesize(context.Background(), nil)

	assert.Equal(t, 0, o.calls)
	assert.False(t, got.IsEmpty())
}
