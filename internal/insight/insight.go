package insight

import (
	"context"
	"log/slog"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
)

// Oracle produces the raw insight.
type Oracle interface {
	SynthesizeInsight(ctx context.Context, articles []news.Article, maxItems int) oracle.Insight
}

// Synthesizer wraps the oracle insight with a fallback so a run always has
// something to publish.
type Synthesizer struct {
	oracle   Oracle
	maxItems int
	logger   *slog.Logger
}

func NewSynthesizer(o Oracle, maxItems int, logger *slog.Logger) *Synthesizer {
	if maxItems <= 0 {
		maxItems = oracle.DefaultInsightMaxItems
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{oracle: o, maxItems: maxItems, logger: logger.With("component", "insight")}
}

// Synthesize builds the insight for ranked articles; only the top maxItems are used.
func (s *Synthesizer) Synthesize(ctx context.Context, ranked []news.Article) oracle.Insight {
	if len(ranked) == 0 {
		return Default("no articles were selected in this run")
	}
	in := s.oracle.SynthesizeInsight(ctx, ranked, s.maxItems)
	if in.IsEmpty() {
		s.logger.Warn("⚠️ Insight unavailable, using default", "articles", len(ranked))
		return Default("the insight could not be generated automatically")
	}
	s.logger.Info("💡 Insight ready", "headline", in.Headline)
	return in
}

// Default is the placeholder insight used when synthesis fails.
func Default(reason string) oracle.Insight {
	return oracle.Insight{
		Headline:          "Today's news clipping",
		KeyTrends:         []string{"Automatic analysis is unavailable: " + reason + ". Please review the articles directly."},
		ActionSuggestions: []string{},
		RiskAlerts:        []string{},
	}
}
