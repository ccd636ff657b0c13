package oracle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deusflow/newsclip/internal/news"
)

// Prompts holds the system prompts sent ahead of every request.
type Prompts struct {
	Filter    string
	Summarize string
	Insight   string
}

// DefaultPrompts are used when no prompt directory is configured.
func DefaultPrompts() Prompts {
	return Prompts{
		Filter: `You screen regional news for a provincial political office.
Score how relevant the article is to regional politics, administration,
budget, economy, welfare and local elections, and how important it is for
the office to know today.

Reply with JSON only:
{"relevance_score": 0-100, "importance_score": 1-5, "category": "politics|administration|economy|society|welfare|environment|general", "is_relevant": true|false, "reason": "one sentence"}`,
		Summarize: `You write briefing notes for a provincial political office.
Summarize the article for a busy reader. Keep names and figures exact.

Reply with JSON only:
{"one_line_summary": "...", "detailed_summary": {"background": "...", "current_situation": "...", "impact": "...", "action_items": ["..."]}, "keywords": ["..."], "urgency_note": "... or null"}`,
		Insight: `You are the chief analyst of a provincial political office.
Read today's clipped articles and write one editorial insight.

Reply with JSON only:
{"headline": "...", "key_trends": ["..."], "political_implications": "...", "action_suggestions": ["..."], "risk_alerts": ["..."], "opportunities": "..."}`,
	}
}

// LoadPrompts reads filter_prompt.txt, summarize_prompt.txt and
// insight_prompt.txt from dir. Missing files keep their default.
func LoadPrompts(dir string) (Prompts, error) {
	p := DefaultPrompts()
	if dir == "" {
		return p, nil
	}
	files := map[string]*string{
		"filter_prompt.txt":    &p.Filter,
		"summarize_prompt.txt": &p.Summarize,
		"insight_prompt.txt":   &p.Insight,
	}
	for name, target := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return p, fmt.Errorf("read prompt %s: %w", name, err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			*target = text
		}
	}
	return p, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func classifyMessage(req ClassifyRequest) string {
	return fmt.Sprintf(`Evaluate the following article.

## Article
- Title: %s
- Description: %s
- Category hint: %s

## Request
Rate its relevance and importance and answer in JSON.`,
		req.Title, orDefault(req.Description, "(none)"), orDefault(req.CategoryHint, "(none)"))
}

func batchMessage(chunk []ClassifyRequest) string {
	var b strings.Builder
	b.WriteString("Evaluate each of the following articles.\n\n## Articles\n")
	for i, req := range chunk {
		fmt.Fprintf(&b, "[%d] Title: %s\n    Description: %s\n    Category hint: %s\n",
			i+1, req.Title, orDefault(req.Description, "(none)"), orDefault(req.CategoryHint, "(none)"))
	}
	b.WriteString(`
## Request
Answer with a JSON array holding one object per article, each carrying the
article number as "index" next to the fields described above:
[{"index": 1, "relevance_score": 0-100, "importance_score": 1-5, "category": "...", "is_relevant": true|false, "reason": "..."}]`)
	return b.String()
}

func summarizeMessage(req SummarizeRequest) string {
	return fmt.Sprintf(`Summarize the following article.

## Article
- Title: %s
- Category: %s
- Body:
%s

## Request
Produce the structured summary and answer in JSON.`,
		req.Title, orDefault(req.Category, defaultCategory),
		orDefault(req.Content, "(no body, summarize from the title only)"))
}

func insightMessage(articles []news.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's clipped articles (%d):\n\n", len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. [%s] %s (importance %d, relevance %d)\n",
			i+1, orDefault(a.Category, defaultCategory), a.Title, a.Importance(), a.Relevance())
		if a.OneLineSummary != "" && a.OneLineSummary != a.Title {
			fmt.Fprintf(&b, "   %s\n", a.OneLineSummary)
		}
	}
	b.WriteString("\n## Request\nWrite today's insight and answer in JSON.")
	return b.String()
}
