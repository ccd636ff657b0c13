package oracle

import "github.com/deusflow/newsclip/internal/news"

const defaultCategory = "general"

type ClassifyRequest struct {
	Title        string
	Description  string
	CategoryHint string
}

// Classification is the oracle's verdict on one article.
type Classification struct {
	RelevanceScore  int
	ImportanceScore int
	Category        string
	IsRelevant      bool
	Reason          string
}

func defaultClassification(req ClassifyRequest, reason string) Classification {
	category := req.CategoryHint
	if category == "" {
		category = defaultCategory
	}
	return Classification{
		RelevanceScore:  0,
		ImportanceScore: 1,
		Category:        category,
		IsRelevant:      false,
		Reason:          reason,
	}
}

type SummarizeRequest struct {
	Title    string
	Content  string
	Category string
}

type Summary struct {
	OneLineSummary  string
	DetailedSummary news.DetailedSummary
	Keywords        []string
	UrgencyNote     string
}

func defaultSummary(req SummarizeRequest) Summary {
	return Summary{
		OneLineSummary:  req.Title,
		DetailedSummary: news.DetailedSummary{ActionItems: []string{}},
		Keywords:        []string{},
	}
}

// Insight is the editorial synthesis over one run's ranked articles.
type Insight struct {
	Headline              string   `json:"headline"`
	KeyTrends             []string `json:"key_trends"`
	PoliticalImplications string   `json:"political_implications"`
	ActionSuggestions     []string `json:"action_suggestions"`
	RiskAlerts            []string `json:"risk_alerts"`
	Opportunities         string   `json:"opportunities"`
}

// IsEmpty reports whether no section was filled.
func (in Insight) IsEmpty() bool {
	return in.Headline == "" && len(in.KeyTrends) == 0 && in.PoliticalImplications == "" &&
		len(in.ActionSuggestions) == 0 && len(in.RiskAlerts) == 0 && in.Opportunities == ""
}

type classificationWire struct {
	Index           looseInt  `json:"index"`
	RelevanceScore  looseInt  `json:"relevance_score"`
	ImportanceScore looseInt  `json:"importance_score"`
	Category        string    `json:"category"`
	IsRelevant      looseBool `json:"is_relevant"`
	Reason          string    `json:"reason"`
}

func (w classificationWire) empty() bool {
	return !w.RelevanceScore.Set && !w.ImportanceScore.Set && !w.IsRelevant.Set &&
		w.Category == "" && w.Reason == ""
}

func (w classificationWire) toClassification() Classification {
	c := Classification{
		RelevanceScore:  clamp(w.RelevanceScore.Value, 0, 100),
		ImportanceScore: 1,
		Category:        w.Category,
		IsRelevant:      w.IsRelevant.Value,
		Reason:          w.Reason,
	}
	if w.ImportanceScore.Set {
		c.ImportanceScore = clamp(w.ImportanceScore.Value, 1, 5)
	}
	return c
}

type summaryWire struct {
	OneLineSummary  string `json:"one_line_summary"`
	DetailedSummary struct {
		Background       looseText `json:"background"`
		CurrentSituation looseText `json:"current_situation"`
		Impact           looseText `json:"impact"`
		ActionItems      looseList `json:"action_items"`
	} `json:"detailed_summary"`
	Keywords    looseList `json:"keywords"`
	UrgencyNote looseText `json:"urgency_note"`
}

type insightWire struct {
	Headline              looseText `json:"headline"`
	KeyTrends             looseList `json:"key_trends"`
	PoliticalImplications looseText `json:"political_implications"`
	ActionSuggestions     looseList `json:"action_suggestions"`
	RiskAlerts            looseList `json:"risk_alerts"`
	Opportunities         looseText `json:"opportunities"`
}

func (w insightWire) toInsight() Insight {
	return Insight{
		Headline:              string(w.Headline),
		KeyTrends:             []string(w.KeyTrends),
		PoliticalImplications: string(w.PoliticalImplications),
		ActionSuggestions:     []string(w.ActionSuggestions),
		RiskAlerts:            []string(w.RiskAlerts),
		Opportunities:         string(w.Opportunities),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
