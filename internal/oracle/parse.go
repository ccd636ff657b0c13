package oracle

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// stripFences returns the body of the first fenced block, or the text as is.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// extractSpan returns the first balanced span opened by open ('{' or '['),
// ignoring brackets inside JSON strings.
func extractSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeObject tolerantly parses a JSON object out of an oracle answer.
func decodeObject(text string, v any) bool {
	body := stripFences(text)
	if json.Unmarshal([]byte(body), v) == nil {
		return true
	}
	span, ok := extractSpan(body, '{', '}')
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), v) == nil
}

// decodeArray tolerantly parses a JSON array out of an oracle answer.
func decodeArray(text string, v any) bool {
	body := stripFences(text)
	if strings.HasPrefix(body, "[") && json.Unmarshal([]byte(body), v) == nil {
		return true
	}
	span, ok := extractSpan(body, '[', ']')
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), v) == nil
}

// looseInt accepts 75, 75.0 and "75".
type looseInt struct {
	Value int
	Set   bool
}

func (l *looseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	l.Value, l.Set = int(f), true
	return nil
}

// looseBool accepts true, "true", "yes" and 1.
type looseBool struct {
	Value bool
	Set   bool
}

func (l *looseBool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(data)), `"`))
	switch s {
	case "true", "yes", "1":
		l.Value, l.Set = true, true
	case "false", "no", "0":
		l.Value, l.Set = false, true
	}
	return nil
}

// looseText accepts a string or a list of strings (joined by spaces).
type looseText string

func (l *looseText) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) == nil {
		*l = looseText(s)
		return nil
	}
	var list []string
	if json.Unmarshal(data, &list) == nil {
		*l = looseText(strings.Join(list, " "))
	}
	return nil
}

// looseList accepts a list of strings or a single string.
type looseList []string

func (l *looseList) UnmarshalJSON(data []byte) error {
	var list []string
	if json.Unmarshal(data, &list) == nil {
		*l = list
		return nil
	}
	var s string
	if json.Unmarshal(data, &s) == nil && strings.TrimSpace(s) != "" {
		*l = []string{s}
	}
	return nil
}

type insightSection int

const (
	sectionNone insightSection = iota
	sectionHeadline
	sectionTrends
	sectionImplications
	sectionSuggestions
	sectionRisks
	sectionOpportunities
)

var sectionKeywords = []struct {
	needle  string
	section insightSection
}{
	{"headline", sectionHeadline},
	{"trend", sectionTrends},
	{"implication", sectionImplications},
	{"suggestion", sectionSuggestions},
	{"action", sectionSuggestions},
	{"risk", sectionRisks},
	{"opportunit", sectionOpportunities},
}

var bulletRe = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+`)

// parseInsightSections reads a prose answer laid out under section headers.
// Bulleted lines are collected into the current section.
func parseInsightSections(text string) Insight {
	var in Insight
	current := sectionNone
	var implications, opportunities []string

	add := func(s insightSection, line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		switch s {
		case sectionHeadline:
			if in.Headline == "" {
				in.Headline = line
			}
		case sectionTrends:
			in.KeyTrends = append(in.KeyTrends, line)
		case sectionImplications:
			implications = append(implications, line)
		case sectionSuggestions:
			in.ActionSuggestions = append(in.ActionSuggestions, line)
		case sectionRisks:
			in.RiskAlerts = append(in.RiskAlerts, line)
		case sectionOpportunities:
			opportunities = append(opportunities, line)
		}
	}

	for _, raw := range strings.Split(stripFences(text), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if bulletRe.MatchString(line) {
			add(current, bulletRe.ReplaceAllString(line, ""))
			continue
		}

		header := strings.Trim(line, "#*_ ")
		label, rest, hasColon := strings.Cut(header, ":")
		lower := strings.ToLower(label)
		matched := sectionNone
		for _, kw := range sectionKeywords {
			if strings.Contains(lower, kw.needle) {
				matched = kw.section
				break
			}
		}
		if matched != sectionNone && (hasColon || len(label) <= 40) {
			current = matched
			if hasColon {
				add(current, strings.Trim(rest, "*_ "))
			}
			continue
		}
		// Plain lines only feed the free-text sections.
		switch current {
		case sectionHeadline, sectionImplications, sectionOpportunities:
			add(current, line)
		}
	}

	in.PoliticalImplications = strings.Join(implications, " ")
	in.Opportunities = strings.Join(opportunities, " ")
	return in
}
