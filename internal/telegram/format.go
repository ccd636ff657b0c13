package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/oracle"
	"github.com/deusflow/newsclip/internal/ranking"
)

// OtherRegion is reported when no region keyword matches a title.
const OtherRegion = "other"

const (
	maxFieldRunes   = 600
	maxDigestItems  = 5
	maxRelatedLinks = 5
	unknownMedia    = "unknown"
)

var importanceEmoji = map[int]string{
	5: "🚨",
	4: "⭐",
	3: "📌",
	2: "📄",
	1: "📋",
}

// RegionRule maps title keywords to a region name.
type RegionRule struct {
	Region   string   `yaml:"region"`
	Keywords []string `yaml:"keywords"`
}

// RegionTable is checked in order; put cities before the wider province.
type RegionTable []RegionRule

// DefaultRegionTable covers the province's main cities, then the province itself.
func DefaultRegionTable() RegionTable {
	return RegionTable{
		{Region: "김해", Keywords: []string{"김해", "김해시"}},
		{Region: "진주", Keywords: []string{"진주", "진주시"}},
		{Region: "양산", Keywords: []string{"양산", "양산시"}},
		{Region: "거제", Keywords: []string{"거제", "거제시"}},
		{Region: "창원", Keywords: []string{"창원", "마산", "진해", "창원시"}},
		{Region: "경상남도", Keywords: []string{"경남", "경상남도", "도청", "경남도"}},
	}
}

// Extract returns the first region whose keyword appears in title.
// Only the title is searched; descriptions mention too many places.
func (t RegionTable) Extract(title string) string {
	for _, rule := range t {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(title, kw) {
				return rule.Region
			}
		}
	}
	return OtherRegion
}

// Stars renders importance as filled and empty stars out of five.
func Stars(importance int) string {
	importance = max(0, min(importance, 5))
	return strings.Repeat("⭐", importance) + strings.Repeat("☆", 5-importance)
}

// FormatArticle renders one ranked article as a Telegram HTML message.
func FormatArticle(rank int, a news.Article, region string) string {
	var b strings.Builder

	emoji := importanceEmoji[a.Importance()]
	if emoji == "" {
		emoji = "📰"
	}
	fmt.Fprintf(&b, "%s <b>%d. %s</b>\n", emoji, rank, esc(a.Title))

	category := a.Category
	if category == "" {
		category = "general"
	}
	fmt.Fprintf(&b, "%s · 📍 %s · #%s\n", Stars(a.Importance()), esc(region), esc(hashtag(category)))
	if a.MediaName != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", esc(a.MediaName))
	}

	if a.OneLineSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", esc(clip(a.OneLineSummary)))
	}
	if d := a.DetailedSummary; !d.IsZero() {
		writeSection(&b, "Background", d.Background)
		writeSection(&b, "Now", d.CurrentSituation)
		writeSection(&b, "Impact", d.Impact)
		writeList(&b, "To do", d.ActionItems)
	}

	if len(a.Keywords) > 0 {
		tags := make([]string, 0, len(a.Keywords))
		for _, kw := range a.Keywords {
			if tag := hashtag(kw); tag != "" {
				tags = append(tags, "#"+esc(tag))
			}
		}
		if len(tags) > 0 {
			fmt.Fprintf(&b, "\n%s\n", strings.Join(tags, " "))
		}
	}

	fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">Read article</a>\n", esc(a.URL))

	if len(a.RelatedArticles) > 0 {
		b.WriteString("\n<b>Related coverage</b>\n")
		for i, r := range a.RelatedArticles {
			if i == maxRelatedLinks {
				fmt.Fprintf(&b, "… and %d more\n", len(a.RelatedArticles)-maxRelatedLinks)
				break
			}
			media := r.MediaName
			if media == "" {
				media = unknownMedia
			}
			fmt.Fprintf(&b, "• <a href=\"%s\">%s</a> (%s)\n", esc(r.URL), esc(r.Title), esc(media))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatDigest renders the insight together with per-importance and
// per-region counts of the ranked articles.
func FormatDigest(in oracle.Insight, ranked []news.Article, regions RegionTable, now time.Time) string {
	var b strings.Builder

	headline := in.Headline
	if headline == "" {
		headline = "Today's news clipping"
	}
	fmt.Fprintf(&b, "📊 <b>%s</b>\n", esc(headline))
	fmt.Fprintf(&b, "🗓 %s · %d articles\n", now.Format("2006-01-02 15:04"), len(ranked))

	groups := ranking.GroupByImportance(ranked)
	fmt.Fprintf(&b, "🚨 urgent %d · ⭐ important %d · 📌 normal %d · 📋 low %d\n",
		len(groups[ranking.BucketUrgent]), len(groups[ranking.BucketImportant]),
		len(groups[ranking.BucketNormal]), len(groups[ranking.BucketLow]))

	if line := regionCounts(ranked, regions); line != "" {
		fmt.Fprintf(&b, "📍 %s\n", line)
	}

	writeList(&b, "📈 Key trends", in.KeyTrends)
	writeSection(&b, "🏛 Political implications", in.PoliticalImplications)
	writeList(&b, "✅ Suggested actions", in.ActionSuggestions)
	writeList(&b, "⚠️ Risk alerts", in.RiskAlerts)
	writeSection(&b, "💡 Opportunities", in.Opportunities)

	return strings.TrimRight(b.String(), "\n")
}

// regionCounts lists regions in table order, then "other", skipping zeros.
func regionCounts(ranked []news.Article, regions RegionTable) string {
	counts := make(map[string]int)
	for _, a := range ranked {
		counts[regions.Extract(a.Title)]++
	}
	var parts []string
	for _, rule := range regions {
		if n := counts[rule.Region]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", esc(rule.Region), n))
			delete(counts, rule.Region)
		}
	}
	if n := counts[OtherRegion]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", OtherRegion, n))
	}
	return strings.Join(parts, " · ")
}

func writeSection(b *strings.Builder, title, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fmt.Fprintf(b, "\n<b>%s</b>\n%s\n", title, esc(clip(text)))
}

func writeList(b *strings.Builder, title string, items []string) {
	var kept []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return
	}
	fmt.Fprintf(b, "\n<b>%s</b>\n", title)
	for i, item := range kept {
		if i == maxDigestItems {
			break
		}
		fmt.Fprintf(b, "• %s\n", esc(clip(item)))
	}
}

// hashtag turns a phrase into a tag Telegram links as one word.
func hashtag(s string) string {
	return strings.Join(strings.Fields(strings.TrimPrefix(strings.TrimSpace(s), "#")), "_")
}

// Telegram's HTML mode only needs these four escaped.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func esc(s string) string {
	return htmlEscaper.Replace(s)
}

// clip keeps free text under maxFieldRunes so a message stays below
// Telegram's 4096 character limit.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxFieldRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxFieldRunes-1]) + "…"
}
