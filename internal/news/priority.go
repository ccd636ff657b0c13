package news

import "strings"

// PriorityDomain gives articles from a media domain an importance bonus.
type PriorityDomain struct {
	Domain string `yaml:"domain"`
	Bonus  int    `yaml:"bonus"`
}

// PriorityTable is consulted in order; the first domain contained in the URL wins.
type PriorityTable []PriorityDomain

// DefaultPriorityTable lists the regional outlets the clipping service favours.
func DefaultPriorityTable() PriorityTable {
	return PriorityTable{
		{Domain: "idomin.com", Bonus: 2},
		{Domain: "knnews.co.kr", Bonus: 2},
		{Domain: "changwon.kbs.co.kr", Bonus: 2},
		{Domain: "mbcgn.kr", Bonus: 2},
	}
}

// Bonus returns the bonus for url, 0 if no domain matches.
func (t PriorityTable) Bonus(url string) int {
	for _, d := range t {
		if d.Domain != "" && strings.Contains(url, d.Domain) {
			return d.Bonus
		}
	}
	return 0
}

// Contains reports whether url belongs to a priority domain.
func (t PriorityTable) Contains(url string) bool {
	for _, d := range t {
		if d.Domain != "" && strings.Contains(url, d.Domain) {
			return true
		}
	}
	return false
}

// Domains returns the bare domain names.
func (t PriorityTable) Domains() []string {
	out := make([]string, 0, len(t))
	for _, d := range t {
		out = append(out, d.Domain)
	}
	return out
}
