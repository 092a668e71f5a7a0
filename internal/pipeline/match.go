package pipeline

import (
	"regexp"
	"strings"

	"polemr/internal/config"
	"polemr/internal/util"
)

// Matcher classifies owner and company strings against the configured
// company rules.
type Matcher struct {
	rules            config.Rules
	proposedKeywords []string
	powerPattern     *regexp.Regexp
}

func NewMatcher(rules config.Rules) *Matcher {
	m := &Matcher{
		rules:            rules,
		proposedKeywords: rules.ProposedKeywords(),
	}
	m.powerPattern = util.WholeWordPattern(rules.PowerCompany)
	return m
}

// PowerCompanyPattern is the whole word matcher for the power company
// name, nil when none is configured.
func (m *Matcher) PowerCompanyPattern() *regexp.Regexp {
	return m.powerPattern
}

// IsProposed reports whether an owner string names the proposed
// attacher. A bare "power guy" label counts only when a known company
// name appears alongside it.
func (m *Matcher) IsProposed(owner string) bool {
	o := strings.ToLower(owner)
	for _, kw := range m.proposedKeywords {
		if strings.Contains(o, kw) {
			return true
		}
	}
	if strings.Contains(o, "power guy") {
		var names []string
		for _, kws := range m.rules.TelecomKeywords {
			names = append(names, kws...)
		}
		if len(m.rules.TelecomKeywords) == 0 {
			names = append(names, m.rules.TelecomProviders...)
			names = append(names, m.proposedKeywords...)
		}
		names = append(names, m.rules.PowerKeywords...)
		for _, name := range names {
			n := strings.ToLower(strings.TrimSpace(name))
			if n != "" && n != "power guy" && strings.Contains(o, n) {
				return true
			}
		}
	}
	return false
}

// TelecomProvider resolves an owner string to a configured provider
// name. Keyword tables win, then the proposed spellings, then the
// provider names themselves.
func (m *Matcher) TelecomProvider(owner string) (string, bool) {
	o := strings.ToLower(owner)
	for _, provider := range m.rules.TelecomProviders {
		for _, kw := range m.rules.TelecomKeywords[provider] {
			if kw != "" && strings.Contains(o, strings.ToLower(kw)) {
				return provider, true
			}
		}
	}
	for _, kw := range m.proposedKeywords {
		if strings.Contains(o, kw) {
			return m.rules.ProposedCompany, true
		}
	}
	for _, provider := range m.rules.TelecomProviders {
		p := strings.ToLower(strings.TrimSpace(provider))
		if p != "" && strings.Contains(o, p) {
			return provider, true
		}
	}
	return "", false
}

// IsTelecomCompany reports whether a company is an attacher rather than
// the power company. Blank companies are neither.
func (m *Matcher) IsTelecomCompany(company string) bool {
	c := strings.TrimSpace(company)
	if c == "" {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(m.rules.PowerCompany))
	if p == "" {
		return true
	}
	return !strings.Contains(strings.ToLower(c), p)
}

// IsProposedCompany reports whether the company column carries the
// proposed company's own name.
func (m *Matcher) IsProposedCompany(company string) bool {
	p := strings.ToLower(strings.TrimSpace(m.rules.ProposedCompany))
	return p != "" && strings.Contains(strings.ToLower(company), p)
}

// IsPowerOwner reports whether a span owner string names power plant.
func (m *Matcher) IsPowerOwner(owner string) bool {
	o := strings.ToLower(owner)
	for _, kw := range m.rules.PowerKeywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(o, k) {
			return true
		}
	}
	return false
}
