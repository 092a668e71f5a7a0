package util

import (
	"regexp"
	"sort"
	"strings"
)

// MatchesCommKeyword reports whether a measured label matches one of the
// communication attachment keywords. A trailing '*' makes the keyword a
// substring match; "guy" is always compared exactly so it cannot swallow
// "power guy"; everything else is an exact, case-insensitive match.
func MatchesCommKeyword(measured string, keywords []string) bool {
	m := strings.ToLower(strings.TrimSpace(measured))
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		switch {
		case k == "guy":
			if k == m {
				return true
			}
		case strings.HasSuffix(k, "*"):
			if strings.Contains(m, strings.TrimSuffix(k, "*")) {
				return true
			}
		default:
			if k == m {
				return true
			}
		}
	}
	return false
}

// LongestKeywordMatch returns the longest configured keyword contained in
// the text, preserving its configured casing. Longest-first so "secondary
// drip loop" beats "secondary".
func LongestKeywordMatch(text string, keywords []string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	clean := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			clean = append(clean, kw)
		}
	}
	sort.SliceStable(clean, func(i, j int) bool {
		return len(strings.TrimSpace(clean[i])) > len(strings.TrimSpace(clean[j]))
	})
	for _, kw := range clean {
		if strings.Contains(t, strings.ToLower(strings.TrimSpace(kw))) {
			return kw, true
		}
	}
	return "", false
}

// KeywordRequiresPowerCompany marks keywords that only count when the row
// belongs to the power company. Riser shows up for every attacher, so a
// bare riser row must not be read as power plant.
func KeywordRequiresPowerCompany(keyword string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(keyword)), "riser")
}

// BuildKeywordRegex compiles a keyword list into one alternation pattern,
// with '*' acting as a wildcard. Returns nil for an empty list.
func BuildKeywordRegex(keywords []string) *regexp.Regexp {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(kw), `\*`, `.*`))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?:` + strings.Join(parts, "|") + `)`)
}

// WholeWordPattern compiles a case-insensitive whole word matcher for a
// company name. Returns nil for blank input.
func WholeWordPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

// ContainsAny reports whether text contains any of the keywords,
// case-insensitive substring semantics.
func ContainsAny(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(t, k) {
			return true
		}
	}
	return false
}
