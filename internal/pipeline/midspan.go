package pipeline

import (
	"sort"
	"strings"

	"polemr/internal"
	"polemr/internal/util"
)

// midspanEntry keeps the owner alongside a parsed midspan height so the
// communication groups can be rebuilt per provider afterwards.
type midspanEntry struct {
	Decimal   float64
	Formatted string
	Owner     string
}

// MidspanResult is the span picture of one section: communication
// provider groups ordered highest first, the merged proposed attacher
// cell, and the lowest power midspan.
type MidspanResult struct {
	CommGroups []internal.ProviderHeightGroup
	Proposed   string
	Power      string
}

// ProcessSection walks the owner/height pairs of a section record and
// sorts every reading into its output bucket. A nil section yields an
// empty result.
func (s *Selector) ProcessSection(section *internal.SectionRow) MidspanResult {
	var result MidspanResult
	if section == nil {
		return result
	}

	byProvider := map[string][]internal.HeightEntry{}
	var telecom []midspanEntry
	var power []internal.HeightEntry

	for i, owner := range section.Owners {
		if i >= len(section.Heights) {
			break
		}
		raw := strings.TrimSpace(section.Heights[i])
		if raw == "" || strings.TrimSpace(owner) == "" {
			continue
		}
		formatted := util.FormatHeight(raw, s.decimal)
		dec, decOK := util.ParseHeightDecimal(raw)

		proposed := s.matcher.IsProposed(owner)
		provider, matched := s.matcher.TelecomProvider(owner)
		if proposed {
			byProvider[s.rules.ProposedCompany] = append(byProvider[s.rules.ProposedCompany],
				internal.HeightEntry{Formatted: formatted, Decimal: dec})
		} else if matched {
			byProvider[provider] = append(byProvider[provider],
				internal.HeightEntry{Formatted: formatted, Decimal: dec})
		}
		if (matched || proposed) && decOK && dec > 0 && formatted != "" && !proposed {
			telecom = append(telecom, midspanEntry{Decimal: dec, Formatted: formatted, Owner: owner})
		}
		if s.matcher.IsPowerOwner(owner) && decOK && dec > 0 {
			power = append(power, internal.HeightEntry{Formatted: formatted, Decimal: dec})
		}
	}

	commByProvider := map[string][]internal.HeightEntry{}
	for _, e := range telecom {
		provider, ok := s.matcher.TelecomProvider(e.Owner)
		if !ok {
			continue
		}
		commByProvider[provider] = append(commByProvider[provider],
			internal.HeightEntry{Formatted: e.Formatted, Decimal: e.Decimal})
	}
	for provider, entries := range commByProvider {
		result.CommGroups = append(result.CommGroups, combineGroup(provider, entries))
	}
	sort.SliceStable(result.CommGroups, func(i, j int) bool {
		a, b := result.CommGroups[i], result.CommGroups[j]
		if a.Heights[0].Decimal != b.Heights[0].Decimal {
			return a.Heights[0].Decimal > b.Heights[0].Decimal
		}
		return a.Provider < b.Provider
	})

	if entries := byProvider[s.rules.ProposedCompany]; len(entries) > 0 {
		result.Proposed = combineGroup(s.rules.ProposedCompany, entries).Combined
	}

	if len(power) > 0 {
		best := power[0]
		for _, e := range power[1:] {
			if e.Decimal < best.Decimal {
				best = e
			}
		}
		result.Power = best.Formatted
	}
	return result
}
