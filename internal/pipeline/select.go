package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/util"
)

// Selector derives per-pole attachment facts from the raw measured rows
// of one SCID sheet.
type Selector struct {
	rules   config.Rules
	matcher *Matcher
	decimal bool
}

func NewSelector(rules config.Rules, matcher *Matcher, decimal bool) *Selector {
	return &Selector{rules: rules, matcher: matcher, decimal: decimal}
}

// attachmentHeight parses a raw inches value into decimal feet plus the
// formatted output string. Zero and negative heights do not count.
func (s *Selector) attachmentHeight(raw string) (string, float64, bool) {
	clean := strings.TrimSpace(strings.NewReplacer(`"`, "", "″", "").Replace(raw))
	inches, err := strconv.ParseFloat(clean, 64)
	if err != nil || inches <= 0 {
		return "", 0, false
	}
	formatted := util.FormatHeight(util.InchesToFeetFormat(raw), s.decimal)
	return formatted, inches / 12, true
}

// powerCompanyRow classifies a company cell against the power company.
// matched means the whole word name appears; eligible additionally
// admits blank companies, and everything when no power company is
// configured.
func (s *Selector) powerCompanyRow(company string) (matched, eligible bool) {
	pat := s.matcher.PowerCompanyPattern()
	if pat == nil {
		return false, true
	}
	if pat.MatchString(company) {
		return true, true
	}
	return false, strings.TrimSpace(company) == ""
}

// PowerAttachments collects every qualifying power attachment on the
// pole, lowest first. The full list matters: the reported height is not
// simply the lowest, it is the lowest that still clears the
// communication attachments (see CalculatePowerHeights).
func (s *Selector) PowerAttachments(records []internal.AttachmentRecord) []internal.PowerAttachment {
	var candidates []internal.PowerAttachment
	for _, rec := range records {
		matched, eligible := s.powerCompanyRow(rec.Company)
		if !eligible {
			continue
		}
		kw, ok := util.LongestKeywordMatch(rec.Measured, s.rules.PowerKeywords)
		if !ok {
			continue
		}
		if util.KeywordRequiresPowerCompany(kw) && !matched {
			continue
		}
		formatted, dec, ok := s.attachmentHeight(rec.HeightIn)
		if !ok {
			continue
		}
		candidates = append(candidates, internal.PowerAttachment{
			Height:        formatted,
			HeightDecimal: dec,
			Company:       rec.Company,
			Measured:      rec.Measured,
			Keyword:       kw,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].HeightDecimal < candidates[j].HeightDecimal
	})
	return candidates
}

// PowerEquipment collects every power equipment item on the pole, lowest
// first. A row can yield more than one item when it matches several
// keywords.
func (s *Selector) PowerEquipment(records []internal.AttachmentRecord) []internal.EquipmentItem {
	var items []internal.EquipmentItem
	for _, rec := range records {
		matched, eligible := s.powerCompanyRow(rec.Company)
		if !eligible {
			continue
		}
		measured := strings.ToLower(rec.Measured)
		for _, kw := range s.rules.PowerEquipmentKeywords {
			k := strings.ToLower(strings.TrimSpace(kw))
			if k == "" || !strings.Contains(measured, k) {
				continue
			}
			if util.KeywordRequiresPowerCompany(kw) && !matched {
				continue
			}
			formatted, dec, ok := s.attachmentHeight(firstNonBlank(rec.HeightIn, rec.OtherHeights))
			if !ok {
				continue
			}
			items = append(items, internal.EquipmentItem{
				Name:          s.rules.EquipmentDisplayName(kw),
				Height:        formatted,
				HeightDecimal: dec,
				Measured:      rec.Measured,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].HeightDecimal < items[j].HeightDecimal
	})
	return items
}

// FormatEquipment renders equipment items as one Name=height line each.
func FormatEquipment(items []internal.EquipmentItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s=%s", item.Name, item.Height))
	}
	return strings.Join(lines, "\n")
}

func firstNonBlank(primary string, rest []string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	for _, v := range rest {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// CommSelection is the communication picture of one pole: provider
// groups ordered highest first (the first four fill the comm slots),
// the merged proposed attacher group, and the deduplicated non-proposed
// heights used as the power selection floor.
type CommSelection struct {
	Groups         []internal.ProviderHeightGroup
	Proposed       *internal.ProviderHeightGroup
	TelecomHeights []float64
}

// CommAttachments selects the communication attachments on a pole. Rows
// qualify when the measured label matches a comm keyword, the company is
// an attacher other than the power company, and the company is not the
// proposed attacher itself.
func (s *Selector) CommAttachments(records []internal.AttachmentRecord) CommSelection {
	byProvider := map[string][]internal.HeightEntry{}
	var telecom []float64
	for _, rec := range records {
		if !util.MatchesCommKeyword(rec.Measured, s.rules.CommKeywords) {
			continue
		}
		if !s.matcher.IsTelecomCompany(rec.Company) {
			continue
		}
		if s.matcher.IsProposedCompany(rec.Company) {
			continue
		}
		formatted, dec, ok := s.attachmentHeight(rec.HeightIn)
		if !ok {
			continue
		}
		provider := strings.TrimSpace(rec.Company)
		if p, found := s.matcher.TelecomProvider(rec.Company); found {
			provider = p
		}
		byProvider[provider] = append(byProvider[provider], internal.HeightEntry{Formatted: formatted, Decimal: dec})
		if !s.matcher.IsProposed(provider) && !containsNear(telecom, dec) {
			telecom = append(telecom, dec)
		}
	}

	var sel CommSelection
	sel.TelecomHeights = telecom
	var proposedHeights []internal.HeightEntry
	for provider, entries := range byProvider {
		if s.matcher.IsProposed(provider) {
			proposedHeights = append(proposedHeights, entries...)
			continue
		}
		sel.Groups = append(sel.Groups, combineGroup(provider, entries))
	}
	sort.SliceStable(sel.Groups, func(i, j int) bool {
		a, b := sel.Groups[i], sel.Groups[j]
		if a.Heights[0].Decimal != b.Heights[0].Decimal {
			return a.Heights[0].Decimal > b.Heights[0].Decimal
		}
		return a.Provider < b.Provider
	})
	if len(proposedHeights) > 0 {
		g := combineGroup(s.rules.ProposedCompany, proposedHeights)
		sel.Proposed = &g
	}
	return sel
}

// combineGroup sorts a provider's heights highest first, drops formatted
// duplicates, and joins the survivors for the output cell.
func combineGroup(provider string, entries []internal.HeightEntry) internal.ProviderHeightGroup {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Decimal > entries[j].Decimal
	})
	seen := map[string]bool{}
	var kept []internal.HeightEntry
	var parts []string
	for _, e := range entries {
		if seen[e.Formatted] {
			continue
		}
		seen[e.Formatted] = true
		kept = append(kept, e)
		parts = append(parts, e.Formatted)
	}
	return internal.ProviderHeightGroup{
		Provider: provider,
		Heights:  kept,
		Combined: strings.Join(parts, ", "),
	}
}

func containsNear(values []float64, v float64) bool {
	for _, have := range values {
		if math.Abs(have-v) < 0.01 {
			return true
		}
	}
	return false
}

// CalculatePowerHeights settles the power height and type for a pole.
// Candidates at or above the highest communication attachment win first;
// the lowest of those is reported, falling back to the lowest candidate
// overall when nothing clears the floor.
func CalculatePowerHeights(candidates []internal.PowerAttachment, telecomHeights []float64) (height, powerType string) {
	var valid []internal.PowerAttachment
	for _, c := range candidates {
		if c.HeightDecimal > 0 {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return "", ""
	}
	floor := 0.0
	for _, h := range telecomHeights {
		if h > floor {
			floor = h
		}
	}
	var above []internal.PowerAttachment
	for _, c := range valid {
		if c.HeightDecimal >= floor {
			above = append(above, c)
		}
	}
	pool := above
	if len(pool) == 0 {
		pool = valid
	}
	best := pool[0]
	for _, c := range pool[1:] {
		if c.HeightDecimal < best.HeightDecimal {
			best = c
		}
	}
	return best.Height, best.Keyword
}

// Streetlight finds the lowest light fixture on the pole regardless of
// owner, for the bottom of bracket column.
func (s *Selector) Streetlight(records []internal.AttachmentRecord) *internal.StreetlightAttachment {
	re := util.BuildKeywordRegex(s.rules.StreetLightKeywords)
	if re == nil {
		return nil
	}
	var best *internal.StreetlightAttachment
	for _, rec := range records {
		if !re.MatchString(strings.ToLower(rec.Measured)) {
			continue
		}
		formatted, dec, ok := s.attachmentHeight(rec.HeightIn)
		if !ok {
			continue
		}
		if best == nil || dec < best.HeightDecimal {
			best = &internal.StreetlightAttachment{
				Height:        formatted,
				HeightDecimal: dec,
				Measured:      rec.Measured,
			}
		}
	}
	return best
}

// StreetLightHeight finds the lowest street light owned by the power
// company. When any street keyword mentions a riser only power company
// rows are considered at all; otherwise blank companies also count.
func (s *Selector) StreetLightHeight(records []internal.AttachmentRecord) string {
	re := util.BuildKeywordRegex(s.rules.StreetLightKeywords)
	if re == nil {
		return ""
	}
	var riserKeywords []string
	for _, kw := range s.rules.StreetLightKeywords {
		if util.KeywordRequiresPowerCompany(kw) {
			riserKeywords = append(riserKeywords, kw)
		}
	}
	bestDec := math.Inf(1)
	best := ""
	for _, rec := range records {
		matched, eligible := s.powerCompanyRow(rec.Company)
		if len(riserKeywords) > 0 {
			if !matched {
				continue
			}
		} else if !eligible {
			continue
		}
		if !re.MatchString(strings.ToLower(rec.Measured)) {
			continue
		}
		if !matched && util.ContainsAny(rec.Measured, riserKeywords) {
			continue
		}
		clean := strings.TrimSpace(strings.NewReplacer(`"`, "", "″", "").Replace(rec.HeightIn))
		inches, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			continue
		}
		if dec := inches / 12; dec < bestDec {
			bestDec = dec
			best = util.FormatHeight(util.InchesToFeetFormat(rec.HeightIn), s.decimal)
		}
	}
	return best
}

// CountRisers counts riser rows on the pole, skipping rows that belong
// to the proposed attacher.
func (s *Selector) CountRisers(records []internal.AttachmentRecord) int {
	excluded := s.rules.TelecomKeywords[s.rules.ProposedCompany]
	n := 0
	for _, rec := range records {
		if !strings.Contains(strings.ToLower(rec.Measured), "riser") {
			continue
		}
		if util.ContainsAny(rec.Company, excluded) || util.ContainsAny(rec.Measured, excluded) {
			continue
		}
		n++
	}
	return n
}
