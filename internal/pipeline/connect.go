package pipeline

import (
	"strconv"
	"strings"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/ingest"
	"polemr/internal/util"
)

// connInfo is what a resolved connection contributes to a row.
type connInfo struct {
	ConnectionID string
	SpanDistance string
}

// Processor turns the loaded workbooks into output rows.
type Processor struct {
	rules    config.Rules
	job      *ingest.Job
	attach   *ingest.AttachmentSet
	template *ingest.Template
	qc       *ingest.QCSet
	reports  *ingest.ReportReader
	matcher  *Matcher
	selector *Selector

	coordPlaces int

	spanMap   map[[2]string]string
	conflicts []internal.SpanConflict
}

// Options tunes output rendering.
type Options struct {
	OutputDecimal    bool
	CoordinatePlaces int
}

func NewProcessor(rules config.Rules, job *ingest.Job, attach *ingest.AttachmentSet,
	template *ingest.Template, qc *ingest.QCSet, reports *ingest.ReportReader,
	opts Options) *Processor {
	if opts.CoordinatePlaces <= 0 {
		opts.CoordinatePlaces = 7
	}
	matcher := NewMatcher(rules)
	p := &Processor{
		rules:       rules,
		job:         job,
		attach:      attach,
		template:    template,
		qc:          qc,
		reports:     reports,
		matcher:     matcher,
		selector:    NewSelector(rules, matcher, opts.OutputDecimal),
		coordPlaces: opts.CoordinatePlaces,
	}
	p.buildSpanMap()
	return p
}

// buildSpanMap fixes one span distance per pole pair. The first
// connection row seen wins; later rows that disagree are recorded as
// conflicts and ignored.
func (p *Processor) buildSpanMap() {
	p.spanMap = map[[2]string]string{}
	for _, conn := range p.job.Connections {
		if conn.SCID1 == "" || conn.SCID2 == "" {
			continue
		}
		key := pairKey(conn.SCID1, conn.SCID2)
		kept, seen := p.spanMap[key]
		if !seen {
			p.spanMap[key] = conn.SpanDistance
			continue
		}
		if kept != conn.SpanDistance {
			p.conflicts = append(p.conflicts, internal.SpanConflict{
				SCID1: key[0],
				SCID2: key[1],
				Kept:  kept,
				Seen:  conn.SpanDistance,
			})
		}
	}
}

// Conflicts returns the span disagreements found while building the map.
func (p *Processor) Conflicts() []internal.SpanConflict {
	return p.conflicts
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// findConnection looks up the connection row joining two SCIDs in either
// orientation. The span comes from the span map so duplicated rows stay
// consistent.
func (p *Processor) findConnection(pole, toPole string) (connInfo, bool) {
	for _, conn := range p.job.Connections {
		if conn.SCID1 == "" || conn.SCID2 == "" {
			continue
		}
		if (conn.SCID1 == pole && conn.SCID2 == toPole) || (conn.SCID1 == toPole && conn.SCID2 == pole) {
			span := conn.SpanDistance
			if kept, ok := p.spanMap[pairKey(conn.SCID1, conn.SCID2)]; ok {
				span = kept
			}
			return connInfo{ConnectionID: conn.ConnectionID, SpanDistance: span}, true
		}
	}
	return connInfo{}, false
}

// findSpanLoose is the fallback lookup for QC connections the main
// sheet does not know: any SCID or node id combination counts.
func (p *Processor) findSpanLoose(pole, toPole string) string {
	for _, conn := range p.job.Connections {
		scid1, scid2 := conn.SCID1, conn.SCID2
		if scid1 == "" {
			scid1 = conn.NodeID1
		}
		if scid2 == "" {
			scid2 = conn.NodeID2
		}
		match := (scid1 == pole && scid2 == toPole) || (scid1 == toPole && scid2 == pole) ||
			(conn.NodeID1 == pole && conn.NodeID2 == toPole) || (conn.NodeID1 == toPole && conn.NodeID2 == pole)
		if match && strings.TrimSpace(conn.SpanDistance) != "" {
			return conn.SpanDistance
		}
	}
	return ""
}

func isEndMarker(value string) bool {
	return strings.ToUpper(strings.TrimSpace(value)) == "END"
}

// invalidToPole marks template To Pole cells that cannot name a real
// span target.
func invalidToPole(toPole string) bool {
	t := strings.TrimSpace(toPole)
	return t == "" || isEndMarker(t) || strings.EqualFold(t, "N/A") || t == "nan"
}

// applyEndMarker preserves END placeholders: a row ending a run keeps
// END in the span and every midspan column.
func applyEndMarker(row *internal.OutputRow) {
	if row == nil || !isEndMarker(row.ToPole) {
		return
	}
	row.SpanLength = "END"
	row.PowerMidspan = "END"
	row.Comm1Midspan = "END"
	row.Comm2Midspan = "END"
	row.Comm3Midspan = "END"
	row.Comm4Midspan = "END"
	row.ProposedMidspan = "END"
	for provider := range row.ProviderMidspans {
		row.ProviderMidspans[provider] = "END"
	}
}

// createOutputRow assembles the full row for one pole/to-pole span. The
// SCIDs are normalized; the caller restores the template's original
// text afterwards.
func (p *Processor) createOutputRow(poleSCID, toPoleSCID string, conn connInfo) *internal.OutputRow {
	if strings.TrimSpace(poleSCID) == "" || strings.TrimSpace(toPoleSCID) == "" || isEndMarker(toPoleSCID) {
		return nil
	}
	node, ok := p.job.NodeBySCID[poleSCID]
	if !ok {
		return nil
	}
	toNode := p.job.NodeBySCID[toPoleSCID]
	poleToReference := toNode.Type == internal.NodeReference

	row := &internal.OutputRow{Pole: poleSCID, ToPole: toPoleSCID}
	p.fillPoleFields(row, node, poleSCID)

	if !poleToReference {
		section := p.job.SectionFor(conn.ConnectionID)
		p.fillMidspanFields(row, section)
	}

	span := conn.SpanDistance
	if p.qc != nil && p.qc.Active() {
		span = ApplySpanTolerance(span, p.qc.SpanLength(poleSCID, toPoleSCID), p.spanTolerance())
	}
	row.SpanLength = util.FormatSpanDistance(span)
	return row
}

// createPoleOnlyRow covers template rows whose To Pole is unusable: the
// pole facts are still worth emitting, span and midspans stay blank.
func (p *Processor) createPoleOnlyRow(poleSCID, toPoleSCID string) *internal.OutputRow {
	node, ok := p.job.NodeBySCID[poleSCID]
	if !ok {
		return nil
	}
	row := &internal.OutputRow{Pole: poleSCID, ToPole: toPoleSCID}
	p.fillPoleFields(row, node, poleSCID)
	return row
}

// fillPoleFields derives everything that depends on the pole alone.
func (p *Processor) fillPoleFields(row *internal.OutputRow, node internal.Node, poleSCID string) {
	records := p.attachRecords(poleSCID)

	power := p.selector.PowerAttachments(records)
	comm := p.selector.CommAttachments(records)
	row.PowerHeight, row.PowerType = CalculatePowerHeights(power, comm.TelecomHeights)
	fillCommSlots(row, comm.Groups)
	if comm.Proposed != nil {
		row.ProposedHeight = comm.Proposed.Combined
	}
	row.ProviderHeights = providerMap(comm.Groups, comm.Proposed)

	row.PowerEquipment = FormatEquipment(p.selector.PowerEquipment(records))
	if sl := p.selector.Streetlight(records); sl != nil {
		row.StreetLightAlt = sl.Height
	}
	row.StreetLight = p.selector.StreetLightHeight(records)
	row.ExistingRisers = riserCount(p.selector.CountRisers(records))

	row.PoleHeightClass = util.FormatPoleHeightClass(node.PoleSpec)
	row.PoleTag = node.PoleTag
	if node.Latitude != nil {
		row.Latitude = util.RoundCoordinate(formatFloat(*node.Latitude), p.coordPlaces)
	}
	if node.Longitude != nil {
		row.Longitude = util.RoundCoordinate(formatFloat(*node.Longitude), p.coordPlaces)
	}

	notes := node.MRNote
	if p.qc != nil && p.qc.Active() {
		if qcNotes := p.qc.MRNotes(poleSCID); qcNotes != "" {
			notes = qcNotes
		}
	}
	row.Notes = notes
	row.GuyNeeded = GuyNeeded(notes)
	guy := ExtractGuyInfo(node.MRNote)
	if len(guy.Leads) > 0 || len(guy.Directions) > 0 {
		row.GuySize = strings.Join(guy.Sizes, ", ")
		row.GuyLead = strings.Join(guy.Leads, ", ")
		row.GuyDirection = strings.Join(guy.Directions, ", ")
	}

	if p.reports != nil {
		pdf := p.reports.ExtractPoleData(util.PoleNumberFromSCID(poleSCID, p.rules.IgnoreSCIDKeywords))
		row.StructureType = util.CleanStructureType(pdf.StructureType)
		row.ExistingLoad = pdf.ExistingLoad
		row.ProposedLoad = pdf.ProposedLoad
	}
}

// fillMidspanFields derives everything that depends on the span section.
func (p *Processor) fillMidspanFields(row *internal.OutputRow, section *internal.SectionRow) {
	mid := p.selector.ProcessSection(section)
	slots := []*string{&row.Comm1Midspan, &row.Comm2Midspan, &row.Comm3Midspan, &row.Comm4Midspan}
	for i, group := range mid.CommGroups {
		if i >= len(slots) {
			break
		}
		*slots[i] = group.Combined
	}
	row.ProposedMidspan = mid.Proposed
	row.PowerMidspan = mid.Power

	if len(mid.CommGroups) > 0 || mid.Proposed != "" {
		row.ProviderMidspans = make(map[string]string, len(mid.CommGroups)+1)
		for _, group := range mid.CommGroups {
			row.ProviderMidspans[group.Provider] = group.Combined
		}
		if mid.Proposed != "" {
			row.ProviderMidspans[p.rules.ProposedCompany] = mid.Proposed
		}
	}
}

// providerMap collects the per-provider combined cells, the proposed
// attacher included under its own name.
func providerMap(groups []internal.ProviderHeightGroup, proposed *internal.ProviderHeightGroup) map[string]string {
	if len(groups) == 0 && proposed == nil {
		return nil
	}
	m := make(map[string]string, len(groups)+1)
	for _, group := range groups {
		m[group.Provider] = group.Combined
	}
	if proposed != nil {
		m[proposed.Provider] = proposed.Combined
	}
	return m
}

func fillCommSlots(row *internal.OutputRow, groups []internal.ProviderHeightGroup) {
	slots := []*string{&row.Comm1, &row.Comm2, &row.Comm3, &row.Comm4}
	for i, group := range groups {
		if i >= len(slots) {
			break
		}
		*slots[i] = group.Combined
	}
}

func (p *Processor) attachRecords(scid string) []internal.AttachmentRecord {
	if p.attach == nil {
		return nil
	}
	return p.attach.Records(scid)
}

func (p *Processor) spanTolerance() float64 {
	if p.rules.SpanTolerance > 0 {
		return p.rules.SpanTolerance
	}
	return 3
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func riserCount(n int) string {
	return strconv.Itoa(n)
}
