package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/util"
)

const qcAttachmentSheet = "Poles_Joint Use Attachment"

var reAldenHeight = regexp.MustCompile(`^(\d+)ft\s*(\d+)in`)

// QCSet is the audit workbook: ordered Pole/To Pole pairs that drive row
// emission, plus per-pole reference heights for comparison.
type QCSet struct {
	Connections []internal.QCConnection
	Poles       map[string]internal.QCPoleRecord
	PoleOrder   []string

	spanByPair map[[2]string]string
	ignore     []string
	active     bool
}

// LoadQC reads the Alden attachment sheet (headers on row 3) and any
// other sheet carrying an ordered Pole/To Pole list.
func LoadQC(path string, rules config.Rules) (*QCSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open QC workbook: %w", err)
	}
	defer f.Close()

	set := &QCSet{
		Poles:      map[string]internal.QCPoleRecord{},
		spanByPair: map[[2]string]string{},
		ignore:     rules.IgnoreSCIDKeywords,
	}

	if err := set.loadAttachmentSheet(f); err != nil {
		return nil, err
	}
	set.loadOrderedConnections(f)
	set.active = len(set.Poles) > 0 || len(set.Connections) > 0
	return set, nil
}

func (q *QCSet) loadAttachmentSheet(f *excelize.File) error {
	rows, err := f.GetRows(qcAttachmentSheet)
	if err != nil {
		// Workbooks that only carry the connection list are still usable.
		return nil
	}
	if len(rows) < 4 {
		return nil
	}
	header := rows[2]
	find := func(name string) int {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		for i, h := range header {
			if strings.HasSuffix(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	poleCol := find("DesignSketchReferenceNumber")
	notesCol := find("MakeReadyNotes")
	companyCol := find("CompanyName")
	heightCol := find("_Height")
	midspanCol := find("MidSpan")
	statusCol := find("Status")
	typeCol := find("AttachmentType")
	if poleCol < 0 || notesCol < 0 {
		return fmt.Errorf("QC sheet %q missing pole or notes column", qcAttachmentSheet)
	}

	at := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	type commEntry struct {
		attach  string
		midspan string
		decimal float64
	}
	commByPole := map[string][]commEntry{}
	metroSeen := map[string]bool{}

	for _, row := range rows[3:] {
		pole := NormalizePoleNumber(at(row, poleCol))
		if pole == "" {
			continue
		}
		rec, seen := q.Poles[pole]
		if !seen {
			rec = internal.QCPoleRecord{Pole: pole}
			q.PoleOrder = append(q.PoleOrder, pole)
		}
		rec.Notes = notesAfterColon(at(row, notesCol))

		company := at(row, companyCol)
		height := at(row, heightCol)
		midspan := at(row, midspanCol)

		if strings.Contains(company, "Metronet Fiber LLC") && !metroSeen[pole] {
			metroSeen[pole] = true
			rec.MetroAttach = height
			rec.MetroMidspan = midspan
		}
		if strings.Contains(company, "XCEL ENERGY") {
			// Keep the lowest power attachment seen for the pole.
			if rec.PowerAttach == "" ||
				(height != "" && aldenDecimal(height) > 0 &&
					(aldenDecimal(rec.PowerAttach) == 0 || aldenDecimal(height) < aldenDecimal(rec.PowerAttach))) {
				rec.PowerAttach = height
				rec.PowerMidspan = midspan
				rec.PowerType = at(row, typeCol)
			}
		}

		status := strings.ToUpper(at(row, statusCol))
		attachType := strings.ToUpper(at(row, typeCol))
		if status == "EXISTING" && (attachType == "COAX" || attachType == "COMMUNICATION FIBER-OPTIC") && height != "" {
			commByPole[pole] = append(commByPole[pole], commEntry{
				attach:  height,
				midspan: midspan,
				decimal: aldenDecimal(height),
			})
		}

		q.Poles[pole] = rec
	}

	for pole, entries := range commByPole {
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].decimal > entries[b].decimal
		})
		rec := q.Poles[pole]
		for i, e := range entries {
			if i >= 3 {
				break
			}
			rec.CommAttach[i] = e.attach
			rec.CommMidspan[i] = e.midspan
		}
		q.Poles[pole] = rec
	}
	return nil
}

func (q *QCSet) loadOrderedConnections(f *excelize.File) {
	for _, sheet := range f.GetSheetList() {
		if sheet == qcAttachmentSheet {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		poleCol, toPoleCol, spanCol := -1, -1, -1
		for i, name := range rows[0] {
			n := strings.ToLower(strings.TrimSpace(name))
			switch {
			case n == "pole" && poleCol < 0:
				poleCol = i
			case (strings.Contains(n, "to pole") || strings.Contains(n, "topole")) && toPoleCol < 0:
				toPoleCol = i
			case strings.Contains(n, "span") && spanCol < 0:
				spanCol = i
			}
		}
		if poleCol < 0 || toPoleCol < 0 {
			continue
		}
		for _, row := range rows[1:] {
			at := func(col int) string {
				if col < 0 || col >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[col])
			}
			pole := at(poleCol)
			if pole == "" || strings.EqualFold(pole, "nan") {
				continue
			}
			conn := internal.QCConnection{Pole: pole, ToPole: at(toPoleCol), Span: at(spanCol)}
			q.Connections = append(q.Connections, conn)
			key := q.pairKey(conn.Pole, conn.ToPole)
			if _, dup := q.spanByPair[key]; !dup {
				q.spanByPair[key] = conn.Span
			}
		}
	}
}

// Active reports whether the workbook produced any usable QC data.
func (q *QCSet) Active() bool {
	return q != nil && q.active
}

// MRNotes returns the audit make-ready note for a pole.
func (q *QCSet) MRNotes(pole string) string {
	return q.Poles[NormalizePoleNumber(pole)].Notes
}

// Record returns the full per-pole audit record.
func (q *QCSet) Record(pole string) (internal.QCPoleRecord, bool) {
	rec, ok := q.Poles[NormalizePoleNumber(pole)]
	return rec, ok
}

// SpanLength returns the audited span for a pole pair, "" if unknown.
func (q *QCSet) SpanLength(pole, toPole string) string {
	return q.spanByPair[q.pairKey(pole, toPole)]
}

// SCIDs lists every normalized SCID the QC connections mention.
func (q *QCSet) SCIDs() map[string]bool {
	out := map[string]bool{}
	for _, c := range q.Connections {
		for _, s := range []string{c.Pole, c.ToPole} {
			if n := util.NormalizeSCID(s, q.ignore); n != "" {
				out[n] = true
			}
		}
	}
	return out
}

func (q *QCSet) pairKey(a, b string) [2]string {
	an := util.NormalizeSCID(a, q.ignore)
	bn := util.NormalizeSCID(b, q.ignore)
	if an > bn {
		an, bn = bn, an
	}
	return [2]string{an, bn}
}

// NormalizePoleNumber strips leading zeros but keeps at least one digit.
func NormalizePoleNumber(pole string) string {
	s := strings.TrimSpace(pole)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		if strings.HasPrefix(s, "0") {
			return "0"
		}
		return s
	}
	return trimmed
}

func notesAfterColon(notes string) string {
	if i := strings.Index(notes, ":"); i >= 0 {
		return strings.TrimSpace(notes[i+1:])
	}
	return strings.TrimSpace(notes)
}

func aldenDecimal(height string) float64 {
	m := reAldenHeight.FindStringSubmatch(strings.TrimSpace(height))
	if m == nil {
		return 0
	}
	feet, _ := strconv.Atoi(m[1])
	inches, _ := strconv.Atoi(m[2])
	return float64(feet) + float64(inches)/12
}
