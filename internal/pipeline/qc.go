package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"polemr/internal"
	"polemr/internal/ingest"
	"polemr/internal/util"
)

// ApplySpanTolerance reconciles a measured span with the audited one.
// The audit value wins when the two agree within tolerance feet; a
// larger gap keeps the measured value. When only one side has a value
// that side wins, and the measured value also wins whenever either side
// fails to parse.
func ApplySpanTolerance(excelSpan, qcSpan string, tolerance float64) string {
	if strings.TrimSpace(qcSpan) == "" || strings.TrimSpace(excelSpan) == "" {
		if strings.TrimSpace(excelSpan) != "" {
			return excelSpan
		}
		return qcSpan
	}
	excelValue, err1 := parseSpan(excelSpan)
	qcValue, err2 := parseSpan(qcSpan)
	if err1 != nil || err2 != nil {
		return excelSpan
	}
	if math.Abs(excelValue-qcValue) <= tolerance {
		return qcSpan
	}
	return excelSpan
}

func parseSpan(s string) (float64, error) {
	clean := strings.TrimSpace(strings.NewReplacer(",", "", "'", "").Replace(s))
	return strconv.ParseFloat(clean, 64)
}

// CompareQC checks each emitted row against the audit record for its
// pole. Fields the auditor left blank are not comparable and produce no
// result; a pole absent from the audit entirely is flagged once so it
// shows up in the summary. Heights match when they agree within an inch
// after parsing, so the two sides' formats never matter. A street light
// below the lowest power attachment is what the auditor measures as
// power, so the lower of the two stands in for the power height.
func CompareQC(rows []internal.OutputRow, qc *ingest.QCSet) []internal.QCResult {
	var results []internal.QCResult
	for _, row := range rows {
		rec, ok := qc.Record(row.Pole)
		if !ok {
			results = append(results, internal.QCResult{
				Pole:    row.Pole,
				Field:   "pole",
				Verdict: internal.QCPoleNotFound,
			})
			continue
		}
		powerHeight := row.PowerHeight
		if sl, ok := heightValue(row.StreetLight); ok {
			if ph, pok := heightValue(powerHeight); !pok || sl < ph {
				powerHeight = row.StreetLight
			}
		}
		fields := []struct {
			name    string
			got     string
			want    string
			verdict func(got, want string) internal.QCVerdict
		}{
			{"notes", row.Notes, rec.Notes, compareText},
			{"power_height", powerHeight, rec.PowerAttach, compareHeights},
			{"power_midspan", row.PowerMidspan, rec.PowerMidspan, compareHeights},
			{"power_type", row.PowerType, rec.PowerType, comparePowerType},
			{"proposed_height", row.ProposedHeight, rec.MetroAttach, compareHeights},
			{"proposed_midspan", row.ProposedMidspan, rec.MetroMidspan, compareHeights},
			{"comm1_height", row.Comm1, rec.CommAttach[0], compareHeights},
			{"comm2_height", row.Comm2, rec.CommAttach[1], compareHeights},
			{"comm3_height", row.Comm3, rec.CommAttach[2], compareHeights},
			{"comm1_midspan", row.Comm1Midspan, rec.CommMidspan[0], compareHeights},
			{"comm2_midspan", row.Comm2Midspan, rec.CommMidspan[1], compareHeights},
			{"comm3_midspan", row.Comm3Midspan, rec.CommMidspan[2], compareHeights},
		}
		for _, f := range fields {
			if strings.TrimSpace(f.want) == "" {
				continue
			}
			results = append(results, internal.QCResult{
				Pole:    row.Pole,
				Field:   f.name,
				Got:     f.got,
				Want:    f.want,
				Verdict: f.verdict(f.got, f.want),
			})
		}
	}
	return results
}

func compareText(got, want string) internal.QCVerdict {
	g := util.NormalizeSpaces(got)
	w := util.NormalizeSpaces(want)
	switch {
	case g == "":
		return internal.QCMissing
	case strings.EqualFold(g, w):
		return internal.QCMatch
	}
	return internal.QCMismatch
}

// comparePowerType tolerates partial spellings: "Neutral" matches
// "Secondary/Neutral", and two values naming the same fixture word
// still match.
func comparePowerType(got, want string) internal.QCVerdict {
	g := strings.ToLower(strings.TrimSpace(got))
	w := strings.ToLower(strings.TrimSpace(want))
	switch {
	case g == "":
		return internal.QCMissing
	case g == w, strings.Contains(g, w), strings.Contains(w, g):
		return internal.QCMatch
	}
	for _, word := range strings.FieldsFunc(g, func(r rune) bool { return r == ' ' || r == '/' || r == '-' }) {
		if len(word) > 2 && strings.Contains(w, word) {
			return internal.QCMatch
		}
	}
	return internal.QCMismatch
}

// compareHeights treats comma-joined cells as sets: the sides match
// when any entry on one side agrees with any entry on the other within
// an inch.
func compareHeights(got, want string) internal.QCVerdict {
	g := strings.TrimSpace(got)
	w := strings.TrimSpace(want)
	if g == "" {
		return internal.QCMissing
	}
	if strings.EqualFold(g, w) {
		return internal.QCMatch
	}
	for _, gp := range strings.Split(g, ",") {
		gd, gok := util.ParseHeightDecimal(gp)
		if !gok {
			continue
		}
		for _, wp := range strings.Split(w, ",") {
			if wd, wok := util.ParseHeightDecimal(wp); wok && math.Abs(gd-wd) < 1.0/12+1e-9 {
				return internal.QCMatch
			}
		}
	}
	return internal.QCMismatch
}

func heightValue(s string) (float64, bool) {
	if dec, ok := util.ParseHeightDecimal(s); ok {
		return dec, true
	}
	return 0, false
}

// FormatQCSummary renders the per-verdict counts for status output.
func FormatQCSummary(results []internal.QCResult) string {
	counts := map[internal.QCVerdict]int{}
	for _, r := range results {
		counts[r.Verdict]++
	}
	return fmt.Sprintf("match=%d mismatch=%d missing=%d not_found=%d",
		counts[internal.QCMatch], counts[internal.QCMismatch], counts[internal.QCMissing], counts[internal.QCPoleNotFound])
}
