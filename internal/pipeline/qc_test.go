package pipeline

import (
	"testing"

	"polemr/internal"
	"polemr/internal/ingest"
)

func TestApplySpanTolerance(t *testing.T) {
	tests := []struct {
		name      string
		excel     string
		qc        string
		tolerance float64
		want      string
	}{
		{"within tolerance uses qc", "100", "102", 3, "102"},
		{"outside tolerance keeps excel", "100", "110", 3, "100"},
		{"exact boundary uses qc", "100", "103", 3, "103"},
		{"empty qc keeps excel", "100", "", 3, "100"},
		{"empty excel uses qc", "", "102", 3, "102"},
		{"both empty", "", "", 3, ""},
		{"quoted feet", "100'", "101'", 3, "101'"},
		{"thousands separator", "1,200", "1201", 3, "1201"},
		{"unparseable qc keeps excel", "100", "n/a", 3, "100"},
		{"unparseable excel keeps excel", "about 100", "102", 3, "about 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplySpanTolerance(tt.excel, tt.qc, tt.tolerance); got != tt.want {
				t.Fatalf("ApplySpanTolerance(%q, %q, %v) = %q, want %q", tt.excel, tt.qc, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestCompareQC(t *testing.T) {
	qc := &ingest.QCSet{
		Poles: map[string]internal.QCPoleRecord{
			"12": {
				Pole:         "12",
				PowerAttach:  "25ft 1in",
				PowerMidspan: "23ft 0in",
				MetroAttach:  "21ft 6in",
				CommAttach:   [3]string{"22ft 6in", "", ""},
			},
		},
	}
	rows := []internal.OutputRow{
		{
			Pole:         "012",
			PowerHeight:  "25.08",
			PowerMidspan: "24.00",
			Comm1:        "22.50",
			Comm2:        "19.00",
		},
	}

	results := CompareQC(rows, qc)
	if len(results) == 0 {
		t.Fatalf("expected results")
	}
	byField := map[string]internal.QCResult{}
	for _, r := range results {
		byField[r.Field] = r
	}

	if got := byField["power_height"].Verdict; got != internal.QCMatch {
		t.Fatalf("power_height verdict = %s, want MATCH", got)
	}
	if got := byField["power_midspan"].Verdict; got != internal.QCMismatch {
		t.Fatalf("power_midspan verdict = %s, want MISMATCH", got)
	}
	if got := byField["proposed_height"].Verdict; got != internal.QCMissing {
		t.Fatalf("proposed_height verdict = %s, want MISSING", got)
	}
	if got := byField["comm1_height"].Verdict; got != internal.QCMatch {
		t.Fatalf("comm1_height verdict = %s, want MATCH", got)
	}
	// The auditor recorded nothing for the second comm slot, so the
	// field is not comparable even though the sheet has a value.
	if r, ok := byField["comm2_height"]; ok {
		t.Fatalf("comm2_height should produce no result, got %s", r.Verdict)
	}
	if r, ok := byField["notes"]; ok {
		t.Fatalf("notes should produce no result, got %s", r.Verdict)
	}
}

func TestCompareHeightsMultiValue(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		out  internal.QCVerdict
	}{
		{"member of qc set", "22.50", "21ft 0in, 22ft 6in", internal.QCMatch},
		{"qc value in sheet set", "22.50, 24.00", "24ft 0in", internal.QCMatch},
		{"no shared member", "22.50, 24.00", "19ft 0in, 20ft 6in", internal.QCMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareHeights(tt.got, tt.want); got != tt.out {
				t.Fatalf("compareHeights(%q, %q) = %s, want %s", tt.got, tt.want, got, tt.out)
			}
		})
	}
}

func TestCompareQCStreetLightSubstitutesForPower(t *testing.T) {
	tests := []struct {
		name        string
		power       string
		streetLight string
		audited     string
		verdict     internal.QCVerdict
	}{
		{"no power row", "", "24.17", "24ft 2in", internal.QCMatch},
		{"street light below power", "26.00", "24.17", "24ft 2in", internal.QCMatch},
		{"power below street light", "23.00", "24.17", "23ft 0in", internal.QCMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qc := &ingest.QCSet{
				Poles: map[string]internal.QCPoleRecord{
					"5": {Pole: "5", PowerAttach: tt.audited},
				},
			}
			rows := []internal.OutputRow{
				{Pole: "005", PowerHeight: tt.power, StreetLight: tt.streetLight},
			}
			for _, r := range CompareQC(rows, qc) {
				if r.Field == "power_height" {
					if r.Verdict != tt.verdict {
						t.Fatalf("power_height verdict = %s, want %s", r.Verdict, tt.verdict)
					}
					return
				}
			}
			t.Fatal("no power_height result")
		})
	}
}

func TestComparePowerType(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		out  internal.QCVerdict
	}{
		{"exact", "Neutral", "Neutral", internal.QCMatch},
		{"case", "neutral", "NEUTRAL", internal.QCMatch},
		{"partial", "Neutral", "Secondary/Neutral", internal.QCMatch},
		{"shared word", "Secondary Drip Loop", "Drip Loop", internal.QCMatch},
		{"different", "Neutral", "Transformer", internal.QCMismatch},
		{"missing", "", "Neutral", internal.QCMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := comparePowerType(tt.got, tt.want); got != tt.out {
				t.Fatalf("comparePowerType(%q, %q) = %s, want %s", tt.got, tt.want, got, tt.out)
			}
		})
	}
}

func TestCompareQCFlagsUnknownPoles(t *testing.T) {
	qc := &ingest.QCSet{Poles: map[string]internal.QCPoleRecord{}}
	rows := []internal.OutputRow{{Pole: "001"}}
	results := CompareQC(rows, qc)
	if len(results) != 1 {
		t.Fatalf("expected one result for unaudited pole, got %d", len(results))
	}
	if results[0].Verdict != internal.QCPoleNotFound {
		t.Fatalf("verdict = %s, want %s", results[0].Verdict, internal.QCPoleNotFound)
	}
	if results[0].Pole != "001" {
		t.Fatalf("pole = %q, want %q", results[0].Pole, "001")
	}
}

func TestFormatQCSummary(t *testing.T) {
	results := []internal.QCResult{
		{Verdict: internal.QCMatch},
		{Verdict: internal.QCMatch},
		{Verdict: internal.QCMismatch},
		{Verdict: internal.QCPoleNotFound},
	}
	if got := FormatQCSummary(results); got != "match=2 mismatch=1 missing=0 not_found=1" {
		t.Fatalf("FormatQCSummary = %q", got)
	}
}
