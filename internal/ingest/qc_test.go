package ingest

import (
	"testing"

	"polemr/internal/config"
)

func TestLoadQC(t *testing.T) {
	path := mkWorkbook(t, []sheetFixture{
		{name: qcAttachmentSheet, rows: [][]any{
			{"Alden Export"},
			{""},
			{"DesignSketchReferenceNumber", "CompanyName", "MakeReadyNotes", "_Height", "MidSpan", "Status", "AttachmentType"},
			{"001", "Metronet Fiber LLC", "MR: stale note", "22ft 1in", "20ft 5in", "PROPOSED", "Communication Fiber-Optic"},
			{"001", "XCEL ENERGY", "", "26ft 0in", "24ft 0in", "EXISTING", "Neutral"},
			{"001", "XCEL ENERGY", "", "25ft 3in", "23ft 1in", "EXISTING", "Secondary"},
			{"001", "Comcast", "", "23ft 7in", "21ft 9in", "EXISTING", "Coax"},
			{"001", "Lumen", "MR: raise drop", "24ft 2in", "22ft 0in", "EXISTING", "Communication Fiber-Optic"},
			{"002", "Comcast", "no colon note", "21ft 0in", "19ft 0in", "EXISTING", "Coax"},
		}},
		{name: "Connections", rows: [][]any{
			{"Pole", "To Pole", "Span Length"},
			{"001", "002", "150'"},
			{"002", "END", ""},
		}},
	})

	qc, err := LoadQC(path, config.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	if !qc.Active() {
		t.Fatalf("QC set should be active")
	}

	rec, ok := qc.Record("001")
	if !ok {
		t.Fatalf("pole 001 missing")
	}
	// Every row restates the pole's note, so the last row's wins; the
	// "MR:" prefix is stripped either way.
	if rec.Notes != "raise drop" {
		t.Fatalf("notes = %q, want last row's note after colon", rec.Notes)
	}
	if rec.MetroAttach != "22ft 1in" || rec.MetroMidspan != "20ft 5in" {
		t.Fatalf("metro heights: %+v", rec)
	}
	if rec.PowerAttach != "25ft 3in" || rec.PowerType != "Secondary" {
		t.Fatalf("lowest power row should win: %+v", rec)
	}
	if rec.CommAttach[0] != "24ft 2in" || rec.CommAttach[1] != "23ft 7in" {
		t.Fatalf("comm heights should sort descending: %+v", rec.CommAttach)
	}
	if rec.CommAttach[2] != "" {
		t.Fatalf("only two comm rows expected: %+v", rec.CommAttach)
	}

	if got := qc.MRNotes("2"); got != "no colon note" {
		t.Fatalf("pole number normalization lost: %q", got)
	}

	if len(qc.Connections) != 2 {
		t.Fatalf("ordered connections: %+v", qc.Connections)
	}
	if qc.Connections[0].Pole != "001" || qc.Connections[0].Span != "150'" {
		t.Fatalf("connection order lost: %+v", qc.Connections[0])
	}
	if got := qc.SpanLength("1", "2"); got != "150'" {
		t.Fatalf("span lookup: %q", got)
	}

	scids := qc.SCIDs()
	if !scids["1"] || !scids["2"] || !scids["END"] {
		t.Fatalf("scid set: %v", scids)
	}
}

func TestNormalizePoleNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "001", want: "1"},
		{input: "010", want: "10"},
		{input: "0", want: "0"},
		{input: "000", want: "0"},
		{input: "12", want: "12"},
		{input: "nan", want: ""},
		{input: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizePoleNumber(tc.input); got != tc.want {
			t.Fatalf("NormalizePoleNumber(%q) = %q want %q", tc.input, got, tc.want)
		}
	}
}
