package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindReportFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "300_590833786_EXISTING_Analysis Report.pdf")
	touch(t, dir, "Pole_307_590833849_PROPOSED_Analysis Report.pdf")
	touch(t, dir, "Reports_Pole_056 PCO_590833850_Analysis.pdf")
	touch(t, dir, "118 PCO_346094539_EXISTING.PDF")
	touch(t, dir, "notes.txt")

	cases := []struct {
		pole string
		want string
	}{
		{pole: "300", want: "300_590833786_EXISTING_Analysis Report.pdf"},
		{pole: "307", want: "Pole_307_590833849_PROPOSED_Analysis Report.pdf"},
		{pole: "056", want: "Reports_Pole_056 PCO_590833850_Analysis.pdf"},
		{pole: "118", want: "118 PCO_346094539_EXISTING.PDF"},
	}
	for _, tc := range cases {
		got, ok := FindReportFile(dir, tc.pole, []string{"PCO"})
		if !ok {
			t.Fatalf("pole %s not found", tc.pole)
		}
		if filepath.Base(got) != tc.want {
			t.Fatalf("pole %s got %q want %q", tc.pole, filepath.Base(got), tc.want)
		}
	}

	if _, ok := FindReportFile(dir, "999", nil); ok {
		t.Fatalf("unknown pole should not match")
	}
	if _, ok := FindReportFile(dir, "", nil); ok {
		t.Fatalf("blank pole should not match")
	}
}

func TestExtractStructureType(t *testing.T) {
	text := "Analysis Results\nStructure Type: Guyed\nTangent Pole Data follows"
	if got := extractStructureType(text); got != "Guyed Tangent" {
		t.Fatalf("got %q", got)
	}
	if got := extractStructureType("Type: Deadend Pole"); got != "Deadend" {
		t.Fatalf("fallback got %q", got)
	}
	if got := extractStructureType("nothing here"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractLoading(t *testing.T) {
	if got := extractLoading("Pole Capacity Utilization Maximum 84.4 Groundline 61.0"); got != "84.4%" {
		t.Fatalf("got %q", got)
	}
	if got := extractLoading("utilization: 45.2 % and 71.9 %"); got != "71.9%" {
		t.Fatalf("percentage fallback got %q", got)
	}
	if got := extractLoading("no numbers"); got != "" {
		t.Fatalf("got %q", got)
	}
}
