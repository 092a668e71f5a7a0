package util

import (
	"math"
	"testing"
)

func TestNormalizeSCID(t *testing.T) {
	ignore := []string{"AT&T", "Foreign Pole", "Xcel"}

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "leading zeros", input: "001", want: "1"},
		{name: "decimal suffix", input: "12.0", want: "12"},
		{name: "letter suffix", input: "001a", want: "1A"},
		{name: "excel apostrophe", input: "'007", want: "7"},
		{name: "ignore keyword", input: "014 Xcel", want: "14"},
		{name: "multi word keyword", input: "Foreign Pole 22", want: "22"},
		{name: "mixed token", input: "118 mism013", want: "118 MISM13"},
		{name: "idempotent", input: "118 MISM13", want: "118 MISM13"},
		{name: "blank", input: "  ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeSCID(tc.input, ignore)
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
			again := NormalizeSCID(got, ignore)
			if again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNumericPart(t *testing.T) {
	n, alpha := NumericPart("12A")
	if n != 12 || alpha != "A" {
		t.Fatalf("got %d %q", n, alpha)
	}
	n, _ = NumericPart("reference")
	if n != math.MaxInt {
		t.Fatalf("non-numeric SCID should sort last, got %d", n)
	}
	if !LessSCID("2", "10") {
		t.Fatalf("numeric order should win over lexicographic")
	}
	if !LessSCID("10", "10A") {
		t.Fatalf("bare number should sort before letter suffix")
	}
}

func TestPoleNumberFromSCID(t *testing.T) {
	if got := PoleNumberFromSCID("012", nil); got != "012" {
		t.Fatalf("got %q", got)
	}
	if got := PoleNumberFromSCID("7", nil); got != "007" {
		t.Fatalf("got %q", got)
	}
	if got := PoleNumberFromSCID("no digits", nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanStructureType(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "Guyed Tangent", want: "Tangent"},
		{input: "GuyedTangent", want: "Tangent"},
		{input: "Unguyed Deadend", want: "Deadend"},
		{input: "Tangent", want: "Tangent"},
		{input: "", want: ""},
	}
	for _, tc := range cases {
		if got := CleanStructureType(tc.input); got != tc.want {
			t.Fatalf("CleanStructureType(%q) = %q want %q", tc.input, got, tc.want)
		}
	}
}
