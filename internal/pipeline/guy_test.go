package pipeline

import (
	"reflect"
	"testing"
)

func TestExtractGuyInfo(t *testing.T) {
	tests := []struct {
		name       string
		note       string
		leads      []string
		directions []string
		sizes      []string
	}{
		{
			name:       "pl new format",
			note:       "PL NEW SINGLE HELIX ANCHOR 15' S WITH OFFSET",
			leads:      []string{"15'"},
			directions: []string{"S"},
			sizes:      []string{""},
		},
		{
			name:       "pl new with inches",
			note:       `PL NEW DOUBLE HELIX ANCHOR 20' 6" NW`,
			leads:      []string{`20'6"`},
			directions: []string{"NW"},
			sizes:      []string{""},
		},
		{
			name:       "anchor format",
			note:       "ANCHOR 10' W",
			leads:      []string{"10'"},
			directions: []string{"W"},
			sizes:      []string{""},
		},
		{
			name:       "sized guy",
			note:       `GUY 3/8" EHS 20' S`,
			leads:      []string{"20'"},
			directions: []string{"S"},
			sizes:      []string{`3/8" EHS`},
		},
		{
			name:       "size before guy",
			note:       `5/16" EHS GUY 15' N`,
			leads:      []string{"15'"},
			directions: []string{"N"},
			sizes:      []string{`5/16" EHS`},
		},
		{
			name:       "general lead and direction",
			note:       "some note 12' NE end",
			leads:      []string{"12'"},
			directions: []string{"NE"},
			sizes:      []string{""},
		},
		{
			name:       "pl new wins over other spellings",
			note:       `PL NEW SINGLE HELIX ANCHOR 15' S AND GUY 3/8" EHS 20' N`,
			leads:      []string{"15'"},
			directions: []string{"S"},
			sizes:      []string{""},
		},
		{
			name: "no guy info",
			note: "replace pole tag",
		},
		{
			name: "empty note",
			note: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractGuyInfo(tt.note)
			if !reflect.DeepEqual(got.Leads, tt.leads) {
				t.Fatalf("Leads = %v, want %v", got.Leads, tt.leads)
			}
			if !reflect.DeepEqual(got.Directions, tt.directions) {
				t.Fatalf("Directions = %v, want %v", got.Directions, tt.directions)
			}
			if !reflect.DeepEqual(got.Sizes, tt.sizes) {
				t.Fatalf("Sizes = %v, want %v", got.Sizes, tt.sizes)
			}
		})
	}
}

func TestExtractGuyInfoDeduplicates(t *testing.T) {
	got := ExtractGuyInfo("ANCHOR 10' W AND ANCHOR 10' W")
	if len(got.Leads) != 1 {
		t.Fatalf("expected one entry, got %v", got.Leads)
	}
}

func TestGuyNeeded(t *testing.T) {
	tests := []struct {
		note string
		want string
	}{
		{"install METRONET ANCHOR 15' S", "YES"},
		{"metronet dg required", "YES"},
		{"transfer catv", "NO"},
		{"", "NO"},
	}
	for _, tt := range tests {
		if got := GuyNeeded(tt.note); got != tt.want {
			t.Fatalf("GuyNeeded(%q) = %q, want %q", tt.note, got, tt.want)
		}
	}
}
