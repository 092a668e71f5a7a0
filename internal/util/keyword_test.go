package util

import "testing"

func TestMatchesCommKeyword(t *testing.T) {
	keywords := []string{"Guy", "Power Guy", "insulator*", "fiber", "telco"}

	cases := []struct {
		name     string
		measured string
		want     bool
	}{
		{name: "exact", measured: "Fiber", want: true},
		{name: "exact with padding", measured: "  telco ", want: true},
		{name: "guy exact only", measured: "Guy", want: true},
		{name: "guy not substring", measured: "Guy Wire", want: false},
		{name: "power guy exact", measured: "Power Guy", want: true},
		{name: "wildcard substring", measured: "Insulator Top", want: true},
		{name: "no match", measured: "Neutral", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchesCommKeyword(tc.measured, keywords); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestLongestKeywordMatch(t *testing.T) {
	keywords := []string{"Secondary", "Secondary Drip Loop", "Neutral"}
	kw, ok := LongestKeywordMatch("secondary drip loop east", keywords)
	if !ok || kw != "Secondary Drip Loop" {
		t.Fatalf("got %q ok=%v", kw, ok)
	}
	kw, ok = LongestKeywordMatch("Neutral", keywords)
	if !ok || kw != "Neutral" {
		t.Fatalf("got %q ok=%v", kw, ok)
	}
	if _, ok := LongestKeywordMatch("fiber", keywords); ok {
		t.Fatalf("unexpected match")
	}
}

func TestKeywordRequiresPowerCompany(t *testing.T) {
	if !KeywordRequiresPowerCompany("Riser") {
		t.Fatalf("riser should need the power company")
	}
	if KeywordRequiresPowerCompany("Neutral") {
		t.Fatalf("neutral should not need the power company")
	}
}

func TestBuildKeywordRegex(t *testing.T) {
	re := BuildKeywordRegex([]string{"street*", "luminaire"})
	if re == nil {
		t.Fatalf("nil pattern")
	}
	if !re.MatchString("street light bracket") {
		t.Fatalf("wildcard should match")
	}
	if !re.MatchString("luminaire") {
		t.Fatalf("literal should match")
	}
	if re.MatchString("neutral") {
		t.Fatalf("unexpected match")
	}
	if BuildKeywordRegex(nil) != nil {
		t.Fatalf("empty list should yield nil")
	}
}

func TestWholeWordPattern(t *testing.T) {
	re := WholeWordPattern("Xcel")
	if !re.MatchString("xcel energy") {
		t.Fatalf("case-insensitive word should match")
	}
	if re.MatchString("excelsior") {
		t.Fatalf("partial word must not match")
	}
	if WholeWordPattern("  ") != nil {
		t.Fatalf("blank term should yield nil")
	}
}
