package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reSpaces        = regexp.MustCompile(`\s+`)
	reSimpleSCID    = regexp.MustCompile(`^0*(\d+)(?:\.0+)?([A-Za-z]*)$`)
	reSCIDPart      = regexp.MustCompile(`^([A-Za-z]*)0*(\d+)([A-Za-z]*)$`)
	reNumericLead   = regexp.MustCompile(`^(\d+)([A-Za-z]*)`)
	reGuyedWord     = regexp.MustCompile(`(?i)\bGuyed\b\s*`)
	reUnguyedWord   = regexp.MustCompile(`(?i)\bUnguyed\b\s*`)
	reGuyedPrefix   = regexp.MustCompile(`^(?i:Guyed)([A-Z])`)
	reUnguyedPrefix = regexp.MustCompile(`^(?i:Unguyed)([A-Z])`)
)

// NormalizeSCID canonicalizes a pole identifier: leading apostrophe and
// configured noise words stripped, leading zeros dropped, letter suffixes
// uppercased. "001A" and "1.0a" both come out as "1A". Multi-token
// identifiers are normalized token by token ("118 mism013" -> "118 MISM13").
func NormalizeSCID(scid string, ignoreKeywords []string) string {
	s := strings.TrimSpace(scid)
	if s == "" {
		return s
	}
	s = strings.TrimPrefix(s, "'")

	for _, kw := range ignoreKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		pat, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			continue
		}
		s = strings.TrimSpace(pat.ReplaceAllString(s, ""))
	}
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	if m := reSimpleSCID.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return strconv.Itoa(n) + strings.ToUpper(m[2])
	}

	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if m := reSCIDPart.FindStringSubmatch(part); m != nil {
			n, _ := strconv.Atoi(m[2])
			out = append(out, strings.ToUpper(m[1])+strconv.Itoa(n)+strings.ToUpper(m[3]))
			continue
		}
		out = append(out, strings.ToUpper(part))
	}
	return strings.Join(out, " ")
}

// NumericPart extracts the leading number and trailing letters of a SCID
// for ordering. Identifiers without a leading number sort last.
func NumericPart(scid string) (int, string) {
	if m := reNumericLead.FindStringSubmatch(scid); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, m[2]
	}
	return math.MaxInt, ""
}

// LessSCID orders SCIDs by numeric part, then letter suffix.
func LessSCID(a, b string) bool {
	an, as := NumericPart(a)
	bn, bs := NumericPart(b)
	if an != bn {
		return an < bn
	}
	return as < bs
}

// PoleNumberFromSCID renders a normalized SCID as the zero-padded pole
// number used in report file names ("12" -> "012").
func PoleNumberFromSCID(scid string, ignoreKeywords []string) string {
	norm := NormalizeSCID(scid, ignoreKeywords)
	n, _ := NumericPart(norm)
	if n == math.MaxInt {
		return ""
	}
	return fmt.Sprintf("%03d", n)
}

// CleanStructureType drops Guyed/Unguyed qualifiers from a structure type
// string, including the concatenated form ("GuyedTangent" -> "Tangent").
func CleanStructureType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = reGuyedWord.ReplaceAllString(s, "")
	s = reUnguyedWord.ReplaceAllString(s, "")
	s = reGuyedPrefix.ReplaceAllString(s, "$1")
	s = reUnguyedPrefix.ReplaceAllString(s, "$1")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func NormalizeSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
