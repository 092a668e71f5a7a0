package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reFeetInches      = regexp.MustCompile(`^(\d+)'-?(\d+)"`)
	reFeetInchesAlden = regexp.MustCompile(`^(\d+)ft\s*(\d+)in`)
	reFeetOptInches   = regexp.MustCompile(`^(\d+)'\s*(\d+)?"?`)
	reLeadingNumber   = regexp.MustCompile(`^(\d+\.?\d*)`)
	rePoleSpec        = regexp.MustCompile(`^(\d+)-(\d+)`)
)

// ParseHeightDecimal reads a height in any of the formats the field data
// uses (22'6", 22ft 6in, 22' or a bare number) and returns decimal feet.
// Bare numbers with a decimal point below 50 are taken as feet; everything
// else as inches.
func ParseHeightDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if m := reFeetInches.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		return round2(float64(feet) + float64(inches)/12), true
	}
	if m := reFeetInchesAlden.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		return round2(float64(feet) + float64(inches)/12), true
	}
	if m := reFeetOptInches.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches := 0
		if m[2] != "" {
			inches, _ = strconv.Atoi(m[2])
		}
		return round2(float64(feet) + float64(inches)/12), true
	}
	if m := reLeadingNumber.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if strings.Contains(s, ".") && v < 50 {
			return round2(v), true
		}
		return round2(v / 12), true
	}
	return 0, false
}

// ParseHeightFormat re-renders a height written in any accepted style as
// the canonical `F' I"` form. Returns "" when the text is not a height.
func ParseHeightFormat(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := reFeetInches.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		return fmt.Sprintf(`%d' %d"`, feet, inches)
	}
	if m := regexp.MustCompile(`^(\d+)'\s+(\d+)"?`).FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		return fmt.Sprintf(`%d' %d"`, feet, inches)
	}
	if m := regexp.MustCompile(`^(\d+)'`).FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		return fmt.Sprintf(`%d' 0"`, feet)
	}
	if m := regexp.MustCompile(`^(\d+)\.(\d+)`).FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		frac, err := strconv.ParseFloat("0."+m[2], 64)
		if err != nil {
			return ""
		}
		return fmt.Sprintf(`%d' %d"`, feet, int(math.Round(frac*12)))
	}
	if m := regexp.MustCompile(`^(\d+)$`).FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		return fmt.Sprintf(`%d' 0"`, feet)
	}
	return ""
}

// InchesToFeetFormat turns a raw inches value (or an already formatted
// height) into the canonical `F' I"` form. Returns "" on anything it
// cannot read.
func InchesToFeetFormat(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "'") || strings.Contains(s, `"`) {
		dec, ok := ParseHeightDecimal(s)
		if !ok {
			return ""
		}
		total := int(math.Round(dec * 12))
		return fmt.Sprintf(`%d' %d"`, total/12, total%12)
	}
	clean := strings.NewReplacer(`"`, "", "″", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return ""
	}
	var total float64
	if strings.Contains(clean, ".") && v < 50 {
		total = math.Round(v * 12)
	} else {
		total = v
	}
	if total < 0 {
		return ""
	}
	t := int(math.Round(total))
	return fmt.Sprintf(`%d' %d"`, t/12, t%12)
}

// DecimalFeetToFeetFormat renders decimal feet as `F'I"` (no space).
func DecimalFeetToFeetFormat(decimalFeet float64) string {
	v := round2(decimalFeet)
	feet := int(v)
	inches := int(math.Round((v - float64(feet)) * 12))
	if inches == 12 {
		feet++
		inches = 0
	}
	return fmt.Sprintf(`%d'%d"`, feet, inches)
}

// DecimalFeetToAldenFormat renders decimal feet as `Fft Iin`.
func DecimalFeetToAldenFormat(decimalFeet float64) string {
	v := round2(decimalFeet)
	feet := int(v)
	inches := int(math.Round((v - float64(feet)) * 12))
	if inches == 12 {
		feet++
		inches = 0
	}
	return fmt.Sprintf("%dft %din", feet, inches)
}

// FeetInchesToDecimalFormat converts a `F' I"` style height to a
// two-decimal string (25'1" -> "25.08"). Plain numbers pass through
// re-rendered; unparseable input comes back unchanged.
func FeetInchesToDecimalFormat(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			if v < 1000 {
				return fmt.Sprintf("%.2f", v)
			}
			return fmt.Sprintf("%.2f", v/12)
		}
	}
	if dec, ok := ParseHeightDecimal(s); ok {
		return fmt.Sprintf("%.2f", dec)
	}
	return s
}

// FormatHeight applies the output height style: decimal feet when the
// decimal flag is set, the `F' I"` form otherwise.
func FormatHeight(s string, decimal bool) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if decimal {
		return FeetInchesToDecimalFormat(s)
	}
	return s
}

// FormatSpanDistance rounds a numeric span to whole feet with a trailing
// apostrophe. Non-numeric text passes through untouched.
func FormatSpanDistance(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.Itoa(int(math.Round(v))) + "'"
	}
	return s
}

// FormatPoleHeightClass reads a pole spec like "40-3 Southern Pine" and
// returns "40/3". Anything without the leading height-class pair yields "".
func FormatPoleHeightClass(spec string) string {
	if m := rePoleSpec.FindStringSubmatch(strings.TrimSpace(spec)); m != nil {
		return m[1] + "/" + m[2]
	}
	return ""
}

// RoundCoordinate formats a latitude or longitude to the given number of
// decimal places. Blank input yields ""; non-numeric input passes through.
func RoundCoordinate(value string, places int) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(v, 'f', places, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
