package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"polemr/internal"
	"polemr/internal/util"
)

var (
	reStructureType     = regexp.MustCompile(`(?is)Structure\s+Type:\s*(.*?)\s*Pole`)
	reStructureFallback = regexp.MustCompile(`(?is)Type:\s*(.*?)\s*Pole`)
	rePercentage        = regexp.MustCompile(`(\d+\.?\d*)\s*%`)

	reLeadingPole   = regexp.MustCompile(`^(\d{3})_`)
	reSpacedPole    = regexp.MustCompile(`^(\d{3})\s+\w+_`)
	reReportsPole   = regexp.MustCompile(`Reports_Pole_([^_]+)_`)
	rePolePrefix    = regexp.MustCompile(`Pole_([^_\s]+)`)
	loadingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Maximum\s+(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Groundline\s+(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Pole Capacity Utilization.*?Maximum\s+(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Pole Capacity Utilization.*?Groundline\s+(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Maximum:\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Groundline:\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Pole Capacity Utilization.*?Maximum:\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(?is)Pole Capacity Utilization.*?Groundline:\s*(\d+\.?\d*)`),
	}
)

// ReportReader pulls structure type and loading percentages out of the
// pole analysis report PDFs, one folder per scenario.
type ReportReader struct {
	ExistingDir string
	ProposedDir string

	ignore []string
}

func NewReportReader(existingDir, proposedDir string, ignoreKeywords []string) *ReportReader {
	return &ReportReader{ExistingDir: existingDir, ProposedDir: proposedDir, ignore: ignoreKeywords}
}

// ExtractPoleData reads both scenario reports for a three-digit pole
// number. Missing folders or files leave the matching fields blank.
func (r *ReportReader) ExtractPoleData(poleNumber string) internal.PDFReportData {
	var data internal.PDFReportData
	if r == nil {
		return data
	}

	if text, ok := r.reportText(r.ExistingDir, poleNumber); ok {
		data.StructureType = extractStructureType(text)
		data.ExistingLoad = extractLoading(text)
	}
	if text, ok := r.reportText(r.ProposedDir, poleNumber); ok {
		data.ProposedLoad = extractLoading(text)
		if data.StructureType == "" {
			data.StructureType = extractStructureType(text)
		}
	}
	return data
}

func (r *ReportReader) reportText(dir, poleNumber string) (string, bool) {
	path, ok := FindReportFile(dir, poleNumber, r.ignore)
	if !ok {
		return "", false
	}
	text, err := firstPageText(path)
	if err != nil {
		fmt.Printf("reports file=%q error=%v\n", filepath.Base(path), err)
		return "", false
	}
	return text, true
}

// FindReportFile locates the report PDF for a pole number, trying each
// naming scheme the analysis exports have used over time and falling
// back to matching the pole part of any PDF name.
func FindReportFile(dir, poleNumber string, ignoreKeywords []string) (string, bool) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(poleNumber) == "" {
		return "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, e.Name())
		}
	}

	prefixes := []string{
		poleNumber + "_",
		"Pole_" + poleNumber + "_",
		"Reports_Pole_" + poleNumber + "_",
	}
	for _, prefix := range prefixes {
		for _, name := range pdfs {
			if strings.HasPrefix(name, prefix) {
				return filepath.Join(dir, name), true
			}
		}
	}

	for _, name := range pdfs {
		part := polePartFromName(name)
		if part == "" {
			continue
		}
		norm := util.NormalizeSCID(part, ignoreKeywords)
		n, _ := util.NumericPart(norm)
		if fmt.Sprintf("%03d", n) == poleNumber {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

func polePartFromName(name string) string {
	if m := reLeadingPole.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := reSpacedPole.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := reReportsPole.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := rePolePrefix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

func firstPageText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	if reader.NumPage() < 1 {
		return "", fmt.Errorf("report has no pages")
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", fmt.Errorf("report first page is empty")
	}
	return page.GetPlainText(nil)
}

func extractStructureType(text string) string {
	if m := reStructureType.FindStringSubmatch(text); m != nil {
		return util.NormalizeSpaces(m[1])
	}
	if m := reStructureFallback.FindStringSubmatch(text); m != nil {
		return util.NormalizeSpaces(m[1])
	}
	return ""
}

func extractLoading(text string) string {
	for _, pat := range loadingPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return m[1] + "%"
		}
	}
	max := -1.0
	maxRaw := ""
	for _, m := range rePercentage.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > max {
			max = v
			maxRaw = m[1]
		}
	}
	if maxRaw != "" {
		return maxRaw + "%"
	}
	return ""
}
