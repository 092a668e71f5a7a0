package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"polemr/internal"
	"polemr/internal/config"
)

// Writer fills the make-ready template with processed rows and saves the
// result next to the job name.
type Writer struct {
	rules     config.Rules
	outputDir string
}

func NewWriter(rules config.Rules, outputDir string) *Writer {
	return &Writer{rules: rules, outputDir: outputDir}
}

// Write opens the template workbook, writes every row into its mapped
// columns, and saves the output as <job>_MR_SS.xlsx. The template's own
// Pole and To Pole cells are never overwritten. In QC mode the verdicts
// land on a separate QC sheet next to the data. Returns the output path.
func (w *Writer) Write(templatePath, jobPath string, rows []internal.OutputRow, qcResults []internal.QCResult, qcActive bool) (string, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("open template workbook: %w", err)
	}
	defer f.Close()

	sheet := w.pickSheet(f)
	headerCols, err := w.headerColumns(f, sheet)
	if err != nil {
		return "", err
	}

	columnFor := map[string]int{}
	for _, m := range w.rules.ColumnMappings {
		if col, ok := resolveHeader(headerCols, m.Column); ok {
			columnFor[m.Attribute] = col
		}
	}
	lineNoCol, _ := resolveHeader(headerCols, "Line No.")

	written := 0
	for _, row := range rows {
		if strings.TrimSpace(row.Pole) == "" {
			continue
		}
		target := row.TemplateExcelRow
		if target <= 0 {
			target = w.rules.Output.DataStartRow + written
		}
		if lineNoCol > 0 {
			setCell(f, sheet, lineNoCol, target, written+1)
		}
		for attribute, col := range columnFor {
			value := attributeValue(row, attribute)
			// QC order can land rows on template lines that already
			// carry text; derived values still win there, but blank
			// derivations never erase template content.
			if qcActive && value == "" {
				continue
			}
			setCell(f, sheet, col, target, value)
		}
		w.writeProviderColumns(f, sheet, headerCols, row, target, qcActive)
		written++
	}

	if qcActive && len(qcResults) > 0 {
		if err := writeQCSheet(f, qcResults); err != nil {
			return "", err
		}
	}

	outputPath := w.outputPath(jobPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save output workbook: %w", err)
	}
	return outputPath, nil
}

func (w *Writer) pickSheet(f *excelize.File) string {
	want := strings.TrimSpace(w.rules.Output.WorksheetName)
	for _, name := range f.GetSheetList() {
		if name == want {
			return name
		}
	}
	return f.GetSheetName(0)
}

func (w *Writer) headerColumns(f *excelize.File, sheet string) (map[string]int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read template sheet %q: %w", sheet, err)
	}
	headerRow := w.rules.Output.HeaderRow
	if headerRow < 1 || headerRow > len(rows) {
		return nil, fmt.Errorf("template sheet %q has no header row %d", sheet, headerRow)
	}
	cols := map[string]int{}
	for i, name := range rows[headerRow-1] {
		name = strings.TrimSpace(name)
		if name != "" {
			if _, ok := cols[name]; !ok {
				cols[name] = i + 1
			}
		}
	}
	return cols, nil
}

// resolveHeader finds a configured column among the template headers:
// exact after trim, then case-insensitive, then ignoring spaces and
// punctuation.
func resolveHeader(headerCols map[string]int, want string) (int, bool) {
	want = strings.TrimSpace(want)
	if col, ok := headerCols[want]; ok {
		return col, true
	}
	for name, col := range headerCols {
		if strings.EqualFold(name, want) {
			return col, true
		}
	}
	target := foldHeader(want)
	if target == "" {
		return 0, false
	}
	for name, col := range headerCols {
		if foldHeader(name) == target {
			return col, true
		}
	}
	return 0, false
}

func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeProviderColumns fills templates that carry a column per attacher
// next to the positional comm slots: the attach column is headed by the
// provider name, the midspan one by "<provider> Midspan".
func (w *Writer) writeProviderColumns(f *excelize.File, sheet string, headerCols map[string]int, row internal.OutputRow, target int, qcActive bool) {
	for provider, value := range row.ProviderHeights {
		if qcActive && value == "" {
			continue
		}
		if col, ok := resolveHeader(headerCols, provider); ok {
			setCell(f, sheet, col, target, value)
		}
	}
	for provider, value := range row.ProviderMidspans {
		if qcActive && value == "" {
			continue
		}
		if col, ok := resolveHeader(headerCols, provider+" Midspan"); ok {
			setCell(f, sheet, col, target, value)
		}
	}
}

func writeQCSheet(f *excelize.File, results []internal.QCResult) error {
	const name = "QC"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create QC sheet: %w", err)
	}
	headers := []string{"Pole", "Field", "Verdict", "Got", "Want"}
	for i, h := range headers {
		setCell(f, name, i+1, 1, h)
	}
	for i, r := range results {
		setCell(f, name, 1, i+2, r.Pole)
		setCell(f, name, 2, i+2, r.Field)
		setCell(f, name, 3, i+2, string(r.Verdict))
		setCell(f, name, 4, i+2, r.Got)
		setCell(f, name, 5, i+2, r.Want)
	}
	return nil
}

func (w *Writer) outputPath(jobPath string) string {
	base := strings.TrimSuffix(filepath.Base(jobPath), filepath.Ext(jobPath))
	return filepath.Join(w.outputDir, base+"_MR_SS.xlsx")
}

func setCell(f *excelize.File, sheet string, col, row int, value any) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, value)
}

// attributeValue resolves a column mapping attribute against a row.
// Pole and to_pole are deliberately absent: the template text stays.
func attributeValue(row internal.OutputRow, attribute string) string {
	switch attribute {
	case "pole_height_class":
		return row.PoleHeightClass
	case "power_height":
		return row.PowerHeight
	case "power_midspan":
		return row.PowerMidspan
	case "power_type":
		return row.PowerType
	case "comm1_height":
		return row.Comm1
	case "comm1_midspan":
		return row.Comm1Midspan
	case "comm2_height":
		return row.Comm2
	case "comm2_midspan":
		return row.Comm2Midspan
	case "comm3_height":
		return row.Comm3
	case "comm3_midspan":
		return row.Comm3Midspan
	case "comm4_height":
		return row.Comm4
	case "comm4_midspan":
		return row.Comm4Midspan
	case "existing_risers":
		return row.ExistingRisers
	case "proposed_height":
		return row.ProposedHeight
	case "proposed_midspan":
		return row.ProposedMidspan
	case "span_length":
		return row.SpanLength
	case "notes":
		return row.Notes
	case "guy_size":
		return row.GuySize
	case "guy_lead":
		return row.GuyLead
	case "guy_direction":
		return row.GuyDirection
	case "guy_needed":
		return row.GuyNeeded
	case "power_equipment":
		return row.PowerEquipment
	case "street_light":
		return row.StreetLight
	case "street_light_bracket":
		return row.StreetLightAlt
	case "structure_type":
		return row.StructureType
	case "existing_load":
		return row.ExistingLoad
	case "proposed_load":
		return row.ProposedLoad
	case "pole_tag":
		return row.PoleTag
	case "latitude":
		return row.Latitude
	case "longitude":
		return row.Longitude
	}
	return ""
}
