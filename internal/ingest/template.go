package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TemplateRow is one Pole/To Pole pairing from the output template, with
// the worksheet row it came from so results land back on the same line.
type TemplateRow struct {
	Pole     string
	ToPole   string
	ExcelRow int
}

// Template is the connection list read out of the output workbook. Every
// sheet with a Pole column contributes, in sheet order.
type Template struct {
	SheetOrder []string
	BySheet    map[string][]TemplateRow
}

// LoadTemplate scans each sheet of the template workbook for a column
// headed exactly "pole" and one containing "to pole". Rows with a blank
// Pole cell are skipped.
func LoadTemplate(path string) (*Template, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template workbook: %w", err)
	}
	defer f.Close()

	tpl := &Template{BySheet: map[string][]TemplateRow{}}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}

		poleCol, toPoleCol := -1, -1
		for i, name := range rows[0] {
			n := strings.ToLower(strings.TrimSpace(name))
			if n == "pole" && poleCol < 0 {
				poleCol = i
			}
			if (strings.Contains(n, "to pole") || strings.Contains(n, "topole")) && toPoleCol < 0 {
				toPoleCol = i
			}
		}
		if poleCol < 0 {
			continue
		}

		var sheetRows []TemplateRow
		for i, row := range rows[1:] {
			pole := ""
			if poleCol < len(row) {
				pole = strings.TrimSpace(row[poleCol])
			}
			if pole == "" || strings.EqualFold(pole, "nan") {
				continue
			}
			toPole := ""
			if toPoleCol >= 0 && toPoleCol < len(row) {
				toPole = strings.TrimSpace(row[toPoleCol])
			}
			sheetRows = append(sheetRows, TemplateRow{Pole: pole, ToPole: toPole, ExcelRow: i + 2})
		}
		if len(sheetRows) > 0 {
			tpl.SheetOrder = append(tpl.SheetOrder, sheet)
			tpl.BySheet[sheet] = sheetRows
		}
	}

	if len(tpl.SheetOrder) == 0 {
		return nil, fmt.Errorf("template workbook has no sheet with a Pole column")
	}
	return tpl, nil
}

// AllRows flattens every sheet's rows in sheet order.
func (t *Template) AllRows() []TemplateRow {
	var out []TemplateRow
	for _, sheet := range t.SheetOrder {
		out = append(out, t.BySheet[sheet]...)
	}
	return out
}
