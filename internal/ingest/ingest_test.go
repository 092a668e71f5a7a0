package ingest

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func mkWorkbook(t *testing.T, sheets []sheetFixture) string {
	t.Helper()
	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet.name)
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				t.Fatal(err)
			}
		}
		for r, row := range sheet.rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(sheet.name, cell, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}
