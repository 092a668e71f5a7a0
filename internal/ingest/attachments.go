package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/util"
)

// AttachmentSet holds the per-pole measured attachment rows, keyed by
// normalized SCID.
type AttachmentSet struct {
	bySCID map[string][]internal.AttachmentRecord
	ignore []string
}

// NewAttachmentSet builds a set from already parsed rows, keys
// normalized. Used by callers that source rows outside a workbook.
func NewAttachmentSet(rules config.Rules, data map[string][]internal.AttachmentRecord) *AttachmentSet {
	set := &AttachmentSet{
		bySCID: map[string][]internal.AttachmentRecord{},
		ignore: rules.IgnoreSCIDKeywords,
	}
	for scid, records := range data {
		set.bySCID[util.NormalizeSCID(scid, rules.IgnoreSCIDKeywords)] = records
	}
	return set
}

// LoadAttachments reads every "SCID <n>" sheet from the attachment
// workbook. Sheets whose SCID is not in validSCIDs are skipped; pass nil
// to accept all of them. Data starts under a second header row.
func LoadAttachments(path string, rules config.Rules, validSCIDs map[string]bool) (*AttachmentSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment workbook: %w", err)
	}
	defer f.Close()

	set := &AttachmentSet{
		bySCID: map[string][]internal.AttachmentRecord{},
		ignore: rules.IgnoreSCIDKeywords,
	}

	for _, sheet := range f.GetSheetList() {
		if !strings.HasPrefix(sheet, "SCID ") {
			continue
		}
		scid := util.NormalizeSCID(strings.TrimSpace(sheet[len("SCID "):]), rules.IgnoreSCIDKeywords)
		if scid == "" {
			continue
		}
		if validSCIDs != nil && !validSCIDs[scid] {
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 3 {
			continue
		}
		idx := headerIndex(rows[1])
		missing := false
		for _, col := range []string{"company", "measured", "height_in_inches"} {
			if _, ok := idx[col]; !ok {
				missing = true
				break
			}
		}
		if missing {
			fmt.Printf("attachments sheet=%q skipped reason=missing_columns\n", sheet)
			continue
		}

		var extraHeightCols []int
		for name, col := range idx {
			if name != "height_in_inches" && strings.Contains(name, "height") {
				extraHeightCols = append(extraHeightCols, col)
			}
		}

		var records []internal.AttachmentRecord
		for i, row := range rows[2:] {
			rec := internal.AttachmentRecord{
				Company:  strings.TrimSpace(cell(row, idx, "company")),
				Measured: strings.TrimSpace(cell(row, idx, "measured")),
				HeightIn: strings.TrimSpace(cell(row, idx, "height_in_inches")),
				SheetRow: i + 3,
			}
			if rec.Company == "" && rec.Measured == "" && rec.HeightIn == "" {
				continue
			}
			for _, col := range extraHeightCols {
				if col < len(row) && strings.TrimSpace(row[col]) != "" {
					rec.OtherHeights = append(rec.OtherHeights, strings.TrimSpace(row[col]))
				}
			}
			records = append(records, rec)
		}
		set.bySCID[scid] = records
	}

	if len(set.bySCID) == 0 {
		return nil, fmt.Errorf("no SCID sheets found in attachment workbook")
	}
	return set, nil
}

// Records returns the attachment rows for a SCID, normalizing the key
// the same way the sheets were keyed on load.
func (a *AttachmentSet) Records(scid string) []internal.AttachmentRecord {
	if a == nil {
		return nil
	}
	return a.bySCID[util.NormalizeSCID(scid, a.ignore)]
}

// SCIDCount reports how many poles have attachment data.
func (a *AttachmentSet) SCIDCount() int {
	if a == nil {
		return 0
	}
	return len(a.bySCID)
}
