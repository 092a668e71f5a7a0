package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/util"
)

// Job holds the three sheets of the main field-data workbook, SCIDs
// normalized and lookup maps prebuilt.
type Job struct {
	Nodes        []internal.Node
	NodeBySCID   map[string]internal.Node
	SCIDByNodeID map[string]string
	ValidNodeIDs map[string]bool
	Connections  []internal.Connection
	Sections     []internal.SectionRow
}

// LoadJob reads the nodes, connections and sections sheets. Nodes keep
// only poles and references that are not underground; everything else
// stays available for SCID lookups but never produces output rows.
func LoadJob(path string, rules config.Rules) (*Job, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open job workbook: %w", err)
	}
	defer f.Close()

	job := &Job{
		NodeBySCID:   map[string]internal.Node{},
		SCIDByNodeID: map[string]string{},
		ValidNodeIDs: map[string]bool{},
	}

	if err := job.loadNodes(f, rules); err != nil {
		return nil, err
	}
	if err := job.loadConnections(f); err != nil {
		return nil, err
	}
	if err := job.loadSections(f); err != nil {
		return nil, err
	}
	return job, nil
}

func (j *Job) loadNodes(f *excelize.File, rules config.Rules) error {
	rows, err := f.GetRows("nodes")
	if err != nil {
		return fmt.Errorf("read nodes sheet: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("nodes sheet is empty")
	}
	idx := headerIndex(rows[0])
	for _, col := range []string{"scid", "node_type"} {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("nodes sheet missing column %q", col)
		}
	}

	for i, row := range rows[1:] {
		raw := cell(row, idx, "scid")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		scid := util.NormalizeSCID(raw, rules.IgnoreSCIDKeywords)
		node := internal.Node{
			SCID:     scid,
			RawSCID:  raw,
			NodeID:   strings.TrimSpace(cell(row, idx, "node_id")),
			Type:     internal.NodeType(strings.ToLower(strings.TrimSpace(cell(row, idx, "node_type")))),
			PoleSpec: strings.TrimSpace(cell(row, idx, "pole_spec")),
			PoleTag:  strings.TrimSpace(cell(row, idx, "pole_tag_tagtext")),
			MRNote:   strings.TrimSpace(cell(row, idx, "mr_note")),
			SheetRow: i + 2,
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx, "latitude")), 64); err == nil {
			node.Latitude = util.FloatPtr(v)
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx, "longitude")), 64); err == nil {
			node.Longitude = util.FloatPtr(v)
		}

		j.Nodes = append(j.Nodes, node)
		if _, seen := j.NodeBySCID[scid]; !seen {
			j.NodeBySCID[scid] = node
		}
		if node.NodeID != "" {
			j.SCIDByNodeID[node.NodeID] = scid
		}

		status := strings.ToLower(strings.TrimSpace(cell(row, idx, "pole_status")))
		if (node.Type == internal.NodePole || node.Type == internal.NodeReference) && status != "underground" {
			j.ValidNodeIDs[node.NodeID] = true
		}
	}

	sort.SliceStable(j.Nodes, func(a, b int) bool {
		return util.LessSCID(j.Nodes[a].SCID, j.Nodes[b].SCID)
	})
	return nil
}

func (j *Job) loadConnections(f *excelize.File) error {
	rows, err := f.GetRows("connections")
	if err != nil {
		return fmt.Errorf("read connections sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil
	}
	idx := headerIndex(rows[0])
	for i, row := range rows[1:] {
		n1 := strings.TrimSpace(cell(row, idx, "node_id_1"))
		n2 := strings.TrimSpace(cell(row, idx, "node_id_2"))
		if n1 == "" && n2 == "" {
			continue
		}
		j.Connections = append(j.Connections, internal.Connection{
			ConnectionID: strings.TrimSpace(cell(row, idx, "connection_id")),
			NodeID1:      n1,
			NodeID2:      n2,
			SCID1:        j.SCIDByNodeID[n1],
			SCID2:        j.SCIDByNodeID[n2],
			SpanDistance: strings.TrimSpace(cell(row, idx, "span_distance")),
			SheetRow:     i + 2,
		})
	}
	return nil
}

func (j *Job) loadSections(f *excelize.File) error {
	// Jobs without midspan measurements ship no sections sheet at all.
	rows, err := f.GetRows("sections")
	if err != nil || len(rows) < 2 {
		return nil
	}

	header := rows[0]
	idx := headerIndex(header)

	// POA owner columns pair with a matching *HT height column.
	type poaPair struct{ owner, height int }
	var pairs []poaPair
	for col, name := range header {
		name = strings.TrimSpace(name)
		if !strings.HasPrefix(name, "POA_") || strings.HasSuffix(name, "HT") {
			continue
		}
		htCol := -1
		for c, n := range header {
			if strings.TrimSpace(n) == name+"HT" {
				htCol = c
				break
			}
		}
		if htCol >= 0 {
			pairs = append(pairs, poaPair{owner: col, height: htCol})
		}
	}

	for i, row := range rows[1:] {
		id := strings.TrimSpace(cell(row, idx, "connection_id"))
		if id == "" {
			continue
		}
		section := internal.SectionRow{ConnectionID: id, SheetRow: i + 2}
		for _, p := range pairs {
			owner := ""
			height := ""
			if p.owner < len(row) {
				owner = strings.TrimSpace(row[p.owner])
			}
			if p.height < len(row) {
				height = strings.TrimSpace(row[p.height])
			}
			section.Owners = append(section.Owners, owner)
			section.Heights = append(section.Heights, height)
		}
		j.Sections = append(j.Sections, section)
	}
	return nil
}

// SectionFor picks the section row for a connection. With several
// candidates the one whose lowest recorded height is smallest wins.
func (j *Job) SectionFor(connectionID string) *internal.SectionRow {
	if strings.TrimSpace(connectionID) == "" {
		return nil
	}
	var matches []internal.SectionRow
	for _, s := range j.Sections {
		if s.ConnectionID == connectionID {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	if len(matches) == 1 {
		return &matches[0]
	}

	best := 0
	bestMin := minSectionHeight(matches[0])
	for i := 1; i < len(matches); i++ {
		if m := minSectionHeight(matches[i]); m < bestMin {
			best = i
			bestMin = m
		}
	}
	return &matches[best]
}

func minSectionHeight(s internal.SectionRow) float64 {
	min := maxHeight
	for _, h := range s.Heights {
		if dec, ok := util.ParseHeightDecimal(h); ok && dec < min {
			min = dec
		}
	}
	return min
}

const maxHeight float64 = 1 << 20

func headerIndex(header []string) map[string]int {
	idx := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			if _, ok := idx[name]; !ok {
				idx[name] = i
			}
		}
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
