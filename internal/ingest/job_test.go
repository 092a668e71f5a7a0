package ingest

import (
	"testing"

	"polemr/internal/config"
)

func TestLoadJob(t *testing.T) {
	path := mkWorkbook(t, []sheetFixture{
		{name: "nodes", rows: [][]any{
			{"node_id", "scid", "node_type", "pole_status", "pole_spec", "pole_tag_tagtext", "mr_note", "latitude", "longitude"},
			{"n1", "001", "pole", "", "40-3 Southern Pine", "T100", "PL new anchor", "44.97731234567", "-93.2650123"},
			{"n2", "002", "pole", "underground", "", "", "", "", ""},
			{"n3", "003", "reference", "", "", "", "", "", ""},
			{"n4", "004 Xcel", "pole", "", "", "", "", "", ""},
		}},
		{name: "connections", rows: [][]any{
			{"connection_id", "node_id_1", "node_id_2", "span_distance"},
			{"c1", "n1", "n3", "123.4"},
			{"c2", "n1", "n4", "88"},
		}},
		{name: "sections", rows: [][]any{
			{"connection_id", "POA_1", "POA_1HT", "POA_2", "POA_2HT"},
			{"c1", "Xcel Energy", `25' 6"`, "CATV", `21' 0"`},
			{"c2", "Proposed MetroNet", `19' 6"`, "", ""},
			{"c2", "Proposed MetroNet", `18' 0"`, "", ""},
		}},
	})

	job, err := LoadJob(path, config.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}

	if len(job.Nodes) != 4 {
		t.Fatalf("nodes len=%d", len(job.Nodes))
	}
	if _, ok := job.NodeBySCID["1"]; !ok {
		t.Fatalf("SCID 001 should normalize to 1: %v", job.NodeBySCID)
	}
	if _, ok := job.NodeBySCID["4"]; !ok {
		t.Fatalf("ignore keyword should be stripped from 004 Xcel")
	}
	if job.ValidNodeIDs["n2"] {
		t.Fatalf("underground pole must not be valid")
	}
	if !job.ValidNodeIDs["n3"] {
		t.Fatalf("reference node should be valid")
	}

	if len(job.Connections) != 2 {
		t.Fatalf("connections len=%d", len(job.Connections))
	}
	if job.Connections[0].SCID1 != "1" || job.Connections[0].SCID2 != "3" {
		t.Fatalf("node ids not resolved to SCIDs: %+v", job.Connections[0])
	}

	section := job.SectionFor("c1")
	if section == nil {
		t.Fatalf("section c1 missing")
	}
	if len(section.Owners) != 2 || section.Owners[1] != "CATV" {
		t.Fatalf("POA pairing wrong: %+v", section)
	}

	// Two rows share c2; the one with the lower height wins.
	section = job.SectionFor("c2")
	if section == nil || section.Heights[0] != `18' 0"` {
		t.Fatalf("lowest-height section should win: %+v", section)
	}

	if job.SectionFor("missing") != nil {
		t.Fatalf("unknown connection id should yield nil")
	}
}

func TestLoadJobMissingColumns(t *testing.T) {
	path := mkWorkbook(t, []sheetFixture{
		{name: "nodes", rows: [][]any{
			{"node_id", "node_type"},
			{"n1", "pole"},
		}},
		{name: "connections", rows: [][]any{{"connection_id"}}},
		{name: "sections", rows: [][]any{{"connection_id"}}},
	})
	if _, err := LoadJob(path, config.DefaultRules()); err == nil {
		t.Fatalf("missing scid column should fail")
	}
}
