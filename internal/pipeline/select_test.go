package pipeline

import (
	"testing"

	"polemr/internal"
	"polemr/internal/config"
)

func newTestSelector(decimal bool) *Selector {
	rules := config.DefaultRules()
	return NewSelector(rules, NewMatcher(rules), decimal)
}

func TestPowerAttachments(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "Xcel Energy", Measured: "Neutral", HeightIn: "300"},
		{Company: "", Measured: "Secondary Drip Loop", HeightIn: "290"},
		{Company: "", Measured: "Riser", HeightIn: "100"},
		{Company: "CATV com", Measured: "Neutral", HeightIn: "250"},
		{Company: "Xcel Energy", Measured: "Primary", HeightIn: "0"},
	}
	got := s.PowerAttachments(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Height != "24.17" || got[0].Keyword != "Secondary Drip Loop" {
		t.Fatalf("lowest candidate = %+v, want 24.17 Secondary Drip Loop", got[0])
	}
	if got[1].Height != "25.00" || got[1].Keyword != "Neutral" {
		t.Fatalf("second candidate = %+v, want 25.00 Neutral", got[1])
	}

	if s.PowerAttachments(nil) != nil {
		t.Fatalf("expected no candidates for no records")
	}
}

func TestPowerAttachmentsRiserNeedsPowerCompany(t *testing.T) {
	s := newTestSelector(true)

	// A bare riser row without the power company stays out; the same
	// row owned by the power company counts.
	records := []internal.AttachmentRecord{{Company: "", Measured: "Riser", HeightIn: "120"}}
	if got := s.PowerAttachments(records); len(got) != 0 {
		t.Fatalf("expected no candidates for blank-company riser, got %+v", got)
	}
	records[0].Company = "Xcel Energy"
	got := s.PowerAttachments(records)
	if len(got) != 1 || got[0].Keyword != "Riser" {
		t.Fatalf("expected riser attachment for power company row, got %+v", got)
	}
}

func TestPowerEquipment(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "Xcel Energy", Measured: "riser on pole", HeightIn: "240"},
		{Company: "Xcel Energy", Measured: "transformer bottom_of_equipment", HeightIn: "", OtherHeights: []string{"300"}},
		{Company: "CATV com", Measured: "capacitor", HeightIn: "260"},
	}
	items := s.PowerEquipment(records)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Name != "Riser" || items[1].Name != "Transformer" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if got := FormatEquipment(items); got != "Riser=20.00\nTransformer=25.00" {
		t.Fatalf("FormatEquipment = %q", got)
	}
}

func TestCommAttachments(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "CATV com", Measured: "catv", HeightIn: "270"},
		{Company: "CATV com", Measured: "catv", HeightIn: "270"},
		{Company: "Century Link", Measured: "telco", HeightIn: "280"},
		{Company: "MetroNet Fiber", Measured: "fiber", HeightIn: "255"},
		{Company: "Xcel Energy", Measured: "catv", HeightIn: "265"},
		{Company: "CATV com", Measured: "drop wire", HeightIn: "250"},
	}
	sel := s.CommAttachments(records)

	if len(sel.Groups) != 2 {
		t.Fatalf("expected 2 provider groups, got %d: %+v", len(sel.Groups), sel.Groups)
	}
	if sel.Groups[0].Provider != "CenturyLink" || sel.Groups[0].Combined != "23.33" {
		t.Fatalf("unexpected top group: %+v", sel.Groups[0])
	}
	if sel.Groups[1].Provider != "CATV" || sel.Groups[1].Combined != "22.50" {
		t.Fatalf("duplicate heights should collapse: %+v", sel.Groups[1])
	}

	if sel.Proposed == nil || sel.Proposed.Combined != "21.25" {
		t.Fatalf("expected proposed group 21.25, got %+v", sel.Proposed)
	}

	// Proposed heights stay out of the power selection floor.
	if len(sel.TelecomHeights) != 2 {
		t.Fatalf("expected 2 telecom heights, got %v", sel.TelecomHeights)
	}
}

func TestCalculatePowerHeights(t *testing.T) {
	candidates := []internal.PowerAttachment{
		{Height: "26.00", HeightDecimal: 26, Keyword: "Neutral"},
		{Height: "24.00", HeightDecimal: 24, Keyword: "Secondary"},
	}

	// Everything clears the floor: lowest candidate wins.
	height, powerType := CalculatePowerHeights(candidates, []float64{22})
	if height != "24.00" || powerType != "Secondary" {
		t.Fatalf("got %q/%q, want 24.00/Secondary", height, powerType)
	}

	// Floor above one candidate: only the clearing one counts.
	height, powerType = CalculatePowerHeights(candidates, []float64{25})
	if height != "26.00" || powerType != "Neutral" {
		t.Fatalf("got %q/%q, want 26.00/Neutral", height, powerType)
	}

	// Floor above everything: fall back to the overall lowest.
	height, _ = CalculatePowerHeights(candidates, []float64{30})
	if height != "24.00" {
		t.Fatalf("got %q, want 24.00", height)
	}

	if height, powerType = CalculatePowerHeights(nil, nil); height != "" || powerType != "" {
		t.Fatalf("expected empty result for no candidates")
	}
}

func TestStreetlight(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "CATV com", Measured: "street light drip loop", HeightIn: "290"},
		{Company: "", Measured: "street light", HeightIn: "280"},
		{Company: "Xcel Energy", Measured: "Neutral", HeightIn: "270"},
	}
	got := s.Streetlight(records)
	if got == nil || got.Height != "23.33" {
		t.Fatalf("expected lowest street fixture 23.33, got %+v", got)
	}
}

func TestStreetLightHeight(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "CATV com", Measured: "street light", HeightIn: "250"},
		{Company: "", Measured: "street light", HeightIn: "280"},
		{Company: "Xcel Energy", Measured: "street light", HeightIn: "290"},
	}
	// Power company and blank companies qualify; the attacher row does not.
	if got := s.StreetLightHeight(records); got != "23.33" {
		t.Fatalf("StreetLightHeight = %q, want 23.33", got)
	}

	riserRules := config.DefaultRules()
	riserRules.StreetLightKeywords = []string{"street", "streetlight riser"}
	rs := NewSelector(riserRules, NewMatcher(riserRules), true)
	// A riser street keyword restricts the search to power company rows.
	if got := rs.StreetLightHeight(records); got != "24.17" {
		t.Fatalf("StreetLightHeight with riser keyword = %q, want 24.17", got)
	}
}

func TestCountRisers(t *testing.T) {
	s := newTestSelector(true)

	records := []internal.AttachmentRecord{
		{Company: "Xcel Energy", Measured: "Riser"},
		{Company: "CATV com", Measured: "riser catv"},
		{Company: "MetroNet", Measured: "riser"},
		{Company: "Telco", Measured: "proposed mnt riser"},
		{Company: "Telco", Measured: "drop wire"},
	}
	if got := s.CountRisers(records); got != 2 {
		t.Fatalf("CountRisers = %d, want 2", got)
	}
}
