package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rules drives matching and output layout. Everything has a built-in
// default tuned for Xcel jobs; a YAML rules file overrides per job.
type Rules struct {
	PowerCompany    string `yaml:"power_company" validate:"required"`
	ProposedCompany string `yaml:"proposed_company" validate:"required"`

	TelecomProviders []string            `yaml:"telecom_providers" validate:"min=1"`
	TelecomKeywords  map[string][]string `yaml:"telecom_keywords"`

	PowerKeywords          []string `yaml:"power_keywords" validate:"min=1"`
	PowerEquipmentKeywords []string `yaml:"power_equipment_keywords"`
	CommKeywords           []string `yaml:"comm_keywords" validate:"min=1"`
	StreetLightKeywords    []string `yaml:"street_light_keywords"`
	IgnoreSCIDKeywords     []string `yaml:"ignore_scid_keywords"`

	// Older rules files spelled the proposed attacher several ways.
	LegacyProposedKeywords []string `yaml:"legacy_proposed_keywords"`

	EquipmentDisplayNames map[string]string `yaml:"equipment_display_names"`

	Output struct {
		HeaderRow     int    `yaml:"header_row" validate:"gte=1"`
		DataStartRow  int    `yaml:"data_start_row" validate:"gte=1"`
		WorksheetName string `yaml:"worksheet_name"`
	} `yaml:"output"`

	SpanTolerance float64 `yaml:"span_length_tolerance" validate:"gte=0"`

	ColumnMappings []ColumnMapping `yaml:"column_mappings" validate:"min=1,dive"`
}

// ColumnMapping binds one derived attribute to an output column header.
type ColumnMapping struct {
	Element   string `yaml:"element" validate:"required"`
	Attribute string `yaml:"attribute" validate:"required"`
	Column    string `yaml:"column" validate:"required"`
}

func DefaultRules() Rules {
	r := Rules{
		PowerCompany:    "Xcel",
		ProposedCompany: "Proposed MetroNet",
		TelecomProviders: []string{
			"Proposed MetroNet", "CATV", "Telephone Company", "Fiber", "CenturyLink",
		},
		TelecomKeywords: map[string][]string{
			"Proposed MetroNet": {"proposed metronet", "metronet", "proposed mnt", "mnt"},
			"CATV":              {"catv"},
			"Telephone Company": {"telephone", "telco"},
			"Fiber":             {"fiber"},
			"CenturyLink":       {"centurylink", "century link", "lumen"},
		},
		PowerKeywords: []string{
			"Primary", "Secondary", "Neutral", "Transformer", "Secondary Drip Loop", "Riser", "CAP",
		},
		PowerEquipmentKeywords: []string{
			"Riser", "Capacitor", "transformer bottom_of_equipment", "CAP",
		},
		CommKeywords: []string{
			"Guy", "Power Guy", "insulator*", "fiber", "telco", "catv",
		},
		StreetLightKeywords: []string{"street"},
		IgnoreSCIDKeywords: []string{
			"AT&T", "Foreign Pole", "Unknown", "Xcel", "PCO", "LUMEN", "US WEST",
			"OTHER", "NWBT", "CENTURY LINK", "CENTURYLINK", "Transmission",
		},
		LegacyProposedKeywords: []string{
			"proposed metronet", "metronet", "proposed mnt", "mnt",
		},
		EquipmentDisplayNames: map[string]string{
			"transformer bottom_of_equipment": "Transformer",
			"transformer":                     "Transformer",
			"riser":                           "Riser",
			"capacitor":                       "Capacitor",
		},
		SpanTolerance: 3,
		ColumnMappings: []ColumnMapping{
			{Element: "pole", Attribute: "pole_height_class", Column: "Pole Ht/ Class"},
			{Element: "pole", Attribute: "power_height", Column: "Lowest Power at Pole"},
			{Element: "connection", Attribute: "power_midspan", Column: "Lowest Power at Mid"},
			{Element: "pole", Attribute: "comm1_height", Column: "comm1"},
			{Element: "connection", Attribute: "comm1_midspan", Column: "comm1 Mid"},
			{Element: "pole", Attribute: "comm2_height", Column: "comm2"},
			{Element: "connection", Attribute: "comm2_midspan", Column: "comm2 Mid"},
			{Element: "pole", Attribute: "comm3_height", Column: "comm3"},
			{Element: "connection", Attribute: "comm3_midspan", Column: "comm3 Mid"},
			{Element: "pole", Attribute: "comm4_height", Column: "comm4"},
			{Element: "connection", Attribute: "comm4_midspan", Column: "comm4 Mid"},
			{Element: "pole", Attribute: "existing_risers", Column: "# of Existing Risers"},
			{Element: "pole", Attribute: "proposed_height", Column: "Metro Attachment"},
			{Element: "connection", Attribute: "proposed_midspan", Column: "Metro Mid"},
			{Element: "connection", Attribute: "span_length", Column: "Span Length"},
			{Element: "pole", Attribute: "notes", Column: "MR Notes"},
			{Element: "pole", Attribute: "power_equipment", Column: "Power Equipments"},
			{Element: "pole", Attribute: "structure_type", Column: "Structure Type"},
			{Element: "pole", Attribute: "existing_load", Column: "Existing Load"},
			{Element: "pole", Attribute: "proposed_load", Column: "Proposed Load"},
			{Element: "pole", Attribute: "guy_size", Column: "Guy Size"},
			{Element: "pole", Attribute: "guy_lead", Column: "Guy Lead"},
			{Element: "pole", Attribute: "guy_direction", Column: "Guy Direction"},
			{Element: "pole", Attribute: "guy_needed", Column: "Guy Needed"},
			{Element: "pole", Attribute: "street_light", Column: "Street Light Height"},
			{Element: "pole", Attribute: "street_light_bracket", Column: "Streetlight (bottom of bracket)"},
			{Element: "pole", Attribute: "pole_tag", Column: "Pole Tag"},
			{Element: "pole", Attribute: "latitude", Column: "Latitude"},
			{Element: "pole", Attribute: "longitude", Column: "Longitude"},
		},
	}
	r.Output.HeaderRow = 1
	r.Output.DataStartRow = 2
	r.Output.WorksheetName = "1"
	return r
}

// LoadRules reads a YAML rules file over the defaults. An empty path
// returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Rules{}, fmt.Errorf("read rules file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &rules); err != nil {
			return Rules{}, fmt.Errorf("parse rules file: %w", err)
		}
	}
	if err := validator.New().Struct(rules); err != nil {
		return Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rules, nil
}

// ProposedKeywords expands the proposed company name into the full set of
// spellings matched against owner strings.
func (r Rules) ProposedKeywords() []string {
	base := strings.ToLower(strings.TrimSpace(r.ProposedCompany))
	seen := map[string]bool{}
	var out []string
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw != "" && !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	add(base)
	add(strings.TrimPrefix(base, "proposed "))
	var alnum strings.Builder
	for _, ch := range base {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			alnum.WriteRune(ch)
		}
	}
	add(alnum.String())
	for _, kw := range r.LegacyProposedKeywords {
		add(strings.ToLower(kw))
	}
	return out
}

// EquipmentDisplayName maps a matched equipment keyword to the label used
// in the output cell.
func (r Rules) EquipmentDisplayName(keyword string) string {
	if name, ok := r.EquipmentDisplayNames[strings.ToLower(strings.TrimSpace(keyword))]; ok {
		return name
	}
	return keyword
}
