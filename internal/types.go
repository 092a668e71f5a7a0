package internal

type NodeType string

const (
	NodePole      NodeType = "pole"
	NodeReference NodeType = "reference"
)

// Node is one structure from the job workbook nodes sheet, keyed by
// normalized SCID after ingest.
type Node struct {
	SCID      string
	NodeID    string
	Type      NodeType
	PoleSpec  string
	PoleTag   string
	MRNote    string
	Latitude  *float64
	Longitude *float64
	RawSCID   string
	SheetRow  int
}

type Connection struct {
	ConnectionID string
	NodeID1      string
	NodeID2      string
	SCID1        string
	SCID2        string
	SpanDistance string
	SheetRow     int
}

// SectionRow carries the POA owner/height pairs of one section record.
// Owners[i] and Heights[i] belong together.
type SectionRow struct {
	ConnectionID string
	Owners       []string
	Heights      []string
	SheetRow     int
}

// AttachmentRecord is one measured row from a per-SCID attachment sheet.
// OtherHeights carries values of any extra height columns the sheet has,
// used as fallbacks when the main column is blank.
type AttachmentRecord struct {
	Company      string
	Measured     string
	HeightIn     string
	OtherHeights []string
	SheetRow     int
}

// HeightEntry pairs a formatted height string with its decimal-feet value
// so selection can sort numerically and emit the formatted form.
type HeightEntry struct {
	Formatted string
	Decimal   float64
}

// ProviderHeightGroup is every surviving height for one provider on one
// pole, sorted highest first with duplicates removed.
type ProviderHeightGroup struct {
	Provider string
	Heights  []HeightEntry
	Combined string
}

type PowerAttachment struct {
	Height        string
	HeightDecimal float64
	Company       string
	Measured      string
	Keyword       string
}

type EquipmentItem struct {
	Name          string
	Height        string
	HeightDecimal float64
	Measured      string
}

type StreetlightAttachment struct {
	Height        string
	HeightDecimal float64
	Measured      string
}

// GuyInfo is what the make-ready note yields about down guys.
type GuyInfo struct {
	Sizes      []string
	Leads      []string
	Directions []string
}

// OutputRow is one line of the make-ready spreadsheet. Pole and ToPole
// keep the template's original text; everything else is derived.
type OutputRow struct {
	Pole             string
	ToPole           string
	PoleHeightClass  string
	PowerHeight      string
	PowerMidspan     string
	PowerType        string
	Comm1            string
	Comm1Midspan     string
	Comm2            string
	Comm2Midspan     string
	Comm3            string
	Comm3Midspan     string
	Comm4            string
	Comm4Midspan     string
	ExistingRisers   string
	ProposedHeight   string
	ProposedMidspan  string
	SpanLength       string
	Notes            string
	GuySize          string
	GuyLead          string
	GuyDirection     string
	GuyNeeded        string
	PowerEquipment   string
	StreetLight      string
	StreetLightAlt   string
	StructureType    string
	ExistingLoad     string
	ProposedLoad     string
	Latitude         string
	Longitude        string
	PoleTag          string
	TemplateExcelRow int

	// Per-provider columns, keyed by provider name. Templates that carry
	// a column per attacher get these alongside the positional comm
	// slots.
	ProviderHeights  map[string]string
	ProviderMidspans map[string]string
}

// QCConnection is one ordered Pole/To Pole pair from the QC workbook,
// original text preserved.
type QCConnection struct {
	Pole   string
	ToPole string
	Span   string
}

// QCPoleRecord holds the audit heights recorded per pole in the QC
// workbook, Alden export format.
type QCPoleRecord struct {
	Pole         string
	Notes        string
	MetroAttach  string
	MetroMidspan string
	PowerAttach  string
	PowerMidspan string
	PowerType    string
	CommAttach   [3]string
	CommMidspan  [3]string
}

type QCVerdict string

const (
	QCMatch        QCVerdict = "MATCH"
	QCMismatch     QCVerdict = "MISMATCH"
	QCMissing      QCVerdict = "MISSING"
	QCPoleNotFound QCVerdict = "POLE_NOT_FOUND"
)

// QCResult is the comparison outcome for one field on one pole.
type QCResult struct {
	Pole    string
	Field   string
	Got     string
	Want    string
	Verdict QCVerdict
}

// SpanConflict records two template rows disagreeing about the span of
// the same pole pair. The first value seen wins.
type SpanConflict struct {
	SCID1 string
	SCID2 string
	Kept  string
	Seen  string
}

// RunRow is one persisted pipeline run.
type RunRow struct {
	ID            int64
	TraceID       string
	JobPath       string
	TemplatePath  string
	OutputPath    string
	QCActive      bool
	RowCount      int
	ConflictCount int
	CreatedAt     string
}

// PDFReportData is what the pole loading report PDFs contribute.
type PDFReportData struct {
	StructureType string
	ExistingLoad  string
	ProposedLoad  string
}
