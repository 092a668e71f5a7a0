package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/ingest"
	"polemr/internal/storage"
	"polemr/internal/util"
)

// ProgressFunc reports phase progress. Returning false aborts the run.
type ProgressFunc func(percent int, message string) bool

// Process walks the template (or, in QC mode, the audited connection
// list) and emits one output row per span.
func (p *Processor) Process(progress ProgressFunc) []internal.OutputRow {
	if !report(progress, 40, "filtering pole data") {
		return nil
	}
	if !report(progress, 50, "building connections") {
		return nil
	}

	var rows []internal.OutputRow
	if p.qc != nil && p.qc.Active() {
		rows = p.processQCConnections()
	} else {
		rows = p.processTemplateConnections()
		if len(rows) == 0 {
			rows = p.processDiscoveredConnections()
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return util.LessSCID(rows[i].Pole, rows[j].Pole)
		})
	}

	if !report(progress, 90, fmt.Sprintf("generated %d output rows", len(rows))) {
		return nil
	}
	return rows
}

func (p *Processor) processTemplateConnections() []internal.OutputRow {
	var rows []internal.OutputRow
	for _, tpl := range p.template.AllRows() {
		poleNorm := util.NormalizeSCID(tpl.Pole, p.rules.IgnoreSCIDKeywords)
		toPoleNorm := util.NormalizeSCID(tpl.ToPole, p.rules.IgnoreSCIDKeywords)

		var row *internal.OutputRow
		if !invalidToPole(tpl.ToPole) {
			if conn, found := p.findConnection(poleNorm, toPoleNorm); found {
				row = p.createOutputRow(poleNorm, toPoleNorm, conn)
			}
		}
		if row == nil {
			row = p.createPoleOnlyRow(poleNorm, tpl.ToPole)
		}
		if row == nil {
			continue
		}
		row.Pole = tpl.Pole
		row.ToPole = tpl.ToPole
		row.TemplateExcelRow = tpl.ExcelRow
		applyEndMarker(row)
		rows = append(rows, *row)
	}
	return rows
}

// processDiscoveredConnections is the fallback when the template carries
// no usable pairs: every connection between eligible nodes produces a
// row, in connection table order, one per pair. The pole column always
// holds the pole, so a connection listed reference-first is flipped.
func (p *Processor) processDiscoveredConnections() []internal.OutputRow {
	seen := map[[2]string]bool{}
	var rows []internal.OutputRow
	for _, conn := range p.job.Connections {
		if conn.SCID1 == "" || conn.SCID2 == "" {
			continue
		}
		node1, ok1 := p.job.NodeBySCID[conn.SCID1]
		node2, ok2 := p.job.NodeBySCID[conn.SCID2]
		if !ok1 || !ok2 || !p.job.ValidNodeIDs[node1.NodeID] || !p.job.ValidNodeIDs[node2.NodeID] {
			continue
		}
		key := pairKey(conn.SCID1, conn.SCID2)
		if seen[key] {
			continue
		}
		seen[key] = true
		pole, toPole := conn.SCID1, conn.SCID2
		if node1.Type == internal.NodeReference && node2.Type != internal.NodeReference {
			pole, toPole = toPole, pole
		}
		span := conn.SpanDistance
		if kept, ok := p.spanMap[key]; ok {
			span = kept
		}
		row := p.createOutputRow(pole, toPole, connInfo{
			ConnectionID: conn.ConnectionID,
			SpanDistance: span,
		})
		if row == nil {
			continue
		}
		rows = append(rows, *row)
	}
	return rows
}

// processQCConnections emits rows in the audit workbook's exact order
// and with its exact Pole/To Pole text. Connections the main workbook
// does not know still produce a row so both sheets stay aligned.
func (p *Processor) processQCConnections() []internal.OutputRow {
	var rows []internal.OutputRow
	for _, qcConn := range p.qc.Connections {
		poleNorm := util.NormalizeSCID(qcConn.Pole, p.rules.IgnoreSCIDKeywords)
		toPoleNorm := util.NormalizeSCID(qcConn.ToPole, p.rules.IgnoreSCIDKeywords)

		conn, found := p.findConnection(poleNorm, toPoleNorm)
		if !found {
			conn = connInfo{SpanDistance: p.findSpanLoose(poleNorm, toPoleNorm)}
		}

		row := p.createOutputRow(poleNorm, toPoleNorm, conn)
		if row == nil {
			row = &internal.OutputRow{
				Pole:       qcConn.Pole,
				ToPole:     qcConn.ToPole,
				SpanLength: conn.SpanDistance,
				Notes:      "QC connection - limited data available",
			}
		} else {
			row.Pole = qcConn.Pole
			row.ToPole = qcConn.ToPole
		}
		applyEndMarker(row)
		rows = append(rows, *row)
	}
	return rows
}

func report(progress ProgressFunc, percent int, message string) bool {
	if progress == nil {
		return true
	}
	return progress(percent, message)
}

// Service wires the whole run: load workbooks, process, write output,
// persist the run record.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	TraceID    string
	OutputPath string
	Rows       []internal.OutputRow
	Conflicts  []internal.SpanConflict
	QCResults  []internal.QCResult
}

// Run executes the full reconciliation. The QC workbook, PDF report
// directories, and attachment workbook are all optional; the job and
// template workbooks are not.
func (s *Service) Run(ctx context.Context, progress ProgressFunc) (RunResult, error) {
	start := time.Now()
	rules, err := config.LoadRules(s.cfg.RulesPath)
	if err != nil {
		return RunResult{}, err
	}
	if rules.SpanTolerance == 0 && s.cfg.SpanTolerance > 0 {
		rules.SpanTolerance = s.cfg.SpanTolerance
	}

	job, err := ingest.LoadJob(s.cfg.JobPath, rules)
	if err != nil {
		return RunResult{}, err
	}
	template, err := ingest.LoadTemplate(s.cfg.TemplatePath)
	if err != nil {
		return RunResult{}, err
	}

	var attach *ingest.AttachmentSet
	if s.cfg.AttachmentPath != "" {
		valid := map[string]bool{}
		for _, node := range job.Nodes {
			valid[node.SCID] = true
		}
		attach, err = ingest.LoadAttachments(s.cfg.AttachmentPath, rules, valid)
		if err != nil {
			return RunResult{}, err
		}
	}
	var qc *ingest.QCSet
	if s.cfg.QCPath != "" {
		qc, err = ingest.LoadQC(s.cfg.QCPath, rules)
		if err != nil {
			return RunResult{}, err
		}
	}
	var reports *ingest.ReportReader
	if s.cfg.ExistingPDFDir != "" || s.cfg.ProposedPDFDir != "" {
		reports = ingest.NewReportReader(s.cfg.ExistingPDFDir, s.cfg.ProposedPDFDir, rules.IgnoreSCIDKeywords)
	}

	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	proc := NewProcessor(rules, job, attach, template, qc, reports, Options{
		OutputDecimal:    s.cfg.OutputDecimal,
		CoordinatePlaces: s.cfg.CoordinatePlaces,
	})
	rows := proc.Process(progress)

	result := RunResult{
		TraceID:   traceID(),
		Rows:      rows,
		Conflicts: proc.Conflicts(),
	}
	if qc.Active() {
		result.QCResults = CompareQC(rows, qc)
	}

	writer := NewWriter(rules, s.cfg.OutputDir)
	result.OutputPath, err = writer.Write(s.cfg.TemplatePath, s.cfg.JobPath, rows, result.QCResults, qc.Active())
	if err != nil {
		return RunResult{}, err
	}

	if s.db != nil {
		runID, err := s.db.InsertRun(internal.RunRow{
			TraceID:       result.TraceID,
			JobPath:       s.cfg.JobPath,
			TemplatePath:  s.cfg.TemplatePath,
			OutputPath:    result.OutputPath,
			QCActive:      qc.Active(),
			RowCount:      len(rows),
			ConflictCount: len(result.Conflicts),
		})
		if err != nil {
			return RunResult{}, err
		}
		if err := s.db.InsertSpanConflicts(runID, result.Conflicts); err != nil {
			return RunResult{}, err
		}
		if err := s.db.InsertQCResults(runID, result.QCResults); err != nil {
			return RunResult{}, err
		}
	}

	fmt.Printf("run complete trace=%s rows=%d conflicts=%d elapsed=%s\n",
		result.TraceID, len(rows), len(result.Conflicts), time.Since(start).Round(time.Millisecond))
	return result, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
