package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"polemr/internal"
	"polemr/internal/config"
	"polemr/internal/ingest"
	"polemr/internal/pipeline"
	"polemr/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		job := fs.String("job", cfg.JobPath, "job workbook path")
		template := fs.String("template", cfg.TemplatePath, "output template path")
		attachments := fs.String("attachments", cfg.AttachmentPath, "attachment workbook path")
		qc := fs.String("qc", cfg.QCPath, "QC workbook path")
		rules := fs.String("rules", cfg.RulesPath, "rules YAML path")
		out := fs.String("out", cfg.OutputDir, "output directory")
		existingPDF := fs.String("reports-existing", cfg.ExistingPDFDir, "existing condition report directory")
		proposedPDF := fs.String("reports-proposed", cfg.ProposedPDFDir, "proposed condition report directory")
		_ = fs.Parse(os.Args[2:])

		cfg.JobPath = *job
		cfg.TemplatePath = *template
		cfg.AttachmentPath = *attachments
		cfg.QCPath = *qc
		cfg.RulesPath = *rules
		cfg.OutputDir = *out
		cfg.ExistingPDFDir = *existingPDF
		cfg.ProposedPDFDir = *proposedPDF
		must(cfg.Require("JOB_PATH", cfg.JobPath))
		must(cfg.Require("TEMPLATE_PATH", cfg.TemplatePath))

		svc := pipeline.NewService(db, cfg)
		result, err := svc.Run(context.Background(), func(percent int, message string) bool {
			fmt.Printf("progress %3d%% %s\n", percent, message)
			return true
		})
		must(err)
		fmt.Printf("output written to %s\n", result.OutputPath)
		if len(result.QCResults) > 0 {
			fmt.Printf("qc summary %s\n", pipeline.FormatQCSummary(result.QCResults))
		}
		if cfg.OpenOutput {
			openOutput(result.OutputPath)
		}
	case "qc:check":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		job := fs.String("job", cfg.JobPath, "job workbook path")
		attachments := fs.String("attachments", cfg.AttachmentPath, "attachment workbook path")
		qcPath := fs.String("qc", cfg.QCPath, "QC workbook path")
		rulesPath := fs.String("rules", cfg.RulesPath, "rules YAML path")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("JOB_PATH", *job))
		must(cfg.Require("QC_PATH", *qcPath))

		rules, err := config.LoadRules(*rulesPath)
		must(err)
		jobData, err := ingest.LoadJob(*job, rules)
		must(err)
		var attach *ingest.AttachmentSet
		if strings.TrimSpace(*attachments) != "" {
			attach, err = ingest.LoadAttachments(*attachments, rules, nil)
			must(err)
		}
		qcSet, err := ingest.LoadQC(*qcPath, rules)
		must(err)
		if !qcSet.Active() {
			must(fmt.Errorf("QC workbook %s carries no audit data", *qcPath))
		}

		empty := &ingest.Template{BySheet: map[string][]ingest.TemplateRow{}}
		proc := pipeline.NewProcessor(rules, jobData, attach, empty, qcSet, nil, pipeline.Options{
			OutputDecimal:    cfg.OutputDecimal,
			CoordinatePlaces: cfg.CoordinatePlaces,
		})
		results := pipeline.CompareQC(proc.Process(nil), qcSet)
		fmt.Printf("qc summary %s\n", pipeline.FormatQCSummary(results))
		for _, r := range results {
			if r.Verdict == internal.QCMismatch {
				fmt.Printf("pole=%s field=%s got=%q want=%q\n", r.Pole, r.Field, r.Got, r.Want)
			}
		}
	case "reports:scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", cfg.ExistingPDFDir, "report directory")
		pole := fs.String("pole", "", "pole number, e.g. 001")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dir) == "" || strings.TrimSpace(*pole) == "" {
			must(fmt.Errorf("--dir and --pole are required"))
		}
		rules, err := config.LoadRules(cfg.RulesPath)
		must(err)
		path, ok := ingest.FindReportFile(*dir, *pole, rules.IgnoreSCIDKeywords)
		if !ok {
			must(fmt.Errorf("no report found for pole %s in %s", *pole, *dir))
		}
		reader := ingest.NewReportReader(*dir, "", rules.IgnoreSCIDKeywords)
		data := reader.ExtractPoleData(*pole)
		fmt.Printf("report=%s structure=%q existingLoad=%q\n", path, data.StructureType, data.ExistingLoad)
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			fmt.Printf("id=%d trace=%s rows=%d conflicts=%d qc=%t created=%s output=%s\n",
				run.ID, run.TraceID, run.RowCount, run.ConflictCount, run.QCActive, run.CreatedAt, run.OutputPath)
		}
	case "conflicts:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id")
		_ = fs.Parse(os.Args[2:])
		if *runID == 0 {
			must(fmt.Errorf("--runId is required"))
		}
		conflicts, err := db.ListSpanConflicts(*runID)
		must(err)
		for _, c := range conflicts {
			fmt.Printf("%s<->%s kept=%q seen=%q\n", c.SCID1, c.SCID2, c.Kept, c.Seen)
		}
	case "qc:results":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id")
		verdict := fs.String("verdict", "", "MATCH|MISMATCH|MISSING filter")
		_ = fs.Parse(os.Args[2:])
		if *runID == 0 {
			must(fmt.Errorf("--runId is required"))
		}
		results, err := db.ListQCResults(*runID)
		must(err)
		for _, r := range results {
			if *verdict != "" && !strings.EqualFold(string(r.Verdict), *verdict) {
				continue
			}
			fmt.Printf("pole=%s field=%s verdict=%s got=%q want=%q\n", r.Pole, r.Field, r.Verdict, r.Got, r.Want)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: polemr <command>")
	fmt.Println("commands:")
	fmt.Println("  run --job=... --template=... [--attachments=...] [--qc=...] [--rules=...] [--out=...]")
	fmt.Println("      [--reports-existing=...] [--reports-proposed=...]")
	fmt.Println("  qc:check --job=... --qc=... [--attachments=...] [--rules=...]")
	fmt.Println("  reports:scan --dir=... --pole=001")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  conflicts:list --runId=1")
	fmt.Println("  qc:results --runId=1 [--verdict=MISMATCH]")
}

func openOutput(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
