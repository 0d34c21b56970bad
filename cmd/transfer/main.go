package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scantransfer/internal/config"
	"scantransfer/internal/datasource"
	"scantransfer/internal/datasource/httpds"
	"scantransfer/internal/etl"
	"scantransfer/internal/metrics"
	"scantransfer/internal/metrics/datadog"
	"scantransfer/internal/metrics/prompush"
	"scantransfer/internal/report"
	"scantransfer/internal/schema"
	"scantransfer/internal/storage/postgres"
	"scantransfer/internal/validator"
)

// main is the entry point for the transfer binary. It loads the job config,
// optionally initializes a metrics backend, fetches or scans for report
// files, and runs each one through the pipeline.
func main() {
	var (
		cfgPath        string
		inputDir       string
		outputDir      string
		scanDate       string
		today          string
		dryRun         bool
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
	)

	flag.StringVar(&cfgPath, "config", "", "job config JSON path")
	flag.StringVar(&inputDir, "input-dir", "", "directory holding (or receiving) report files; overrides config")
	flag.StringVar(&outputDir, "output-dir", "", "directory for clean/invalid CSVs; overrides config")
	flag.StringVar(&scanDate, "scan-date", "", "YYYY-MM-DD fill for rows missing scan_date")
	flag.StringVar(&today, "today", "", "YYYY-MM-DD override for report window computation")
	flag.BoolVar(&dryRun, "dry-run", false, "validate and write outputs but skip the warehouse load")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend (prometheus, datadog, none); overrides config")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL; overrides config")
	flag.StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address; overrides config")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	job := config.Job{Name: "scantransfer", Source: config.Source{Kind: "dir"}, PersistOutput: true}
	if cfgPath != "" {
		var err error
		job, err = config.Load(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
	}
	if inputDir != "" {
		job.InputDir = inputDir
	}
	if outputDir != "" {
		job.OutputDir = outputDir
	}
	if metricsBackend != "" {
		job.Metrics.Backend = metricsBackend
	}
	if pushGatewayURL != "" {
		job.Metrics.PushGatewayURL = pushGatewayURL
	}
	if statsdAddr != "" {
		job.Metrics.StatsdAddr = statsdAddr
	}

	issues := config.ValidateJob(job)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.FirstError(issues); err != nil {
		fatalf("configuration is invalid")
	}
	if scanDate != "" {
		if _, err := time.Parse(validator.DateLayout, scanDate); err != nil {
			fatalf("-scan-date %q is not YYYY-MM-DD", scanDate)
		}
	}

	setupMetrics(job, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	p := etl.NewProcessor(job.Name)
	p.OutputDir = job.OutputDir
	p.PersistOutput = job.PersistOutput

	if job.Storage.Kind == "postgres" && !dryRun {
		repo, closeRepo, err := postgres.NewRepository(ctx, postgres.Config{
			DSN:        job.Storage.DB.DSN,
			Table:      job.Storage.DB.Table,
			Columns:    schema.ScanReportColumns,
			DateColumn: "scan_date",
		})
		if err != nil {
			fatalf("storage: %v", err)
		}
		defer closeRepo()
		p.Repo = repo
	}

	var results []etl.FileResult
	var skipped []string
	var err error
	switch job.Source.Kind {
	case "http":
		results, err = runHTTP(ctx, p, job, scanDate, today, *verbose)
	default:
		results, skipped, err = p.ProcessDir(ctx, job.InputDir, scanDate)
	}
	if err != nil {
		fatalf("%v", err)
	}

	printSummary(results, skipped)
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// runHTTP downloads the current daily and weekly reports, then processes
// each according to its window. The report's end date fills rows missing
// scan_date unless the caller overrode it.
func runHTTP(ctx context.Context, p *etl.Processor, job config.Job, scanDate, today string, verbose bool) ([]etl.FileResult, error) {
	now := time.Now()
	if today != "" {
		var err error
		now, err = time.ParseInLocation(validator.DateLayout, today, report.JST)
		if err != nil {
			return nil, fmt.Errorf("-today %q is not YYYY-MM-DD", today)
		}
	}

	client := httpds.NewClient(httpds.Config{
		MaxRetries:         job.Source.MaxRetries,
		InitialBackoff:     time.Duration(job.Source.RetryDelaySeconds) * time.Second,
		InsecureSkipVerify: job.Source.InsecureSkipVerify,
	})
	if err := os.MkdirAll(job.InputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	var results []etl.FileResult
	for _, spec := range report.BuildSpecs(now) {
		src := httpds.NewURLSource(client, job.Source.BaseURL, spec.RemotePath)
		if verbose {
			log.Printf("fetching %s report from %s", spec.Kind, src.URL())
		}

		local := filepath.Join(job.InputDir,
			strings.TrimSuffix(spec.ObjectKey, filepath.Ext(spec.ObjectKey))+filepath.Ext(spec.RemotePath))
		if err := download(ctx, src, local); err != nil {
			metrics.RecordFile(p.Job, "failed", 1)
			return results, fmt.Errorf("download %s report: %w", spec.Kind, err)
		}

		fill := scanDate
		if fill == "" {
			fill = spec.EndDate.Format(validator.DateLayout)
		}
		sch := p.Schemas[spec.Schema()]
		res, err := p.ProcessFile(ctx, local, sch, fill)
		if err != nil {
			metrics.RecordFile(p.Job, "failed", 1)
			return results, err
		}
		metrics.RecordFile(p.Job, "processed", 1)
		results = append(results, res)
	}
	return results, nil
}

// download streams one report to a local path.
func download(ctx context.Context, src datasource.Source, path string) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// setupMetrics installs the configured metrics backend; failures fall back
// to the no-op backend so a dead Pushgateway never blocks a load.
func setupMetrics(job config.Job, verbose bool) {
	switch job.Metrics.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(job.Name, job.Metrics.PushGatewayURL)
		if err != nil {
			log.Printf("metrics: init prometheus backend: %v; using nop", err)
			return
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: job.Metrics.StatsdAddr})
		if err != nil {
			log.Printf("metrics: init datadog backend: %v; using nop", err)
			return
		}
		metrics.SetBackend(b)
	default:
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", job.Metrics.Backend)
		}
	}
}

// printSummary writes the per-file and total counts to stdout.
func printSummary(results []etl.FileResult, skipped []string) {
	var parsed, clean, invalid int
	var loaded int64
	for _, r := range results {
		parsed += r.Parsed
		clean += r.Clean
		invalid += r.Invalid
		loaded += r.Loaded
		fmt.Printf("%s: parsed=%d clean=%d invalid=%d deduped=%d loaded=%d\n",
			filepath.Base(r.Path), r.Parsed, r.Clean, r.Invalid, r.Deduped, r.Loaded)
	}
	pct := 0.0
	if parsed > 0 {
		pct = float64(invalid) / float64(parsed) * 100
	}
	fmt.Printf("total: files=%d parsed=%d clean=%d invalid=%d (%.1f%%) loaded=%d\n",
		len(results), parsed, clean, invalid, pct, loaded)
	for _, name := range skipped {
		fmt.Printf("skipped: %s (no schema for file)\n", name)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
