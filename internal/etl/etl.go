// Package etl orchestrates the per-file pipeline: materialize a batch from a
// report file, run the transformer chain, validate, then persist the clean
// and invalid halves. Files are independent of each other, so a directory of
// reports fans out across a bounded worker group.
package etl

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scantransfer/internal/datasource/file"
	"scantransfer/internal/metrics"
	csvparser "scantransfer/internal/parser/csv"
	"scantransfer/internal/parser/xlsx"
	"scantransfer/internal/schema"
	"scantransfer/internal/storage"
	"scantransfer/internal/storage/csvout"
	"scantransfer/internal/transformer"
	"scantransfer/internal/transformer/builtin"
	"scantransfer/internal/validator"
	"scantransfer/pkg/records"
)

// Processor runs the scan report pipeline over files.
type Processor struct {
	// Job labels logs and metrics for this run.
	Job string

	// Schemas maps schema name to schema; files resolve to a schema by stem.
	Schemas map[string]schema.Schema

	// Types declares the target type for every schema column.
	Types schema.TypeSpec

	// Aliases feed header canonicalization in the parsers.
	Aliases map[string]string

	// Cleaners is the per-column cleaning registry.
	Cleaners map[string]builtin.CleanFunc

	// DeDupKeys collapse intra-batch duplicates after cleaning; empty
	// disables deduplication.
	DeDupKeys []string

	// OutputDir receives the clean and invalid CSVs when PersistOutput is set.
	OutputDir     string
	PersistOutput bool

	// Repo is the warehouse sink; nil skips loading.
	Repo storage.Repository

	// Workers bounds ProcessDir concurrency. Zero or negative means 4.
	Workers int
}

// NewProcessor returns a Processor wired with the scan report schemas,
// types, aliases and cleaners.
func NewProcessor(job string) *Processor {
	return &Processor{
		Job:       job,
		Schemas:   schema.Schemas,
		Types:     schema.ScanReportTypes,
		Aliases:   schema.Aliases,
		Cleaners:  builtin.ScanReportCleaners(),
		DeDupKeys: []string{"scan_date", "store_id", "employee_id", "safesize_code"},
	}
}

// FileResult summarizes one processed file.
type FileResult struct {
	Path    string
	Schema  string
	Parsed  int
	Skipped int
	Clean   int
	Invalid int
	Deduped int
	Loaded  int64
}

// LoadBatch materializes records from path, dispatching on the file
// extension. The skip count reports structurally broken rows.
func (p *Processor) LoadBatch(ctx context.Context, path string) ([]records.Record, int, error) {
	f, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvparser.NewParser(csvparser.Options{Aliases: p.Aliases}).Parse(f)
	case ".xlsx", ".xls":
		return xlsx.NewParser(xlsx.Options{Aliases: p.Aliases}).Parse(f)
	default:
		return nil, 0, fmt.Errorf("unsupported file extension for %s", path)
	}
}

// ProcessFile runs one report through the full pipeline. scanDate, when
// non-empty, fills rows that arrived without a scan_date; it must be
// YYYY-MM-DD. Validation findings are data, not errors: a file full of
// invalid rows still returns a nil error.
func (p *Processor) ProcessFile(ctx context.Context, path string, sch schema.Schema, scanDate string) (FileResult, error) {
	res := FileResult{Path: path, Schema: sch.Name}

	start := time.Now()
	batch, skipped, err := p.LoadBatch(ctx, path)
	metrics.RecordStep(p.Job, "parse", err, time.Since(start))
	if err != nil {
		return res, err
	}
	res.Parsed = len(batch)
	res.Skipped = skipped
	metrics.RecordRow(p.Job, "parsed", int64(len(batch)))
	metrics.RecordRow(p.Job, "skipped", int64(skipped))

	chain := transformer.Chain{builtin.Clean{Funcs: p.Cleaners}}
	if scanDate != "" {
		chain = append(chain, builtin.Default{Field: "scan_date", Value: scanDate})
	}
	batch = chain.Apply(batch)

	start = time.Now()
	v := &validator.Validator{Schema: sch, Types: p.Types}
	result, err := v.Validate(batch)
	metrics.RecordStep(p.Job, "validate", err, time.Since(start))
	if err != nil {
		return res, err
	}
	res.Clean = len(result.Clean)
	res.Invalid = len(result.Invalid)
	metrics.RecordRow(p.Job, "clean", int64(res.Clean))
	metrics.RecordRow(p.Job, "invalid", int64(res.Invalid))

	// Deduplication runs after the partition so diagnostics keep their
	// original row numbers; only the loaded half collapses.
	if len(p.DeDupKeys) > 0 {
		result.Clean = builtin.DeDup{Keys: p.DeDupKeys}.Apply(result.Clean)
		res.Deduped = res.Clean - len(result.Clean)
		metrics.RecordRow(p.Job, "deduped", int64(res.Deduped))
	}

	if p.PersistOutput {
		start = time.Now()
		err = p.persist(path, sch, result)
		metrics.RecordStep(p.Job, "persist", err, time.Since(start))
		if err != nil {
			return res, err
		}
	}

	if p.Repo != nil && len(result.Clean) > 0 {
		startDate, endDate, werr := dateWindow(result.Clean)
		if werr != nil {
			return res, werr
		}
		start = time.Now()
		n, lerr := p.Repo.Load(ctx, startDate, endDate, result.Clean)
		metrics.RecordStep(p.Job, "load", lerr, time.Since(start))
		if lerr != nil {
			return res, fmt.Errorf("load %s: %w", path, lerr)
		}
		res.Loaded = n
		metrics.RecordRow(p.Job, "loaded", n)
	}

	log.Printf("%s: schema=%s parsed=%d skipped=%d clean=%d invalid=%d deduped=%d loaded=%d",
		filepath.Base(path), sch.Name, res.Parsed, res.Skipped, res.Clean, res.Invalid, res.Deduped, res.Loaded)
	return res, nil
}

// ProcessDir validates every recognized report file in dir. Files whose name
// resolves to no schema are returned in skipped, not treated as errors; the
// vendor drops unrelated exports into the same directory. The first file
// error cancels the remaining work.
func (p *Processor) ProcessDir(ctx context.Context, dir, scanDate string) ([]FileResult, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var paths []string
	var skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := schema.ForFile(e.Name()); !ok {
			skipped = append(skipped, e.Name())
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			sch, _ := schema.ForFile(filepath.Base(path))
			res, err := p.ProcessFile(gctx, path, sch, scanDate)
			if err != nil {
				metrics.RecordFile(p.Job, "failed", 1)
				return err
			}
			metrics.RecordFile(p.Job, "processed", 1)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, skipped, err
	}
	return results, skipped, nil
}

// persist writes the clean and invalid CSVs next to each other in OutputDir.
func (p *Processor) persist(path string, sch schema.Schema, result validator.Result) error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	cleanPath := filepath.Join(p.OutputDir, stem+"_clean.csv")
	cf, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", cleanPath, err)
	}
	defer cf.Close()
	if err := csvout.WriteClean(cf, sch, p.Types, result.Clean); err != nil {
		return fmt.Errorf("write %s: %w", cleanPath, err)
	}

	invalidPath := filepath.Join(p.OutputDir, stem+"_invalid.csv")
	inf, err := os.Create(invalidPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", invalidPath, err)
	}
	defer inf.Close()
	if err := csvout.WriteInvalid(inf, sch, result.Invalid); err != nil {
		return fmt.Errorf("write %s: %w", invalidPath, err)
	}
	return nil
}

// dateWindow returns the min and max scan_date across clean records as
// YYYY-MM-DD, defining the replace window for the warehouse load.
func dateWindow(recs []records.Record) (string, string, error) {
	var min, max time.Time
	for _, rec := range recs {
		ts, ok := rec["scan_date"].(time.Time)
		if !ok {
			return "", "", fmt.Errorf("clean record missing typed scan_date")
		}
		if min.IsZero() || ts.Before(min) {
			min = ts
		}
		if ts.After(max) {
			max = ts
		}
	}
	return min.Format(validator.DateLayout), max.Format(validator.DateLayout), nil
}
