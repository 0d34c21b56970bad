package etl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scantransfer/internal/schema"
	"scantransfer/pkg/records"
)

const dailyCSV = "Scan Date,SSPC,Store ID,Employee ID,Shoe Sold,Shoe exist in database,Shoes marked as sold in RWA,Insole Sold,Shoe functionally,Size Recommendation,SafeSize Code,Scanner ID,Created At\n" +
	"2024-06-28,PC01,0123,1234567,2,1,0,1,1,0,SS-001,SCN-9,2024-06-28 10:15:30\n" +
	"2024-06-28,PC01,0123,1234567,2,1,0,1,1,0,SS-001,SCN-9,2024-06-28 10:15:30\n" +
	"2024-06-28,PC02,,12345,abc,1,0,1,1,0,SS-002,SCN-9,2024-06-28 10:16:00\n"

// fakeRepo captures the load call instead of talking to a database.
type fakeRepo struct {
	startDate, endDate string
	recs               []records.Record
	calls              int
}

func (f *fakeRepo) Load(ctx context.Context, startDate, endDate string, recs []records.Record) (int64, error) {
	f.calls++
	f.startDate, f.endDate = startDate, endDate
	f.recs = recs
	return int64(len(recs)), nil
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

/*
TestProcessFile runs one report end to end: parse, clean, dedupe, validate,
persist and load. The fixture holds a good row, its exact duplicate, and a
row with a missing store and a short employee id.
*/
func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan_report_daily.csv", dailyCSV)

	repo := &fakeRepo{}
	p := NewProcessor("test-run")
	p.OutputDir = filepath.Join(dir, "out")
	p.PersistOutput = true
	p.Repo = repo

	sch, _ := schema.ForFile(path)
	res, err := p.ProcessFile(context.Background(), path, sch, "")
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if res.Parsed != 3 || res.Skipped != 0 {
		t.Errorf("parsed = %d, skipped = %d; want 3, 0", res.Parsed, res.Skipped)
	}
	if res.Clean != 2 || res.Invalid != 1 {
		t.Errorf("clean = %d, invalid = %d; want 2, 1", res.Clean, res.Invalid)
	}
	if res.Deduped != 1 {
		t.Errorf("deduped = %d; want 1", res.Deduped)
	}
	if res.Loaded != 1 || repo.calls != 1 {
		t.Errorf("loaded = %d, repo calls = %d; want 1, 1", res.Loaded, repo.calls)
	}
	if repo.startDate != "2024-06-28" || repo.endDate != "2024-06-28" {
		t.Errorf("window = %s..%s; want 2024-06-28..2024-06-28", repo.startDate, repo.endDate)
	}
	if got := repo.recs[0]["store_id"]; got != "123" {
		t.Errorf("loaded store_id = %#v; want cleaned \"123\"", got)
	}

	cleanBody, err := os.ReadFile(filepath.Join(p.OutputDir, "scan_report_daily_clean.csv"))
	if err != nil {
		t.Fatalf("read clean output: %v", err)
	}
	wantClean := "scan_date,point_card_id,store_id,employee_id,shoe_sold,shoe_exist_in_db,shoes_marked_sold_rwa,insole_sold,shoe_functional,size_recommendation,safesize_code,scanner_id,created_at\n" +
		"2024-06-28,PC01,123,1234567,2,1,0,1,1,0,SS-001,SCN-9,2024-06-28T10:15:30Z\n"
	if string(cleanBody) != wantClean {
		t.Errorf("clean output =\n%s\nwant\n%s", cleanBody, wantClean)
	}

	invalidBody, err := os.ReadFile(filepath.Join(p.OutputDir, "scan_report_daily_invalid.csv"))
	if err != nil {
		t.Fatalf("read invalid output: %v", err)
	}
	if !strings.Contains(string(invalidBody), "NOT NULL violation: store_id; Invalid employee_id (must be 7 digits); Invalid shoe_sold (must be integer)") {
		t.Errorf("invalid output missing diagnostic:\n%s", invalidBody)
	}
	if !strings.Contains(string(invalidBody), ",4\n") {
		t.Errorf("invalid output missing row number 4:\n%s", invalidBody)
	}
}

/*
TestProcessFile_ScanDateDefault verifies a caller-supplied scan date fills
rows that arrived without one.
*/
func TestProcessFile_ScanDateDefault(t *testing.T) {
	dir := t.TempDir()
	body := "SSPC,Store ID,Employee ID,Shoe Sold,Shoe exist in database,Shoes marked as sold in RWA,Insole Sold,Shoe functionally,Size Recommendation,SafeSize Code,Scanner ID,Created At,Unnamed: 11\n" +
		"PC01,123,1234567,1,1,0,0,1,0,SS-001,SCN-9,2024-06-28 10:15:30,\n"
	path := writeFile(t, dir, "scan_report_daily.csv", body)

	repo := &fakeRepo{}
	p := NewProcessor("test-run")
	p.Repo = repo

	sch, _ := schema.ForFile(path)
	res, err := p.ProcessFile(context.Background(), path, sch, "2024-06-27")
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if res.Clean != 1 || res.Invalid != 0 {
		t.Fatalf("clean = %d, invalid = %d; want 1, 0", res.Clean, res.Invalid)
	}
	if repo.startDate != "2024-06-27" {
		t.Errorf("window start = %s; want 2024-06-27", repo.startDate)
	}
}

/*
TestProcessDir verifies schema resolution by filename, the skipped-file
report, and that results come back in path order.
*/
func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scan_report_daily.csv", dailyCSV)
	writeFile(t, dir, "scan_report_weekly_20240623.csv", dailyCSV)
	writeFile(t, dir, "notes.txt", "unrelated vendor export\n")

	p := NewProcessor("test-run")
	results, skipped, err := p.ProcessDir(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d; want 2", len(results))
	}
	if results[0].Schema != "scan_report_daily" || results[1].Schema != "scan_report_weekly" {
		t.Errorf("schemas = %s, %s", results[0].Schema, results[1].Schema)
	}
	if len(skipped) != 1 || skipped[0] != "notes.txt" {
		t.Errorf("skipped = %v; want [notes.txt]", skipped)
	}
}

/*
TestLoadBatch_UnsupportedExtension verifies the configuration error for a
file format the pipeline has no parser for.
*/
func TestLoadBatch_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan_report_daily.json", "{}")

	p := NewProcessor("test-run")
	_, _, err := p.LoadBatch(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "unsupported file extension") {
		t.Fatalf("err = %v; want unsupported file extension", err)
	}
}
