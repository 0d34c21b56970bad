package config

import (
	"strings"
	"testing"
)

func validJob() Job {
	return Job{
		Name:          "xebio-nightly",
		Source:        Source{Kind: "dir"},
		InputDir:      "in",
		OutputDir:     "out",
		PersistOutput: true,
		Storage:       Storage{Kind: "postgres", DB: DBConfig{DSN: "postgresql://localhost/x", Table: "public.scan_report"}},
		Metrics:       Metrics{Backend: "none"},
	}
}

func paths(issues []Issue, sev IssueSeverity) []string {
	var out []string
	for _, iss := range issues {
		if iss.Severity == sev {
			out = append(out, iss.Path)
		}
	}
	return out
}

func hasPath(issues []Issue, sev IssueSeverity, path string) bool {
	for _, p := range paths(issues, sev) {
		if p == path {
			return true
		}
	}
	return false
}

/*
TestValidateJob_Valid verifies a complete job yields no findings.
*/
func TestValidateJob_Valid(t *testing.T) {
	if issues := ValidateJob(validJob()); len(issues) != 0 {
		t.Fatalf("issues = %+v; want none", issues)
	}
}

/*
TestValidateJob_Errors walks one broken field at a time and checks the finding
lands at the right path.
*/
func TestValidateJob_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Job)
		wantPath string
	}{
		{"empty name", func(j *Job) { j.Name = " " }, "name"},
		{"empty source kind", func(j *Job) { j.Source.Kind = "" }, "source.kind"},
		{"unknown source kind", func(j *Job) { j.Source.Kind = "ftp" }, "source.kind"},
		{"dir without input_dir", func(j *Job) { j.InputDir = "" }, "input_dir"},
		{"http without base_url", func(j *Job) { j.Source = Source{Kind: "http"} }, "source.base_url"},
		{"negative retries", func(j *Job) {
			j.Source = Source{Kind: "http", BaseURL: "https://x", MaxRetries: -1}
		}, "source.max_retries"},
		{"persist without output_dir", func(j *Job) { j.OutputDir = "" }, "output_dir"},
		{"postgres without dsn", func(j *Job) { j.Storage.DB.DSN = "" }, "storage.db.dsn"},
		{"postgres without table", func(j *Job) { j.Storage.DB.Table = "" }, "storage.db.table"},
		{"unknown storage kind", func(j *Job) { j.Storage.Kind = "s3" }, "storage.kind"},
		{"prometheus without gateway", func(j *Job) { j.Metrics = Metrics{Backend: "prometheus"} }, "metrics.push_gateway_url"},
		{"datadog without statsd", func(j *Job) { j.Metrics = Metrics{Backend: "datadog"} }, "metrics.statsd_addr"},
		{"unknown metrics backend", func(j *Job) { j.Metrics.Backend = "graphite" }, "metrics.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob()
			tt.mutate(&job)
			issues := ValidateJob(job)
			if !hasPath(issues, SeverityError, tt.wantPath) {
				t.Fatalf("issues = %+v; want error at %s", issues, tt.wantPath)
			}
		})
	}
}

/*
TestValidateJob_Warnings verifies non-blocking findings.
*/
func TestValidateJob_Warnings(t *testing.T) {
	job := validJob()
	job.Source.BaseURL = "https://ignored.example"
	issues := ValidateJob(job)
	if !hasPath(issues, SeverityWarning, "source.base_url") {
		t.Errorf("issues = %+v; want warning at source.base_url", issues)
	}
	if err := FirstError(issues); err != nil {
		t.Errorf("FirstError = %v; want nil for warnings only", err)
	}

	job = validJob()
	job.Source = Source{Kind: "http", BaseURL: "https://x", InsecureSkipVerify: true}
	if !hasPath(ValidateJob(job), SeverityWarning, "source.insecure_skip_verify") {
		t.Error("want warning for insecure_skip_verify")
	}
}

/*
TestIssue_Error pins the single-line rendering used when an Issue is returned
as an error.
*/
func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "storage.db.dsn", Message: "postgres storage requires a non-empty dsn"}
	if got := iss.Error(); !strings.Contains(got, "error at storage.db.dsn") {
		t.Errorf("Error() = %q", got)
	}
}
