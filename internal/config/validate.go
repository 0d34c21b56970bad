package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Job. Path is a dotted
// path into the config, e.g. "storage.db.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error where convenient.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob statically checks a decoded Job and returns every finding; it
// never mutates the job. Callers decide whether warnings are fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "name",
			Message:  "name must not be empty; it labels logs and metrics for the run",
		})
	}
	issues = append(issues, validateSource(j.Source, j.InputDir)...)
	if strings.TrimSpace(j.OutputDir) == "" && j.PersistOutput {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_dir",
			Message:  "persist_output requires a non-empty output_dir",
		})
	}
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateMetrics(j.Metrics)...)

	return issues
}

func validateSource(s Source, inputDir string) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  `source.kind must be "dir" or "http"`,
		})
		return issues
	}

	switch kind {
	case "dir":
		if strings.TrimSpace(inputDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "input_dir",
				Message:  "dir source requires a non-empty input_dir",
			})
		}
		if s.BaseURL != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.base_url",
				Message:  "base_url is ignored for the dir source",
			})
		}
	case "http":
		if strings.TrimSpace(s.BaseURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.base_url",
				Message:  "http source requires a non-empty base_url",
			})
		}
		if strings.TrimSpace(inputDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "input_dir",
				Message:  "http source requires input_dir to land downloads in",
			})
		}
		if s.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.max_retries",
				Message:  "max_retries must not be negative",
			})
		}
		if s.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.insecure_skip_verify",
				Message:  "TLS verification is disabled for report downloads",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "", "none":
		// No sink configured; output CSVs may still be written.
	case "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  "postgres storage requires a non-empty dsn",
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table",
				Message:  "postgres storage requires a non-empty table",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", s.Kind),
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch strings.TrimSpace(m.Backend) {
	case "", "none":
	case "prometheus":
		if strings.TrimSpace(m.PushGatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.push_gateway_url",
				Message:  "prometheus backend requires a non-empty push_gateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires a non-empty statsd_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}

	return issues
}

// FirstError returns the first error-severity issue, or nil when the job only
// carries warnings.
func FirstError(issues []Issue) error {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return iss
		}
	}
	return nil
}
