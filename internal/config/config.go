// Package config defines the JSON-serializable configuration model for the
// scan report transfer job. Field names in Go mirror the JSON structure used
// in job files under configs/*.json; decoding is plain encoding/json so a job
// file can be loaded and handed to the pipeline without glue code.
//
// Example (trimmed):
//
//	{
//	  "name":       "xebio-nightly",
//	  "source":     { "kind": "http", "base_url": "https://reports.example" },
//	  "output_dir": "out",
//	  "storage":    { "kind": "postgres", "db": { "dsn": "...", "table": "public.scan_report" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Job is the top-level object decoded from a job file.
type Job struct {
	// Name identifies the run in logs and metrics labels.
	Name string `json:"name"`

	// Source describes where report files come from.
	Source Source `json:"source"`

	// InputDir is the directory scanned for report files. For the "http"
	// source kind it is also where downloads land before processing.
	InputDir string `json:"input_dir"`

	// OutputDir receives the clean and invalid CSV files for each input.
	OutputDir string `json:"output_dir"`

	// PersistOutput controls whether clean/invalid CSVs are written at all.
	PersistOutput bool `json:"persist_output"`

	// Storage describes where clean records are loaded.
	Storage Storage `json:"storage"`

	// Metrics selects the metrics backend for the run.
	Metrics Metrics `json:"metrics"`
}

// Source identifies where report files come from.
type Source struct {
	// Kind selects the source implementation: "dir" or "http".
	Kind string `json:"kind"`

	// BaseURL is the vendor endpoint root for the "http" kind.
	BaseURL string `json:"base_url"`

	// MaxRetries bounds download retries for the "http" kind.
	MaxRetries int `json:"max_retries"`

	// RetryDelaySeconds is the initial backoff between download retries.
	RetryDelaySeconds int `json:"retry_delay_seconds"`

	// InsecureSkipVerify disables TLS verification for the "http" kind.
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// Storage selects the sink used to persist clean records.
type Storage struct {
	// Kind selects the storage implementation: "postgres" or "none".
	Kind string `json:"kind"`

	// DB configures the database sink for the "postgres" kind.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string for pgx/pgxpool.
	DSN string `json:"dsn"`

	// Table is the fully qualified destination table, e.g. "public.scan_report".
	Table string `json:"table"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prometheus" or "datadog". Empty means "none".
	Backend string `json:"backend"`

	// PushGatewayURL is required for the "prometheus" backend.
	PushGatewayURL string `json:"push_gateway_url"`

	// StatsdAddr is the dogstatsd address for the "datadog" backend,
	// e.g. "127.0.0.1:8125".
	StatsdAddr string `json:"statsd_addr"`
}

// Load reads and decodes a job file. Unknown fields are rejected so a typo in
// a job file fails the run instead of silently configuring nothing.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var job Job
	if err := dec.Decode(&job); err != nil {
		return Job{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return job, nil
}
