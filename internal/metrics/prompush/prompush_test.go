package prompush

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"scantransfer/internal/metrics"
)

// gather returns the registry's metric families keyed by name.
func gather(t *testing.T, b *Backend) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := b.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

/*
TestNewBackend_RequiresGateway verifies construction fails without a gateway
URL.
*/
func TestNewBackend_RequiresGateway(t *testing.T) {
	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("want error for empty gateway URL")
	}
}

/*
TestIncCounter verifies the name-to-collector mapping, including the ignored
unknown name.
*/
func TestIncCounter(t *testing.T) {
	b, err := NewBackend("xebio-nightly", "http://push:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("transfer_step_total", 1, metrics.Labels{"step": "validate", "status": "success"})
	b.IncCounter("transfer_records_total", 42, metrics.Labels{"kind": "clean"})
	b.IncCounter("transfer_files_total", 2, metrics.Labels{"status": "processed"})
	b.IncCounter("unrelated_total", 7, nil)

	fams := gather(t, b)
	if _, ok := fams["unrelated_total"]; ok {
		t.Error("unknown metric name was registered")
	}

	step := fams["transfer_step_total"].GetMetric()
	if len(step) != 1 || step[0].GetCounter().GetValue() != 1 {
		t.Errorf("step counter = %+v", step)
	}
	recs := fams["transfer_records_total"].GetMetric()
	if len(recs) != 1 || recs[0].GetCounter().GetValue() != 42 {
		t.Errorf("record counter = %+v", recs)
	}
	if recs[0].GetLabel()[0].GetValue() != "clean" {
		t.Errorf("record labels = %+v", recs[0].GetLabel())
	}
	files := fams["transfer_files_total"].GetMetric()
	if len(files) != 1 || files[0].GetCounter().GetValue() != 2 {
		t.Errorf("file counter = %+v", files)
	}
}

/*
TestObserveDuration verifies observations land in the summary with the right
labels.
*/
func TestObserveDuration(t *testing.T) {
	b, err := NewBackend("xebio-nightly", "http://push:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveDuration("transfer_step_duration_seconds", 0.25, metrics.Labels{"step": "load", "status": "success"})
	b.ObserveDuration("transfer_step_duration_seconds", 0.75, metrics.Labels{"step": "load", "status": "success"})
	b.ObserveDuration("something_else", 9, nil)

	fams := gather(t, b)
	sum := fams["transfer_step_duration_seconds"].GetMetric()
	if len(sum) != 1 {
		t.Fatalf("summary metrics = %+v", sum)
	}
	if got := sum[0].GetSummary().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d; want 2", got)
	}
	if got := sum[0].GetSummary().GetSampleSum(); got != 1.0 {
		t.Errorf("sample sum = %v; want 1.0", got)
	}
}

/*
TestFlush verifies Flush performs an HTTP push with the job name in the
grouping path.
*/
func TestFlush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("xebio-nightly", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("transfer_files_total", 1, metrics.Labels{"status": "processed"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(gotPath, "xebio-nightly") {
		t.Errorf("push path = %q; want job name in grouping", gotPath)
	}
}
