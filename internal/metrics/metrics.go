// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the catalog pipeline.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the storage abstraction pattern used elsewhere in the
//     project, allowing the rest of the codebase to depend only on this
//     interface while keeping concrete metric systems isolated in subpackages.
//
// The primary use case is instrumentation of the pipeline stages (parse,
// clean, report, store) without coupling the core logic to a specific
// metrics system such as Prometheus.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so concrete systems can be plugged in.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep is a convenience for the common pattern:
// measure latency + success/failure per pipeline step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("catalog_step_total", 1, lbls)
	backend.ObserveHistogram("catalog_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Typical kinds mirror the cleaning report fields, e.g.:
//   - "parsed"
//   - "parse_skipped"
//   - "duplicates"
//   - "imputed"
//   - "dropped"
//   - "cleaned"
//   - "stored"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("catalog_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordReport records the output size of one aggregation report.
func RecordReport(job, report string, rows int64) {
	if rows < 0 {
		return
	}
	backend.IncCounter("catalog_report_rows_total", float64(rows), Labels{
		"job":    job,
		"report": report,
	})
}
