// Package metrics records job outcomes as Prometheus metrics. The CLI has no
// listener, so metrics are written to a textfile that a node exporter
// textfile collector can pick up.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fbz-tec/codexport/core/job"
	"github.com/fbz-tec/codexport/core/reconcile"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codexport"

// Recorder owns a private registry with the job metrics.
type Recorder struct {
	registry *prometheus.Registry

	jobs         *prometheus.CounterVec
	units        *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	archiveBytes *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
	identifiers  *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Jobs run, by command and status.",
		}, []string{"command", "status"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Chunks or QR rows processed, by outcome.",
		}, []string{"command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time spent encoding and archiving.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"command"}),
		archiveBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_bytes",
			Help:      "Size of the last archive written.",
		}, []string{"command"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful job.",
		}, []string{"command"}),
		identifiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_identifiers_total",
			Help:      "Reconciled identifiers, by status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.jobs, r.units, r.duration, r.archiveBytes, r.lastSuccess, r.identifiers)
	return r
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveJob records a finished export, batch or QR job. res may be nil when
// err is set.
func (r *Recorder) ObserveJob(command string, res *job.Result, err error) {
	if r == nil {
		return
	}
	if err != nil || res == nil {
		r.jobs.WithLabelValues(command, "failed").Inc()
		return
	}
	status := "ok"
	if res.Counts.Error > 0 {
		status = "partial"
	}
	r.jobs.WithLabelValues(command, status).Inc()
	r.units.WithLabelValues(command, "success").Add(float64(res.Counts.Success))
	r.units.WithLabelValues(command, "skipped").Add(float64(res.Counts.Skipped))
	r.units.WithLabelValues(command, "error").Add(float64(res.Counts.Error))
	r.duration.WithLabelValues(command).Observe(res.Elapsed.Seconds())
	r.archiveBytes.WithLabelValues(command).Set(float64(len(res.Archive)))
	r.lastSuccess.WithLabelValues(command).Set(float64(time.Now().Unix()))
}

// ObserveReconcile records the outcome of a reconcile run.
func (r *Recorder) ObserveReconcile(s reconcile.Summary, err error) {
	if r == nil {
		return
	}
	r.identifiers.WithLabelValues("found").Add(float64(s.Found))
	r.identifiers.WithLabelValues("not_found").Add(float64(s.NotFound - s.Empty))
	r.identifiers.WithLabelValues("empty").Add(float64(s.Empty))

	var lookupErr *reconcile.LookupError
	switch {
	case errors.As(err, &lookupErr):
		r.jobs.WithLabelValues("reconcile", "partial").Inc()
	case err != nil:
		r.jobs.WithLabelValues("reconcile", "failed").Inc()
	default:
		r.jobs.WithLabelValues("reconcile", "ok").Inc()
		r.lastSuccess.WithLabelValues("reconcile").Set(float64(time.Now().Unix()))
	}
}

// WriteFile writes every metric in the text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics: %w", err)
	}
	return nil
}
