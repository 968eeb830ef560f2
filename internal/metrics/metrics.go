// Package metrics counts install and self-update outcomes. Counters can be
// dumped in the Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is nil-safe: a nil *Recorder records nothing.
type Recorder struct {
	reg       *prometheus.Registry
	files     *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	installs  *prometheus.CounterVec
	updates   *prometheus.CounterVec
	applyErrs *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "files_fetched_total",
			Help:      "Files fetched by the install pipeline, by category and result.",
		}, []string{"category", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "fetched_bytes_total",
			Help:      "Bytes received by the install pipeline, by category.",
		}, []string{"category"}),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "installs_total",
			Help:      "Install operations by outcome.",
		}, []string{"outcome"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "self_update_checks_total",
			Help:      "Self-update checks by reason.",
		}, []string{"reason"}),
		applyErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "apply_failures_total",
			Help:      "Per-file apply failures by category.",
		}, []string{"category"}),
	}
	r.reg.MustRegister(r.files, r.bytes, r.installs, r.updates, r.applyErrs)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) FileFetched(category string, size int64) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(category, "ok").Inc()
	r.bytes.WithLabelValues(category).Add(float64(size))
}

func (r *Recorder) FileFailed(category string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(category, "failed").Inc()
}

func (r *Recorder) Install(outcome string) {
	if r == nil {
		return
	}
	r.installs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) UpdateCheck(reason string) {
	if r == nil {
		return
	}
	r.updates.WithLabelValues(reason).Inc()
}

func (r *Recorder) ApplyFailure(category string) {
	if r == nil {
		return
	}
	r.applyErrs.WithLabelValues(category).Inc()
}

// WriteFile writes all counters to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
