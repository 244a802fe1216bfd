// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the ledger's collectors.
type Metrics struct {
	registry *prometheus.Registry

	// Commits counts units of work by operation and outcome kind ("ok" on success).
	Commits *prometheus.CounterVec

	// CommitDuration observes the wall time of a unit of work including retries.
	CommitDuration *prometheus.HistogramVec

	// Retries counts transient failures that led to another attempt.
	Retries *prometheus.CounterVec

	// RPCs counts handled RPCs by procedure and Connect code.
	RPCs *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "commits_total",
			Help:      "Units of work by operation and outcome.",
		}, []string{"op", "outcome"}),
		CommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitledger",
			Name:      "commit_duration_seconds",
			Help:      "Duration of units of work, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "commit_retries_total",
			Help:      "Transient storage failures that were retried.",
		}, []string{"op"}),
		RPCs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "rpc_requests_total",
			Help:      "Handled RPCs by procedure and code.",
		}, []string{"procedure", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Commits,
		m.CommitDuration,
		m.Retries,
		m.RPCs,
	)
	return m
}

// ObserveCommit records one finished unit of work.
func (m *Metrics) ObserveCommit(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(op, outcome).Inc()
	m.CommitDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveRetry records a retried transient failure.
func (m *Metrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(op).Inc()
}

// ObserveRPC records one handled RPC.
func (m *Metrics) ObserveRPC(procedure, code string) {
	if m == nil {
		return
	}
	m.RPCs.WithLabelValues(procedure, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
