// Package metrics exports migration metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/adshift/adshift/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements domain.MigrationMetrics on its own registry.
type Prometheus struct {
	registry   *prometheus.Registry
	migrations *prometheus.CounterVec
	retries    *prometheus.CounterVec
	issues     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func New() *Prometheus {
	migrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adshift_migrations_total",
		Help: "Migrations finished, by source, target and outcome.",
	}, []string{"source", "target", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adshift_fetch_retries_total",
		Help: "Source fetch attempts retried after a transient failure.",
	}, []string{"platform"})
	issues := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adshift_validation_issues_total",
		Help: "Validation issues found in canonical records, by target and kind.",
	}, []string{"target", "kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adshift_migration_duration_seconds",
		Help:    "Wall time of a migration from request to report.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"target"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(migrations, retries, issues, duration)

	return &Prometheus{
		registry:   reg,
		migrations: migrations,
		retries:    retries,
		issues:     issues,
		duration:   duration,
	}
}

func (p *Prometheus) ObserveMigration(r *domain.MigrationReport) {
	p.migrations.WithLabelValues(r.SourcePlatform, r.TargetPlatform, string(r.Outcome)).Inc()
	p.duration.WithLabelValues(r.TargetPlatform).Observe(r.Duration().Seconds())
	if r.Validation != nil {
		for _, issue := range r.Validation.Issues {
			p.issues.WithLabelValues(r.TargetPlatform, string(issue.Kind)).Inc()
		}
	}
}

func (p *Prometheus) ObserveFetchRetry(platform string) {
	p.retries.WithLabelValues(platform).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
