package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alizenart/closeted/internal/core/domain"
)

// PersistenceMetrics counts the failures the read and upload paths absorb.
type PersistenceMetrics struct {
	service string

	assemblyFailures  *prometheus.CounterVec
	foldersDropped    *prometheus.CounterVec
	enrichmentFailure prometheus.Counter
	uploadsTotal      *prometheus.CounterVec
	uploadAttempts    *prometheus.HistogramVec
}

func NewPersistenceMetrics(service string, registerer prometheus.Registerer) *PersistenceMetrics {
	assemblyFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "assembly_failures_total",
			Help:      "Listings that came back empty because enumeration failed.",
		},
		[]string{"service", "namespace"},
	)
	foldersDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "folders_dropped_total",
			Help:      "Record folders skipped during assembly by reason.",
		},
		[]string{"service", "namespace", "reason"},
	)
	enrichmentFailure := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "enrichment_failures_total",
			Help:      "Uploads stored with an empty clothing analysis.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "uploads_total",
			Help:      "Finished uploads by status.",
		},
		[]string{"service", "namespace", "status"},
	)
	uploadAttempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "persistence",
			Name:      "upload_attempts",
			Help:      "Attempts taken per finished upload.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"service", "namespace"},
	)

	registerer.MustRegister(assemblyFailures, foldersDropped, enrichmentFailure, uploadsTotal, uploadAttempts)

	return &PersistenceMetrics{
		service:           service,
		assemblyFailures:  assemblyFailures,
		foldersDropped:    foldersDropped,
		enrichmentFailure: enrichmentFailure,
		uploadsTotal:      uploadsTotal,
		uploadAttempts:    uploadAttempts,
	}
}

func (m *PersistenceMetrics) AssemblyFailed(ns domain.Namespace, _ error) {
	m.assemblyFailures.WithLabelValues(m.service, string(ns)).Inc()
}

func (m *PersistenceMetrics) FolderDropped(ns domain.Namespace, _, reason string, _ error) {
	m.foldersDropped.WithLabelValues(m.service, string(ns), reason).Inc()
}

func (m *PersistenceMetrics) EnrichmentFailed(error) {
	m.enrichmentFailure.Inc()
}

func (m *PersistenceMetrics) UploadFinished(ns domain.Namespace, attempts int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.uploadsTotal.WithLabelValues(m.service, string(ns), status).Inc()
	if attempts > 0 {
		m.uploadAttempts.WithLabelValues(m.service, string(ns)).Observe(float64(attempts))
	}
}
