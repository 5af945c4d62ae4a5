// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package metrics exposes the ingestion counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ingest"

// Outcome labels.
const (
	OutcomeAccepted  = "accepted"
	OutcomeMalformed = "malformed"
	OutcomeConflict  = "conflict"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Metrics holds the ingestion counters. A nil *Metrics discards every observation.
type Metrics struct {
	registry *prometheus.Registry

	deliveries   prometheus.Counter
	instructions *prometheus.CounterVec
	tables       *prometheus.CounterVec
	rebuilds     *prometheus.CounterVec
	rows         prometheus.Counter
	documents    prometheus.Counter
}

// New returns Metrics registered on a dedicated registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Number of queue deliveries processed.",
		}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Number of queue instructions grouped, by outcome.",
		}, []string{"outcome"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_total",
			Help:      "Number of table batches dispatched, by outcome.",
		}, []string{"outcome"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Number of index rebuilds, by outcome.",
		}, []string{"outcome"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Number of rows read from the relational source.",
		}),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Number of documents accepted by the index writer.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.deliveries,
		m.instructions,
		m.tables,
		m.rebuilds,
		m.rows,
		m.documents,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) DeliveryProcessed() {
	if m == nil {
		return
	}
	m.deliveries.Inc()
}

func (m *Metrics) Instruction(outcome string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Table(outcome string) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Rebuild(outcome string) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RowsExtracted(count int) {
	if m == nil {
		return
	}
	m.rows.Add(float64(count))
}

func (m *Metrics) DocumentsWritten(count int) {
	if m == nil {
		return
	}
	m.documents.Add(float64(count))
}
