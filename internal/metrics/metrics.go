// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors for graph construction and
// queries. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChunksProcessed *prometheus.CounterVec // by outcome
	KmersTotal      *prometheus.CounterVec // by kind: emitted, skipped, promoted
	ChunkDuration   prometheus.Histogram
	MergeDuration   prometheus.Histogram
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
	Queries         *prometheus.CounterVec // by route, status
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kgraph",
			Name:      "chunks_processed_total",
			Help:      "Chunks processed, by outcome.",
		}, []string{"outcome"}),
		KmersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kgraph",
			Name:      "kmers_total",
			Help:      "K-mer windows seen by the builders, by kind.",
		}, []string{"kind"}),
		ChunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kgraph",
			Name:      "chunk_duration_seconds",
			Help:      "Time to build one chunk's partial graph.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kgraph",
			Name:      "merge_duration_seconds",
			Help:      "Time to reduce partial graphs into the final graph.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kgraph",
			Name:      "graph_nodes",
			Help:      "Nodes in the most recent final graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kgraph",
			Name:      "graph_edges",
			Help:      "Edges in the most recent final graph.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kgraph",
			Name:      "queries_total",
			Help:      "HTTP queries served, by route and status.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.ChunksProcessed, m.KmersTotal, m.ChunkDuration,
		m.MergeDuration, m.GraphNodes, m.GraphEdges, m.Queries)
	return m
}

func (m *Metrics) ChunkDone(d time.Duration, emitted, skipped, promoted int) {
	if m == nil {
		return
	}
	m.ChunksProcessed.WithLabelValues("ok").Inc()
	m.ChunkDuration.Observe(d.Seconds())
	m.KmersTotal.WithLabelValues("emitted").Add(float64(emitted))
	m.KmersTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.KmersTotal.WithLabelValues("promoted").Add(float64(promoted))
}

func (m *Metrics) ChunkFailed() {
	if m == nil {
		return
	}
	m.ChunksProcessed.WithLabelValues("failed").Inc()
}

func (m *Metrics) Merged(d time.Duration, nodes, edges int) {
	if m == nil {
		return
	}
	m.MergeDuration.Observe(d.Seconds())
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

func (m *Metrics) Query(route, status string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(route, status).Inc()
}
