// Package metrics exposes Prometheus collectors for generation and
// placement.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the arborgen collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	TreesGenerated   *prometheus.CounterVec
	GenerationErrors *prometheus.CounterVec
	GenerateSeconds  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	MeshVertices     prometheus.Histogram
	ForestsComposed  prometheus.Counter
	TreesPlaced      prometheus.Counter
	DensityShortfall prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TreesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "trees_generated_total",
			Help:      "Trees grown, by species.",
		}, []string{"species"}),
		GenerationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "generation_errors_total",
			Help:      "Failed tree generations, by species.",
		}, []string{"species"}),
		GenerateSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arborgen",
			Name:      "generate_seconds",
			Help:      "Time to expand, interpret and tessellate one tree.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"species"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "mesh_cache_lookups_total",
			Help:      "Mesh cache lookups, by result.",
		}, []string{"result"}),
		MeshVertices: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arborgen",
			Name:      "mesh_vertices",
			Help:      "Vertex count of generated meshes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		ForestsComposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "forests_composed_total",
			Help:      "Forest layouts composed.",
		}),
		TreesPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "trees_placed_total",
			Help:      "Placements accepted across all layouts.",
		}),
		DensityShortfall: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arborgen",
			Name:      "density_shortfall_total",
			Help:      "Layouts that fell short of their requested count.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.TreesGenerated,
			m.GenerationErrors,
			m.GenerateSeconds,
			m.CacheLookups,
			m.MeshVertices,
			m.ForestsComposed,
			m.TreesPlaced,
			m.DensityShortfall,
		)
	}
	return m
}

// ObserveTree records one successful generation.
func (m *Metrics) ObserveTree(species string, vertices int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TreesGenerated.WithLabelValues(species).Inc()
	m.GenerateSeconds.WithLabelValues(species).Observe(elapsed.Seconds())
	m.MeshVertices.Observe(float64(vertices))
}

// ObserveError records one failed generation.
func (m *Metrics) ObserveError(species string) {
	if m == nil {
		return
	}
	m.GenerationErrors.WithLabelValues(species).Inc()
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveForest records one composed layout.
func (m *Metrics) ObserveForest(placed int, unmet bool) {
	if m == nil {
		return
	}
	m.ForestsComposed.Inc()
	m.TreesPlaced.Add(float64(placed))
	if unmet {
		m.DensityShortfall.Inc()
	}
}
