// Public domain.

// Package metrics counts what a run read, kept, and wrote.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one run.
type Metrics struct {
	registry *prometheus.Registry

	sourcesTotal       *prometheus.CounterVec
	sourcesKeptTotal   *prometheus.CounterVec
	pointingsTotal     *prometheus.CounterVec
	astrometryFallback prometheus.Counter
	masterRows         *prometheus.GaugeVec
	pointingDuration   prometheus.Histogram
}

// New creates run metrics registered with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.sourcesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mosaiccat_sources_total",
		Help: "Sources read from pointing catalogs",
	}, []string{"catalog"})
	m.sourcesKeptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mosaiccat_sources_kept_total",
		Help: "Sources kept after neighbour filtering",
	}, []string{"catalog"})
	m.pointingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mosaiccat_pointings_total",
		Help: "Pointings processed, by outcome",
	}, []string{"status"}) // built, reused
	m.astrometryFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mosaiccat_astrometry_fallback_total",
		Help: "Pointings using the default astrometric error",
	})
	m.masterRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mosaiccat_master_rows",
		Help: "Rows in the merged master catalog",
	}, []string{"catalog"})
	m.pointingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mosaiccat_pointing_duration_seconds",
		Help:    "Time to build the catalogs of one pointing",
		Buckets: prometheus.ExponentialBuckets(.01, 4, 8),
	})
	for _, c := range []prometheus.Collector{
		m.sourcesTotal,
		m.sourcesKeptTotal,
		m.pointingsTotal,
		m.astrometryFallback,
		m.masterRows,
		m.pointingDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewDiscard returns metrics on a private registry, for runs that do not
// report them.
func NewDiscard() *Metrics {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err) // fresh registry cannot collide
	}
	return m
}

// Registry returns the registry m is registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordPointing records one pointing's catalog of the named kind.
func (m *Metrics) RecordPointing(catalog string, read, kept int) {
	m.sourcesTotal.WithLabelValues(catalog).Add(float64(read))
	m.sourcesKeptTotal.WithLabelValues(catalog).Add(float64(kept))
}

// RecordBuilt records a pointing built from its catalog and how long it took.
func (m *Metrics) RecordBuilt(seconds float64) {
	m.pointingsTotal.WithLabelValues("built").Inc()
	m.pointingDuration.Observe(seconds)
}

// RecordReused records a pointing whose outputs already existed.
func (m *Metrics) RecordReused() {
	m.pointingsTotal.WithLabelValues("reused").Inc()
}

// RecordFallback records use of the default astrometric error.
func (m *Metrics) RecordFallback() {
	m.astrometryFallback.Inc()
}

// SetMasterRows records the size of a merged master catalog.
func (m *Metrics) SetMasterRows(catalog string, n int) {
	m.masterRows.WithLabelValues(catalog).Set(float64(n))
}

// WriteTextfile writes the current values in Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
