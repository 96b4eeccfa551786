// SPDX-License-Identifier: MPL-2.0

// Package metrics records resolution outcomes as Prometheus series and
// writes them in the node-exporter textfile format for CI scraping.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

const (
	// OutcomeSuccess labels a target that produced a plan.
	OutcomeSuccess = "success"
	// OutcomeFailure labels a target that failed to resolve.
	OutcomeFailure = "failure"
)

// Recorder owns a private registry so that repeated runs in one process
// (watch mode, tests) never collide with the global default registry.
type Recorder struct {
	registry *prometheus.Registry

	resolutions *prometheus.CounterVec
	modules     *prometheus.GaugeVec
	edges       *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

// New creates a Recorder with every series registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modgraph_resolutions_total",
				Help: "Number of target resolutions by outcome.",
			},
			[]string{"target", "outcome"},
		),
		modules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "modgraph_modules_planned",
				Help: "Number of modules in the last plan of a target.",
			},
			[]string{"target"},
		),
		edges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "modgraph_static_edges",
				Help: "Number of static dependency edges in the last plan of a target.",
			},
			[]string{"target", "visibility"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modgraph_resolution_duration_seconds",
				Help:    "Time taken to resolve a target.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"target"},
		),
	}
	r.registry.MustRegister(r.resolutions, r.modules, r.edges, r.duration)
	return r
}

// Registry exposes the underlying registry as a Gatherer.
func (r *Recorder) Registry() prometheus.Gatherer { return r.registry }

// Observe records one resolution. It matches planner.Observer and is safe
// for concurrent use.
func (r *Recorder) Observe(t planner.Target, plan *planner.BuildPlan, err error, elapsed time.Duration) {
	r.duration.WithLabelValues(t.Name).Observe(elapsed.Seconds())
	if err != nil {
		r.resolutions.WithLabelValues(t.Name, OutcomeFailure).Inc()
		return
	}
	r.resolutions.WithLabelValues(t.Name, OutcomeSuccess).Inc()
	r.modules.WithLabelValues(t.Name).Set(float64(len(plan.Order)))

	var public, private int
	for _, e := range plan.Edges() {
		if e.Visibility == descriptor.Public {
			public++
		} else {
			private++
		}
	}
	r.edges.WithLabelValues(t.Name, descriptor.Public.String()).Set(float64(public))
	r.edges.WithLabelValues(t.Name, descriptor.Private.String()).Set(float64(private))
}

// Observer adapts the recorder for planner.WithObserver.
func (r *Recorder) Observer() planner.Observer { return r.Observe }

// WriteTextfile writes every series to path in the textfile collector
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
