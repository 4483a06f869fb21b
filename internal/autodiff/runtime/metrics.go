package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the server's prometheus collectors.
type Metrics struct {
	StepsRegistered  prometheus.Counter
	StepsExecuted    prometheus.Counter
	BackwardPasses   prometheus.Counter
	Recomputations   prometheus.Counter
	NodesFreed       prometheus.Counter
	GraphsFreed      prometheus.Counter
	LiveSteps        prometheus.Gauge
	Graphs           prometheus.Gauge
	BackwardDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StepsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_steps_registered_total",
			Help: "Backward steps registered by tracked operations",
		}),
		StepsExecuted: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_steps_executed_total",
			Help: "Backward steps executed",
		}),
		BackwardPasses: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_backward_total",
			Help: "Completed backward passes",
		}),
		Recomputations: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_recomputations_total",
			Help: "Forward values recomputed by retro-forwards",
		}),
		NodesFreed: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_nodes_freed_total",
			Help: "Unreachable nodes reclaimed by orphan sweeps",
		}),
		GraphsFreed: f.NewCounter(prometheus.CounterOpts{
			Name: "born_autodiff_graphs_freed_total",
			Help: "Orphan graphs reclaimed by orphan sweeps",
		}),
		LiveSteps: f.NewGauge(prometheus.GaugeOpts{
			Name: "born_autodiff_live_steps",
			Help: "Registered steps not yet executed or freed",
		}),
		Graphs: f.NewGauge(prometheus.GaugeOpts{
			Name: "born_autodiff_graphs",
			Help: "Connected graphs tracked by the memory manager",
		}),
		BackwardDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "born_autodiff_backward_duration_seconds",
			Help:    "Wall time of backward passes",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
}
