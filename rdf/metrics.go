package rdf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sinkLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdf_sink_loads_total",
			Help: "Lazy sink loads, by sink and outcome (loaded, failed)",
		},
		[]string{"sink", "outcome"},
	)
	sinkLoadDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rdf_sink_load_duration_seconds",
			Help:    "Distribution of time spent loading and constructing lazy sinks",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms -> 8s
		},
		[]string{"sink"},
	)
	registryImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdf_registry_imports_total",
			Help: "Registry imports, by registry and outcome (hit, miss)",
		},
		[]string{"registry", "outcome"},
	)
)
