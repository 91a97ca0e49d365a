package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navdoc",
		Name:      "site_loads_total",
		Help:      "Site reloads by outcome.",
	}, []string{"outcome"})

	metricLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "navdoc",
		Name:      "site_load_duration_seconds",
		Help:      "Time spent loading a site.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	metricSiteNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navdoc",
		Name:      "site_nodes",
		Help:      "Navigation nodes in the current site.",
	})

	metricSiteSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navdoc",
		Name:      "site_symbols",
		Help:      "Symbol rows in the current site.",
	})

	metricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "navdoc",
		Name:      "reload_queue_depth",
		Help:      "Reload jobs waiting for a worker.",
	})
)
