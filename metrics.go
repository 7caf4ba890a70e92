package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "shorcirq"
)

var (
	// Construction metrics
	circuitsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "builder",
			Name:      "circuits_built_total",
			Help:      "Total number of order-finding programs requested",
		},
		[]string{"source"}, // source: "built", "cache"
	)

	circuitGates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "builder",
			Name:      "circuit_gates",
			Help:      "Number of gates in each built program",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
	)

	circuitDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "builder",
			Name:      "circuit_depth",
			Help:      "Layered depth of each built program",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
	)

	// Simulation metrics
	shotsSimulatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulator",
			Name:      "shots_total",
			Help:      "Total number of shots simulated",
		},
	)

	measurementBranchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulator",
			Name:      "branches_total",
			Help:      "Total number of distinct measurement paths simulated",
		},
	)

	simulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulator",
			Name:      "run_duration_seconds",
			Help:      "Time taken to simulate all shots of a program",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Factoring metrics
	factorAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "factor",
			Name:      "attempts_total",
			Help:      "Total number of factoring trials",
		},
		[]string{"result"}, // result: "shortcut", "success", "failure"
	)
)
