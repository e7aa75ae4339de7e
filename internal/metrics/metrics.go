// Package metrics defines Prometheus metrics for stockwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stockwatch"

// Run metrics.
var (
	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of monitoring runs started.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of full monitoring runs in seconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68m
	})

	DiscoveredHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "discovered_handles",
		Help:      "Product handles found by the last discovery pass.",
	})
)

// Fetch metrics.
var (
	ProductsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_fetched_total",
		Help:      "Total number of products successfully extracted.",
	})

	FetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_failures_total",
		Help:      "Total number of handles abandoned after all attempts.",
	})

	FetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_retries_total",
		Help:      "Total number of extraction retry attempts.",
	})
)

// Diff and snapshot metrics.
var (
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total change events produced, by kind.",
	}, []string{"kind"})

	SnapshotVariants = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_variants",
		Help:      "Variant records in the last persisted snapshot.",
	})
)

// Notification metrics.
var (
	NotificationBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_batches_total",
		Help:      "Total webhook batches posted.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total notification send failures.",
	})
)
