// Package metrics defines all custom Prometheus metrics for the catalog API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Collectors register with the default Prometheus registry on package init,
// which is the registry served by /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductOperationsTotal counts product lifecycle operations.
// Labels:
//   - op: "create", "update" or "delete"
//   - result: "ok" or "error"
var ProductOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_operations_total",
		Help:      "Total number of product lifecycle operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// SearchResultsCount observes how many products a search returned.
var SearchResultsCount = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_results_count",
		Help:      "Number of products returned per text search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	},
)

// ── Image metrics ─────────────────────────────────────────────────────────────

// ImagesStoredTotal counts image files accepted by the upload ingress.
var ImagesStoredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_stored_total",
		Help:      "Total number of uploaded image files persisted.",
	},
)

// ImageDeletionsTotal counts image file deletions.
// Labels:
//   - reason: "compensate" (orphaned by a failed write), "release" (replaced or
//     product deleted), or "reap" (found by the orphan reaper)
//   - result: "ok" or "error"
var ImageDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_deletions_total",
		Help:      "Total number of image file deletions, by reason and result.",
	},
	[]string{"reason", "result"},
)

// ReaperRunDuration measures one orphan reaper pass.
var ReaperRunDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reaper_run_duration_seconds",
		Help:      "Duration of a single orphan image reaper run.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup and login outcomes.
// Labels:
//   - op: "signup" or "login"
//   - result: "ok", "rejected", "throttled" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of signup and login attempts, by outcome.",
	},
	[]string{"op", "result"},
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
