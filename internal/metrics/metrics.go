// Package metrics provides Prometheus metrics for truthledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesTotal counts processed URLs by fetch status.
	ArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "truthledger",
			Name:      "articles_total",
			Help:      "Total number of processed article URLs",
		},
		[]string{"status"},
	)

	// FetchDuration measures single page fetch duration.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "truthledger",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// ClaimsExtracted counts claims extracted from article text.
	ClaimsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "truthledger",
			Name:      "claims_extracted_total",
			Help:      "Total number of claims extracted",
		},
	)

	// ClaimsSaved counts claims written to the store.
	ClaimsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "truthledger",
			Name:      "claims_saved_total",
			Help:      "Total number of claims inserted into the store",
		},
	)

	// LabelsTotal counts assigned labels by kind (truth, bias) and value.
	LabelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "truthledger",
			Name:      "labels_total",
			Help:      "Total number of truth and bias labels assigned",
		},
		[]string{"kind", "label"},
	)

	// StoreWarnings counts rows skipped because of database errors.
	StoreWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "truthledger",
			Name:      "store_warnings_total",
			Help:      "Total number of claim rows skipped due to database errors",
		},
	)

	// AnalyzeDuration measures whole batch analysis duration.
	AnalyzeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "truthledger",
			Name:      "analyze_duration_seconds",
			Help:      "Duration of analyze batches in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// RecordFetch records one fetch outcome. source is "network" or "cache".
func RecordFetch(source string, duration float64) {
	FetchDuration.WithLabelValues(source).Observe(duration)
}

// RecordArticle records the final status of one URL and its claim count.
func RecordArticle(status string, claims int) {
	ArticlesTotal.WithLabelValues(status).Inc()
	ClaimsExtracted.Add(float64(claims))
}

// RecordLabels records the labels given to one claim.
func RecordLabels(truth, bias string) {
	LabelsTotal.WithLabelValues("truth", truth).Inc()
	LabelsTotal.WithLabelValues("bias", bias).Inc()
}

// RecordBatch records a completed analyze batch.
func RecordBatch(saved, warnings int, duration float64) {
	ClaimsSaved.Add(float64(saved))
	StoreWarnings.Add(float64(warnings))
	AnalyzeDuration.Observe(duration)
}
