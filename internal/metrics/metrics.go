// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FilesProcessed counts inbox files that reached the processed archive.
	FilesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardwatch_files_processed_total",
		Help: "Number of statement files normalized, imported, and archived.",
	})

	// FilesFailed counts inbox files routed to the failed archive.
	FilesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardwatch_files_failed_total",
		Help: "Number of statement files that failed normalization, validation, or import.",
	})

	// RowsAdded counts transaction rows persisted by imports.
	RowsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardwatch_rows_added_total",
		Help: "Number of transaction rows persisted.",
	})

	// RowsSkipped counts rows dropped as duplicates.
	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardwatch_rows_skipped_total",
		Help: "Number of transaction rows skipped as duplicates.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
