// Package perfmetrics records transfer metrics: Prometheus collectors for the
// running process and an optional CSV log of archive downloads.
package perfmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpbrowser_sessions_total",
			Help: "FTP sessions opened, by result",
		},
		[]string{"result"},
	)

	// Listing metrics
	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpbrowser_listings_total",
			Help: "Directory listings, by result",
		},
		[]string{"result"},
	)

	skippedLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ftpbrowser_listing_skipped_lines_total",
			Help: "Listing lines dropped because they could not be parsed",
		},
	)

	// Archive metrics
	archivesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpbrowser_archives_total",
			Help: "Archive downloads, by result",
		},
		[]string{"result"},
	)

	archiveBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ftpbrowser_archive_bytes_total",
			Help: "Uncompressed bytes packed into delivered archives",
		},
	)

	filesRetrievedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpbrowser_files_retrieved_total",
			Help: "Individual file retrievals, by result",
		},
		[]string{"result"},
	)

	retrieveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ftpbrowser_retrieve_duration_seconds",
			Help:    "Time to retrieve one file",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpbrowser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftpbrowser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordSession records an attempt to open a session.
func RecordSession(ok bool) {
	sessionsTotal.WithLabelValues(result(ok)).Inc()
}

// RecordListing records a directory listing.
func RecordListing(ok bool) {
	listingsTotal.WithLabelValues(result(ok)).Inc()
}

// RecordSkippedLines counts unparseable listing lines.
func RecordSkippedLines(n int) {
	if n > 0 {
		skippedLinesTotal.Add(float64(n))
	}
}

// RecordArchive records a finished archive build.
func RecordArchive(bytes int64, ok bool) {
	archivesTotal.WithLabelValues(result(ok)).Inc()
	if ok {
		archiveBytesTotal.Add(float64(bytes))
	}
}

// RecordRetrieve records a single file retrieval.
func RecordRetrieve(duration time.Duration, ok bool) {
	filesRetrievedTotal.WithLabelValues(result(ok)).Inc()
	retrieveDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
