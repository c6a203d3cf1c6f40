package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ListingMetrics provides observability for listing generation.
//
// Implementations can collect metrics about generated pages, their entry
// counts and sizes, and generation failures. This interface is optional -
// if not provided to the generator, a no-op implementation is used with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := metrics.NewListingMetrics()
//	gen := listing.New(vol, cfg, m)
//
//	// Without metrics (no-op)
//	gen := listing.New(vol, cfg, nil)
type ListingMetrics interface {
	// RecordListing records one successfully generated listing.
	//
	// Parameters:
	//   - entries: Number of entries on the page
	//   - bytes: Size of the rendered page in bytes
	//   - duration: Time taken to collect and render
	RecordListing(entries int, bytes int, duration time.Duration)

	// RecordError records a failed generation.
	//
	// Parameters:
	//   - kind: Failure class ("not_found", "permission_denied",
	//     "io_failure")
	RecordError(kind string)

	// RecordWarning increments the warning counter, e.g. when a readme is
	// suppressed by unsupported presentation flags.
	RecordWarning()
}

// listingMetrics is the Prometheus implementation of ListingMetrics.
type listingMetrics struct {
	listingsTotal   prometheus.Counter
	listingEntries  prometheus.Histogram
	listingBytes    prometheus.Histogram
	listingDuration prometheus.Histogram
	errorsTotal     *prometheus.CounterVec
	warningsTotal   prometheus.Counter
}

// NewListingMetrics creates a new Prometheus-backed ListingMetrics
// instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewListingMetrics() ListingMetrics {
	if !IsEnabled() {
		return &noopListingMetrics{}
	}

	reg := GetRegistry()

	return &listingMetrics{
		listingsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fancydir_listings_generated_total",
				Help: "Total number of listing pages generated",
			},
		),
		listingEntries: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "fancydir_listing_entries",
				Help: "Number of entries per generated listing",
				Buckets: []float64{
					0,
					10,
					25,
					50,
					100,
					250,
					500,
					1000,
					2500,
					5000,
					10000,
				},
			},
		),
		listingBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "fancydir_listing_bytes",
				Help: "Size of generated listing pages in bytes",
				Buckets: prometheus.ExponentialBuckets(
					1024,  // 1KiB
					4,     // x4 per bucket
					8,     // up to 16MiB
				),
			},
		),
		listingDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "fancydir_listing_duration_seconds",
				Help: "Time taken to generate a listing",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
				},
			},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancydir_listing_errors_total",
				Help: "Total number of failed listing generations by kind",
			},
			[]string{"kind"},
		),
		warningsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fancydir_listing_warnings_total",
				Help: "Total number of warnings recorded during generation",
			},
		),
	}
}

func (m *listingMetrics) RecordListing(entries int, bytes int, duration time.Duration) {
	m.listingsTotal.Inc()
	m.listingEntries.Observe(float64(entries))
	m.listingBytes.Observe(float64(bytes))
	m.listingDuration.Observe(duration.Seconds())
}

func (m *listingMetrics) RecordError(kind string) {
	m.errorsTotal.WithLabelValues(kind).Inc()
}

func (m *listingMetrics) RecordWarning() {
	m.warningsTotal.Inc()
}

// noopListingMetrics is a no-op implementation of ListingMetrics with zero
// overhead.
type noopListingMetrics struct{}

func (noopListingMetrics) RecordListing(entries int, bytes int, duration time.Duration) {}
func (noopListingMetrics) RecordError(kind string)                                      {}
func (noopListingMetrics) RecordWarning()                                               {}
