package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kings-scraper/utils"
)

var (
	PagesScraped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kings_pages_scraped_total",
			Help: "Pages that completed extraction",
		},
	)
	PropertiesExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kings_properties_extracted_total",
			Help: "Listing records extracted",
		},
	)
	ExtractionFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kings_extraction_fallbacks_total",
			Help: "Listings whose detail block fell back to unstructured capture",
		},
	)
	NavigationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kings_navigation_retries_total",
			Help: "Page loads or clicks that were retried",
		},
	)
	NavigationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kings_navigation_failures_total",
			Help: "Navigation errors that ended the crawl early",
		},
	)
)

// Start registers the counters and serves /metrics on the given port.
func Start(port string, logger *utils.Logger) {
	prometheus.MustRegister(
		PagesScraped,
		PropertiesExtracted,
		ExtractionFallbacks,
		NavigationRetries,
		NavigationFailures,
	)
	http.Handle("/metrics", promhttp.Handler())
	go serve(port, logger)
}

// serve blocks on the metrics listener and reports its failure; a bad or busy
// port must show up in the log rather than vanish with the goroutine.
func serve(port string, logger *utils.Logger) {
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("[metrics] Server on :%s stopped: %v", port, err)
	}
}
