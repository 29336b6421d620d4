package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the scrape endpoint for the collector's registry.
func Handler(c *Collector) http.Handler {
	return promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{})
}
