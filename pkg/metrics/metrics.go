// Package metrics exposes the Prometheus registry shared by the item list
// packages. Metrics are defined next to the code that records them
// (client, controller, catalog) and registered into Registry through
// promauto.With.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package records into.
var Registry = prometheus.DefaultRegisterer

// gatherer reads back what Registry holds.
var gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Collection client (pkg/client):
//   - itemlist_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - itemlist_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - itemlist_errors_total{class} (Counter): failures by class (transport, service, malformed)
//
// List controller (pkg/controller):
//   - itemlist_fetch_cycles_total (Counter): fetch cycles started
//   - itemlist_stale_responses_total{outcome} (Counter): outcomes discarded as superseded
//
// Collection service (pkg/catalog):
//   - catalog_list_requests_total{result} (Counter): listings by result (ok, invalid, out_of_range, error)
//   - catalog_store_errors_total{operation} (Counter): store failures (all, seed, delete)
//
// Example Prometheus Queries:
//
//   # Share of superseded fetches
//   rate(itemlist_stale_responses_total[5m]) / rate(itemlist_fetch_cycles_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(itemlist_request_duration_seconds_bucket[5m]))
//
//   # Out of range requests
//   rate(catalog_list_requests_total{result="out_of_range"}[5m])
