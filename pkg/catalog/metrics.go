package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/item-list-client/pkg/metrics"
)

var (
	// listRequests counts item listings by result
	listRequests = promauto.With(metrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_requests_total",
			Help: "Total number of item list requests served by result",
		},
		[]string{"result"}, // "ok", "invalid", "out_of_range", "error"
	)

	// storeErrors counts store operation failures
	storeErrors = promauto.With(metrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_store_errors_total",
			Help: "Total number of catalog store operation errors",
		},
		[]string{"operation"}, // "all", "seed", "delete"
	)
)
