package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	syncCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomboard",
			Name:      "sync_cycles_total",
			Help:      "Sync cycles by result.",
		},
		[]string{"result"},
	)

	bookingsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roomboard",
			Name:      "bookings_pruned_total",
			Help:      "Bookings removed by the prune pass.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(syncCycles, bookingsPruned, httpRequests)
	})
}

// IncSyncCycle counts one finished sync cycle with its result label
// ("ok", "fetch_error", "reconcile_error").
func IncSyncCycle(result string) {
	syncCycles.WithLabelValues(result).Inc()
}

// AddPruned adds to the pruned bookings counter.
func AddPruned(count int64) {
	if count > 0 {
		bookingsPruned.Add(float64(count))
	}
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
