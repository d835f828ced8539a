package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(sessionLookupsTotal, pgPoolConns, httpRequestDuration) }

var (
	// result is hit, miss or corrupt.
	sessionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "session_lookups_total",
			Help:      "Session user reads served from the redis cache.",
		},
		[]string{"cache", "result"},
	)

	pgPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "pool_connections",
			Help:      "Connections in the pgx pool by state.",
		},
		[]string{"state"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by chi route pattern, method and status.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"route", "method", "status"},
	)
)

func IncCacheRequest(cache, result string) {
	sessionLookupsTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}

func SetDBPoolStats(total, idle, acquired int32) {
	pgPoolConns.WithLabelValues("total").Set(float64(total))
	pgPoolConns.WithLabelValues("idle").Set(float64(idle))
	pgPoolConns.WithLabelValues("acquired").Set(float64(acquired))
}

// ObserveHTTPRequest records one request; route is the pattern, never the raw path.
func ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
