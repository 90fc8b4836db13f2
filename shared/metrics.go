package shared

import "github.com/prometheus/client_golang/prometheus"

// RateLimitRejectionsTotal lives here rather than in the monitoring service
// because both the middleware and the handlers bump it; the monitoring
// service registers it alongside its own collectors.
var RateLimitRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by a rate limiter",
	},
	[]string{"scope"},
)

// RecordRateLimitRejection counts a request dropped by the named limiter
// scope ("requests" or "comments").
func RecordRateLimitRejection(scope string) {
	RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}
