package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blog", Name: "token_refresh_total", Help: "Number of token refresh calls by outcome."},
		[]string{"outcome"},
	)
	RequestRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "blog", Name: "request_retries_total", Help: "Number of requests resent after a 401."},
	)
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blog", Name: "api_requests_total", Help: "Number of API responses by method and status code."},
		[]string{"method", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(TokenRefreshes)
	reg.MustRegister(RequestRetries)
	reg.MustRegister(APIRequests)
}
