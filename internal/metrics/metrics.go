// Package metrics defines Prometheus metrics for ebay-oauth-go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ebayauth"

// Token lifecycle metrics.
var (
	TokenProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_probes_total",
		Help:      "Total token validity probes, labeled by outcome.",
	}, []string{"outcome"}) // valid, invalid, network_error

	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total successful token refreshes.",
	})

	TokenRefreshFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_failures_total",
		Help:      "Total failed token refresh attempts.",
	})
)

// Browse API metrics.
var (
	APICallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Total cumulative eBay Browse API calls.",
	})

	APIRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_retries_total",
		Help:      "Total retried API calls, labeled by reason.",
	}, []string{"reason"}) // rate_limited, server_error, transport

	RateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Total calls rejected by the local daily rate limit.",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of full listing fetches in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
