package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkAllowedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_ratelimit_allowed",
	Help: "Number of admission checks which passed",
}, []string{"tier"})

var checkDeniedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_ratelimit_denied",
	Help: "Number of admission checks which were denied",
}, []string{"tier"})

var checkErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_ratelimit_store_errors",
	Help: "Number of counter store failures (checks failed open)",
}, []string{"tier"})

var sweepRemovedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "trustcore_ratelimit_counters_swept",
	Help: "Number of expired rate counters removed by opportunistic sweeps",
})

var throttleLimitedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "trustcore_ratelimit_newaccount_limited",
	Help: "Number of actions denied by the new-account daily throttle",
})
