package activity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_activity_events_recorded",
	Help: "Number of activity events appended to the log",
}, []string{"action"})

var recordFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_activity_record_failures",
	Help: "Number of activity event writes which failed (and were swallowed)",
}, []string{"action"})
