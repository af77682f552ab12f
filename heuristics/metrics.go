package heuristics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var processedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_heuristics_actions_processed",
	Help: "Number of post-action heuristic dispatches",
}, []string{"action"})

var flagCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_heuristics_flags_created",
	Help: "Number of new suspicious-activity flags recorded",
}, []string{"flag", "severity"})

var flagDupeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_heuristics_flags_deduped",
	Help: "Number of flag calls skipped as duplicates within the dedup window",
}, []string{"flag"})

var escalationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_heuristics_escalations",
	Help: "Number of trust status escalations to flagged",
}, []string{"flag"})

var clearCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "trustcore_heuristics_flags_cleared",
	Help: "Number of admin clear-flags actions",
})
