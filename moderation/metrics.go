package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var createdCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_moderation_messages_created",
	Help: "Number of messages created, by initial routing status",
}, []string{"status"})

var reviewCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustcore_moderation_reviews",
	Help: "Number of human review actions applied",
}, []string{"status"})
