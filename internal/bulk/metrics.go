package bulk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "bulk",
			Name:      "runs_total",
			Help:      "Finished bulk operations by outcome.",
		},
		[]string{"outcome"},
	)

	itemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Per-item mutation attempts by result.",
		},
		[]string{"result"},
	)

	rejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "bulk",
			Name:      "rejected_total",
			Help:      "Bulk operations refused before dispatch.",
		},
		[]string{"reason"},
	)
)
