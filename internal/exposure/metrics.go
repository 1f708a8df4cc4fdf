package exposure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "exposure",
			Name:      "fetches_total",
			Help:      "Secret value fetches by result.",
		},
		[]string{"result"},
	)

	revealsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "exposure",
			Name:      "reveals_total",
			Help:      "Times a fetched value was made visible.",
		},
	)

	autoHidesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "azvault",
			Subsystem: "exposure",
			Name:      "auto_hides_total",
			Help:      "Revealed values discarded by the auto-hide deadline.",
		},
	)
)
