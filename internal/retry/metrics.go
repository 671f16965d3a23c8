package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are observability only; selection never reads them.
var (
	attemptCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weaver",
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Retry attempts by detected failure mode and chosen strategy.",
	}, []string{"mode", "strategy"})

	sessionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weaver",
		Subsystem: "retry",
		Name:      "sessions_total",
		Help:      "Finished retry sessions by outcome.",
	}, []string{"outcome"})
)

func recordAttempt(mode FailureMode, strategy Strategy) {
	attemptCounter.WithLabelValues(string(mode), string(strategy)).Inc()
}

func recordSession(succeeded bool) {
	outcome := "exhausted"
	if succeeded {
		outcome = "recovered"
	}
	sessionCounter.WithLabelValues(outcome).Inc()
}
