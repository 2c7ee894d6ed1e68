package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_feedback_events_total",
			Help: "Count of processed feedback events by action.",
		},
		[]string{"action"},
	)

	FeedbackDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_feedback_dropped_total",
		Help: "Feedback events dropped by queue overflow or exhausted retries.",
	})

	FeedbackRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_feedback_retries_total",
		Help: "Retry attempts against the statistics store.",
	})
)

func init() {
	prometheus.MustRegister(
		FeedbackEventsTotal,
		FeedbackDroppedTotal,
		FeedbackRetriesTotal,
	)
}
