package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the Recommend HTTP handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_recommend_latency_seconds",
		Help:    "Latency of the recommendations handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation requests served
	RecommendRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_recommend_requests_total",
		Help: "Total number of recommend requests",
	})

	// How many result slots were given to under-sampled items
	ExplorationSlotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_exploration_slots_total",
		Help: "Result slots reserved for cold-start exploration",
	})

	// Scorer failures isolated by the fusion bulkhead, by signal name
	ScorerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_scorer_failures_total",
			Help: "Scorer errors or panics degraded to a neutral score",
		},
		[]string{"signal"},
	)
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		ExplorationSlotsTotal,
		ScorerFailuresTotal,
	)
}
