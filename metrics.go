package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_cache_requests_total",
		Help: "Number of cached departure lookups by outcome",
	}, []string{"result"})

	backendQuerySeconds = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "schedule_backend_query_seconds",
		Help:       "Time spent querying the schedule backend",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(cacheRequests, backendQuerySeconds)
}
