package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

var errorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "schedule_cache_errors_total",
	Help: "Number of cache operations that failed and were absorbed",
}, []string{"op"})

func init() {
	prometheus.MustRegister(errorCount)
}
