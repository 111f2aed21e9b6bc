package ethereum

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rpcMetrics counts archive-node calls. A nil Registerer leaves them
// unregistered.
type rpcMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRPCMetrics(reg prometheus.Registerer) *rpcMetrics {
	f := promauto.With(reg)
	return &rpcMetrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "reserves_ethereum",
			Name:      "calls_total",
			Help:      "Contract calls by method and outcome (ok, empty, error).",
		}, []string{"method", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: "reserves_ethereum",
			Name:      "call_duration_seconds",
			Help:      "Latency of eth_call against the archive node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}
