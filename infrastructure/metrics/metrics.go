// Package metrics holds the prometheus collectors of the node and the HTTP
// endpoint that exposes them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "topod"

var (
	blocksAccepted       prometheus.Counter
	blocksRejected       prometheus.Counter
	reorgs               prometheus.Counter
	reorgDepth           prometheus.Histogram
	executorWaves        prometheus.Counter
	executorTransactions *prometheus.CounterVec
	orderingCacheLookups *prometheus.CounterVec
	maxTopoheight        prometheus.Gauge
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	blocksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_accepted_total",
		Help:      "Number of blocks inserted into the DAG",
	})
	blocksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_rejected_total",
		Help:      "Number of blocks that failed validation",
	})
	reorgs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reorgs_total",
		Help:      "Number of times chain blocks were removed from the virtual selected chain",
	})
	reorgDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reorg_depth",
		Help:      "Number of chain blocks removed by a reorg",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	executorWaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executor_waves_total",
		Help:      "Number of conflict-free waves executed",
	})
	executorTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executor_tx_total",
		Help:      "Number of executed transactions by status",
	}, []string{"status"})
	orderingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ordering_cache_requests_total",
		Help:      "Ordering cache lookups by cache and result",
	}, []string{"cache", "result"})
	maxTopoheight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "max_topoheight",
		Help:      "The topoheight of the virtual selected tip",
	})
}

// BlockAccepted counts an inserted block
func BlockAccepted() {
	initPrometheusMetrics()
	blocksAccepted.Inc()
}

// BlockRejected counts a block that failed validation
func BlockRejected() {
	initPrometheusMetrics()
	blocksRejected.Inc()
}

// Reorg records a reorg that removed depth chain blocks
func Reorg(depth int) {
	initPrometheusMetrics()
	reorgs.Inc()
	reorgDepth.Observe(float64(depth))
}

// ExecutorWave counts an executed wave
func ExecutorWave() {
	initPrometheusMetrics()
	executorWaves.Inc()
}

// ExecutorTransaction counts an executed transaction with the given status
func ExecutorTransaction(status string) {
	initPrometheusMetrics()
	executorTransactions.WithLabelValues(status).Inc()
}

// OrderingCacheLookup counts a lookup in the named ordering cache
func OrderingCacheLookup(cache string, hit bool) {
	initPrometheusMetrics()
	result := "miss"
	if hit {
		result = "hit"
	}
	orderingCacheLookups.WithLabelValues(cache, result).Inc()
}

// SetMaxTopoheight publishes the current max topoheight
func SetMaxTopoheight(topoheight uint64) {
	initPrometheusMetrics()
	maxTopoheight.Set(float64(topoheight))
}
