// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	MirrorMode    prometheus.Gauge

	// Detection metrics
	ChangesDetected *prometheus.CounterVec
	WalletsTracked  prometheus.Gauge

	// Analysis metrics
	TokensAnalyzed   prometheus.Counter
	ParseFailures    prometheus.Counter
	AIRequestLatency prometheus.Histogram

	// Execution metrics
	TradesExecuted *prometheus.CounterVec
	TradeFailures  *prometheus.CounterVec

	// External call metrics
	RPCCallLatency   *prometheus.HistogramVec
	PriceCacheHits   prometheus.Counter
	PriceCacheMisses prometheus.Counter

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_copybot"
	}

	return &Metrics{
		// Cycle metrics
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of analysis cycles by execution mode and status",
		}, []string{"mode", "status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Analysis cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		MirrorMode: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "mirror_mode",
			Help:      "1 when the last cycle ran in mirror mode, 0 for AI mode",
		}),

		// Detection metrics
		ChangesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "changes_detected_total",
			Help:      "Total number of wallet changes detected by kind",
		}, []string{"kind"}),
		WalletsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "wallets_tracked",
			Help:      "Number of wallets present in the latest snapshot",
		}),

		// Analysis metrics
		TokensAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "tokens_analyzed_total",
			Help:      "Total number of tokens sent for AI analysis",
		}),
		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "parse_failures_total",
			Help:      "Total number of AI responses discarded as unparseable",
		}),
		AIRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "ai_request_latency_seconds",
			Help:      "AI generation request latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Execution metrics
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trades_executed_total",
			Help:      "Total number of trades executed by mode and action",
		}, []string{"mode", "action"}),
		TradeFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trade_failures_total",
			Help:      "Total number of failed trade executions by mode",
		}, []string{"mode"}),

		// External call metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		PriceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "cache_hits_total",
			Help:      "Total number of price cache hits",
		}),
		PriceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "cache_misses_total",
			Help:      "Total number of price cache misses",
		}),

		// Health metrics
		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful analysis cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a completed cycle.
func RecordCycle(mode, status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(mode, status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordChange increments the change counter for one detected change kind.
func RecordChange(kind string) {
	DefaultMetrics.ChangesDetected.WithLabelValues(kind).Inc()
}

// RecordAnalysis records one AI analysis request.
func RecordAnalysis(latencySeconds float64) {
	DefaultMetrics.TokensAnalyzed.Inc()
	DefaultMetrics.AIRequestLatency.Observe(latencySeconds)
}

// RecordParseFailure increments the unparseable-response counter.
func RecordParseFailure() {
	DefaultMetrics.ParseFailures.Inc()
}

// RecordTrade records an executed trade.
func RecordTrade(mode, action string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(mode, action).Inc()
}

// RecordTradeFailure records a failed trade execution.
func RecordTradeFailure(mode string) {
	DefaultMetrics.TradeFailures.WithLabelValues(mode).Inc()
}

// SetMirrorMode flags which execution mode the last cycle used.
func SetMirrorMode(mirror bool) {
	if mirror {
		DefaultMetrics.MirrorMode.Set(1)
	} else {
		DefaultMetrics.MirrorMode.Set(0)
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
