package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ModuleMetrics records RPC module activity segmented by method and outcome.
type ModuleMetrics struct {
	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// LedgerMetrics tracks revenue movement through the distribution engine.
type LedgerMetrics struct {
	Distributions *prometheus.CounterVec
	Withdrawals   prometheus.Counter
	Disputes      prometheus.Counter
}

var (
	moduleOnce     sync.Once
	moduleRegistry *ModuleMetrics

	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Modules returns the lazily-initialised RPC module metrics registry.
func Modules() *ModuleMetrics {
	moduleOnce.Do(func() {
		moduleRegistry = &ModuleMetrics{
			Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "muse",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "muse",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC failures segmented by method.",
			}, []string{"method"}),
			Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "muse",
				Subsystem: "module",
				Name:      "latency_seconds",
				Help:      "JSON-RPC handler latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(moduleRegistry.Requests, moduleRegistry.Errors, moduleRegistry.Latency)
	})
	return moduleRegistry
}

// Ledger returns the lazily-initialised revenue ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			Distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "muse",
				Subsystem: "revenue",
				Name:      "distributions_total",
				Help:      "Revenue distributions segmented by path.",
			}, []string{"path"}),
			Withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "muse",
				Subsystem: "revenue",
				Name:      "withdrawals_total",
				Help:      "Completed pending-revenue withdrawals.",
			}),
			Disputes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "muse",
				Subsystem: "claims",
				Name:      "disputes_total",
				Help:      "Inspiration claims flagged as disputed.",
			}),
		}
		prometheus.MustRegister(ledgerRegistry.Distributions, ledgerRegistry.Withdrawals, ledgerRegistry.Disputes)
	})
	return ledgerRegistry
}
