// Package obs provides Prometheus instrumentation for the live engine.
package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesDetected counts trade events received from the monitor.
	TradesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polycopy_trades_detected_total",
		Help: "Trade events received from the monitor",
	})

	// TradesCopied counts orders that reached a filled outcome.
	TradesCopied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_trades_copied_total",
		Help: "Copied trades by side",
	}, []string{"side"})

	// TradesSkipped counts events dropped before execution, by reason.
	TradesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_trades_skipped_total",
		Help: "Trade events skipped before execution",
	}, []string{"reason"})

	// OrderFailures counts orders that ended without a fill.
	OrderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polycopy_order_failures_total",
		Help: "Orders that ended cancelled, timed out or errored",
	}, []string{"status"})

	// FillLatency observes submit-to-terminal time per order.
	FillLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polycopy_fill_latency_seconds",
		Help:    "Time from order submit to terminal status",
		Buckets: prometheus.DefBuckets,
	})

	// OpenPositions tracks the ledger's open position count.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polycopy_open_positions",
		Help: "Currently open positions",
	})

	// Balance tracks the ledger's cash balance.
	Balance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polycopy_balance",
		Help: "Current cash balance",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr. It blocks until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
