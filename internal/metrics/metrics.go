package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

var (
	FilesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clonerbot_files_ingested_total",
		Help: "Files relayed into storage channels and indexed.",
	})

	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clonerbot_ingest_failures_total",
		Help: "Ingestion pipeline failures by stage.",
	}, []string{"stage"})

	FilesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clonerbot_files_relayed_total",
		Help: "Stored files relayed back to requesters.",
	})

	RequestsByOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clonerbot_requests_total",
		Help: "File requests by terminal outcome.",
	}, []string{"outcome"})

	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clonerbot_store_failures_total",
		Help: "Settings store operations that exhausted their retries.",
	}, []string{"op"})

	BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clonerbot_broadcast_messages_total",
		Help: "Broadcast messages delivered to known users.",
	})

	ClonesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clonerbot_clones_running",
		Help: "Clone dispatchers currently running.",
	})
)

// Serve exposes /metrics on addr. Returns immediately; the listener runs
// until the process exits.
func Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("Metrics listener starting", logger.Fields{"addr": addr})
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Metrics listener failed", logger.Fields{
				"addr":  addr,
				"error": err.Error(),
			})
		}
	}()
}
