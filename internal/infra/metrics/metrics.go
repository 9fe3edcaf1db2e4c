package metrics

// Prometheus instruments for the snapshot service
// All collectors live on a dedicated registry exposed by the HTTP server at /metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this process.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	RPCRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_requests_total",
		Help: "JSON-RPC attempts by method and outcome.",
	}, []string{"method", "outcome"})

	RPCDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_request_duration_seconds",
		Help:    "Latency of a single JSON-RPC attempt.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"method"})

	RPCRetries = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_retries_total",
		Help: "Retries scheduled after a retryable JSON-RPC failure.",
	}, []string{"method"})

	HolderStrategy = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "holder_strategy_runs_total",
		Help: "Holder strategy runs by strategy and result (ok, empty, error).",
	}, []string{"strategy", "result"})

	SnapshotBuilds = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_builds_total",
		Help: "Snapshot payload builds by result.",
	}, []string{"result"})

	HTTPResponses = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_responses_total",
		Help: "Responses served by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveHTTP counts one served response.
func ObserveHTTP(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPResponses.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
