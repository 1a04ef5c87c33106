// Package metrics exposes Prometheus instrumentation for the minter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Klingon-tech/asset-minter/config"
)

const namespace = "asset_minter"

var (
	builds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Asset creation transaction builds by network and result",
		},
		[]string{"network", "result"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_seconds",
			Help:      "Node gateway request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"network", "endpoint", "result"},
	)

	signing = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signing_events_total",
			Help:      "Signing requests offered, confirmed and declined",
		},
		[]string{"network", "event"},
	)

	sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Browser sessions currently held",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Web UI requests by route and status",
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		builds,
		gatewayDuration,
		signing,
		sessions,
		httpRequests,
	)
}

// Signing event labels.
const (
	EventOffered   = "offered"
	EventConfirmed = "confirmed"
	EventDeclined  = "declined"
)

// BuildResult counts a build attempt. A nil err counts as success.
func BuildResult(network config.NetworkType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	builds.WithLabelValues(string(network), result).Inc()
}

// GatewayRequest observes a gateway call that started at begin.
func GatewayRequest(network config.NetworkType, endpoint string, begin time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayDuration.WithLabelValues(string(network), endpoint, result).Observe(time.Since(begin).Seconds())
}

// Signing counts a signing lifecycle event.
func Signing(network config.NetworkType, event string) {
	signing.WithLabelValues(string(network), event).Inc()
}

// SessionOpened increments the active session gauge.
func SessionOpened() { sessions.Inc() }

// SessionClosed decrements the active session gauge.
func SessionClosed() { sessions.Dec() }

// HTTPRequest counts a served web request.
func HTTPRequest(route string, status int) {
	httpRequests.WithLabelValues(route, http.StatusText(status)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
