// Package metrics holds the console's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CredentialsIssued counts signed participant tokens.
	CredentialsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_console_credentials_issued_total",
			Help: "Total number of participant credentials issued",
		},
		[]string{"environment", "mode"},
	)

	// CredentialErrors counts failed issuance by error kind.
	CredentialErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_console_credential_errors_total",
			Help: "Total number of failed credential requests",
		},
		[]string{"environment", "kind"},
	)

	// BridgeProvisions counts outbound bridge attempts by result.
	BridgeProvisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_console_bridge_provisions_total",
			Help: "Total number of outbound bridge provisioning attempts",
		},
		[]string{"environment", "result"},
	)

	// BridgeProvisionSeconds measures bridge + dispatch latency.
	BridgeProvisionSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "call_console_bridge_provision_seconds",
			Help:    "Time spent provisioning the bridge participant and dispatching the agent",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"environment"},
	)

	// SessionCache counts cache decisions (hit or refresh).
	SessionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_console_session_cache_total",
			Help: "Session cache decisions",
		},
		[]string{"result"},
	)

	// SessionViewsActive tracks open websocket session views.
	SessionViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "call_console_session_views_active",
			Help: "Number of open session views",
		},
	)
)
