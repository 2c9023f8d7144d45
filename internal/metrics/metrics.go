package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Push channel
	PushState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bsi_push_state",
		Help: "Current push channel state (0 disconnected, 1 connecting, 2 connected, 3 authorized).",
	})
	PushTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_push_transitions_total",
		Help: "Push channel state transitions by target state.",
	}, []string{"to"})
	PushDialAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_push_dial_attempts_total",
		Help: "Push channel dial attempts by result.",
	}, []string{"result"})
	PushEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_push_events_total",
		Help: "Inbound push events by type.",
	}, []string{"type"})
	PushDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_push_dropped_total",
		Help: "Inbound push messages dropped by reason.",
	}, []string{"reason"})

	// Gateway
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_gateway_requests_total",
		Help: "Game service requests by operation and outcome.",
	}, []string{"op", "outcome"})
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bsi_gateway_request_seconds",
		Help:    "Game service request latency by operation.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"op"})

	// Derived state
	OnlinePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bsi_online_players",
		Help: "Players currently known to be online.",
	})
	ActiveGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bsi_active_games",
		Help: "Opponents with an open game view.",
	})

	// Session
	BestEffortFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_best_effort_failures_total",
		Help: "Swallowed failures of best-effort session calls by operation.",
	}, []string{"op"})

	// Stand-in service
	StubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_stub_http_requests_total",
		Help: "Stand-in service HTTP requests by route and status.",
	}, []string{"route", "status"})
	StubPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bsi_stub_http_panics_total",
		Help: "Stand-in service handler panics by route.",
	}, []string{"route"})
	StubPushClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bsi_stub_push_clients",
		Help: "Push connections open on the stand-in service.",
	})
)
