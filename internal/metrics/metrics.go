package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibe_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_messages_sent_total",
			Help: "Total messages sent",
		},
		[]string{"channel_type"},
	)

	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_realtime_events_total",
			Help: "Total realtime events delivered",
		},
		[]string{"kind"}, // "insert" or "presence"
	)

	DuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe_duplicate_messages_dropped_total",
			Help: "Realtime inserts discarded because the ID was already in history",
		},
	)

	SubscriptionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vibe_subscriptions_active",
			Help: "Currently live realtime subscriptions",
		},
		[]string{"kind"}, // "messages" or "presence"
	)

	DirectChannelsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe_direct_channels_created_total",
			Help: "DM channels created locally",
		},
	)

	// VibeBot metrics
	BotReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe_bot_replies_total",
			Help: "Total completion-service replies appended",
		},
	)

	BotFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe_bot_failures_total",
			Help: "Completion-service calls that returned an error",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// WebSocket metrics
	WSClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibe_ws_clients_connected",
			Help: "Currently connected websocket clients",
		},
	)
)
