// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Presence cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_cache_hits_total",
			Help: "Presence cache lookups served without a remote call",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_cache_misses_total",
			Help: "Presence cache lookups that issued a remote call",
		},
		[]string{"kind"},
	)

	CacheRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_cache_refreshes_total",
			Help: "Background refreshes of watched presence keys",
		},
	)

	CacheWatchedKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_cache_watched_keys",
			Help: "Number of presence keys with at least one observer",
		},
	)

	PresenceFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_fetch_errors_total",
			Help: "Failed remote presence fetches",
		},
	)

	// Active-conversation announcer
	ConversationAnnounces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_announces_total",
			Help: "Active-conversation announcements sent",
		},
	)

	ConversationRetracts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_retracts_total",
			Help: "Active-conversation retractions sent",
		},
	)

	// Notification delivery worker
	NotificationsDisplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_displayed_total",
			Help: "OS notifications displayed, by payload outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "decode_fallback"
	)

	NotificationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_clicks_total",
			Help: "Notification clicks, by window resolution",
		},
		[]string{"resolution"}, // "focused", "opened"
	)

	PushDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_payload_decode_failures_total",
			Help: "Push payloads that failed JSON decoding",
		},
	)
)
