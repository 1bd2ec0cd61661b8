// internal/socket/metrics.go
package socket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estimato_ws_connected_clients",
		Help: "Number of currently connected WebSocket clients.",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimato_ws_broadcast_messages_total",
		Help: "Total messages delivered to room subscribers.",
	})

	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimato_ws_published_events_total",
		Help: "Events published to the hub, by message type.",
	}, []string{"type"})

	subscriptionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimato_ws_subscriptions_rejected_total",
		Help: "Subscribe attempts denied by authorization.",
	})
)
