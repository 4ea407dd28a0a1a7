package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	natsWebhookEventsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "nats_webhook_events_received_total",
			Help:      "Total raw WAHA webhook events received from NATS.",
		},
		[]string{"subject"},
	)

	webhookEventsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "webhook_events_processed_total",
			Help:      "Total webhook events processed.",
		},
		[]string{"kind", "status"}, // status: "success", "error_parsing", "error_resolve"
	)

	messageDeliveriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "message_deliveries_total",
			Help:      "Total per-container delivery attempts within fan-outs.",
		},
		[]string{"container", "status"}, // status: "success", "error_node"
	)

	messageDeliveryDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "message_delivery_duration_seconds",
			Help:      "Duration of per-container send attempts.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"container"},
	)

	sessionCreationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "sessions_created_total",
			Help:      "Total session creation attempts.",
		},
		[]string{"status"}, // e.g. "success", "error_exists", "error_no_nodes", "error_node"
	)
)
