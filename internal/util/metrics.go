package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_updates_total",
		Help: "Cart mutations by operation",
	}, []string{"op"})

	CartNoopTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_noop_total",
		Help: "Quantity changes ignored because they would leave [1, stock]",
	}, []string{"op"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed at checkout",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of order placement",
		Buckets: prometheus.DefBuckets,
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes",
	}, []string{"from", "to"})

	OrderStatusRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_rejected_total",
		Help: "Rejected order status changes",
	}, []string{"reason"})

	ChangeEventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_published_total",
		Help: "Change events written to the feed",
	}, []string{"table", "event_type"})

	ChangeEventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_publish_failed_total",
		Help: "Change events that could not be written to the feed",
	}, []string{"table"})

	ChangeEventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_dropped_total",
		Help: "Notifications dropped because a subscriber was not keeping up",
	}, []string{"table"})

	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_subscribers",
		Help: "Open change-feed subscriptions",
	})

	AuthEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Session lifecycle events",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
