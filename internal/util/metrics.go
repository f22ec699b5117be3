package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of successful order lifecycle operations",
	}, []string{"operation"})

	OrderRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_rejections_total",
		Help: "Total number of rejected order operations",
	}, []string{"operation", "reason"})

	StockReservedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_reserved_units_total",
		Help: "Units of stock taken by new orders",
	})

	StockRestoredUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_restored_units_total",
		Help: "Units of stock returned by cancellations and refunds",
	})

	StockReserveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_reserve_latency_seconds",
		Help:    "Latency of the reserve-and-insert order transaction",
		Buckets: prometheus.DefBuckets,
	})

	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Total number of messages written",
	}, []string{"type"})

	EventsPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Total number of order events that could not be published",
	})

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
