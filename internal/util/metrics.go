package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations by operation",
	}, []string{"op"})

	CartReadAnomaliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_read_anomalies_total",
		Help: "Cart reads that fell back to an empty cart because storage was unreadable or corrupt",
	})

	CartDanglingItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_dangling_items_total",
		Help: "Cart entries skipped because the product no longer exists",
	})

	CartAggregateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_aggregate_latency_seconds",
		Help:    "Latency of resolving a cart against the catalog",
		Buckets: prometheus.DefBuckets,
	})

	OrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Total number of orders persisted by checkout",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout submissions",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout submission",
		Buckets: prometheus.DefBuckets,
	})

	SignInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_sign_ins_total",
		Help: "Admin sign-in attempts by result",
	}, []string{"result"})

	GateRedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_gate_redirects_total",
		Help: "Protected page loads redirected to the login page",
	}, []string{"page"})

	OrderEventsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_events_processed_total",
		Help: "Order events appended to the admin feed",
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
