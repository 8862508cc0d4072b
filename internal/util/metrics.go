package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueuePendingTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sync_queue_pending_tasks",
		Help: "Number of writes waiting for delivery",
	})

	QueueStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sync_queue_status",
		Help: "Current queue status (1 for the active status)",
	}, []string{"status"})

	QueueDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_queue_deliveries_total",
		Help: "Delivery attempts by target collection and result",
	}, []string{"target", "result"})

	QueueTasksDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_queue_tasks_dropped_total",
		Help: "Tasks removed by an operator without delivery",
	})

	QueuePersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_queue_persist_failures_total",
		Help: "Failed writes of the local queue snapshot",
	})

	GatewayRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_latency_seconds",
		Help:    "Latency of remote store requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"target", "operation"})

	GatewayReadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_read_failures_total",
		Help: "Bulk reads that degraded to an empty result",
	}, []string{"target"})

	ReconciledBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciled_batches_total",
		Help: "Balance rows handled by reconciliation passes",
	}, []string{"pass", "result"})

	ProductionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "production_runs_total",
		Help: "Production runs by result",
	}, []string{"result"})

	SalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_total",
		Help: "Sales by result",
	}, []string{"result"})

	StockShortagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_shortages_total",
		Help: "Operations rejected for insufficient stock",
	}, []string{"operation"})

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
