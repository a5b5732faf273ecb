package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transfer outcomes used as label values
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Collector owns a private registry, so several collectors may live in one process (tests)
type Collector struct {
	registry *prometheus.Registry

	transfers        *prometheus.CounterVec
	transferDuration prometheus.Histogram
	transferred      prometheus.Counter
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digibank_transfers_total",
			Help: "Transfer attempts by outcome and reason",
		}, []string{"outcome", "reason"}),
		transferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "digibank_transfer_duration_seconds",
			Help:    "Time taken to execute a transfer",
			Buckets: prometheus.DefBuckets,
		}),
		transferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "digibank_transferred_amount_total",
			Help: "Sum of successfully transferred amounts",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digibank_http_requests_total",
			Help: "HTTP requests by method and status",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digibank_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// ObserveTransfer records one transfer attempt
// reason is empty for successful transfers
func (c *Collector) ObserveTransfer(outcome string, reason string, d time.Duration, amount float64) {
	c.transfers.WithLabelValues(outcome, reason).Inc()
	c.transferDuration.Observe(d.Seconds())

	if outcome == OutcomeSuccess {
		c.transferred.Add(amount)
	}
}

func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Handler exposes the registry in prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
