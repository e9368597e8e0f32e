package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the marketplace collectors.
	Registry = prometheus.NewRegistry()

	auctionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "auctions_closed_total",
			Help:      "Auctions closed by the lifecycle processor.",
		},
		[]string{"outcome"},
	)

	bids = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "bids_total",
			Help:      "Bid placement attempts by result.",
		},
		[]string{"result"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	earningsCleared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "earnings_cleared_total",
			Help:      "Artist earnings promoted to cleared.",
		},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "http_requests_total",
			Help:      "HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		auctionsClosed,
		bids,
		webhookEvents,
		earningsCleared,
		jobDuration,
		httpRequests,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func AuctionClosed(outcome string) { auctionsClosed.WithLabelValues(outcome).Inc() }

func BidPlaced(result string) { bids.WithLabelValues(result).Inc() }

func WebhookEvent(outcome string) { webhookEvents.WithLabelValues(outcome).Inc() }

func EarningsCleared(n int) { earningsCleared.Add(float64(n)) }

func ObserveJob(job string, d time.Duration) {
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func HTTPRequest(method, path string, status int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
