package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "motorambos", Name: "help_requests_created_total", Help: "Help requests recorded, by help type"},
		[]string{"help_type"},
	)
	ProviderLookups = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "motorambos", Name: "provider_lookups_total", Help: "Nearby provider lookups served"},
	)
	ProvidersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "motorambos", Name: "providers_returned", Help: "Candidates returned per lookup", Buckets: []float64{0, 1, 2, 5, 10, 20}},
	)
	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "motorambos", Name: "reviews_submitted_total", Help: "Reviews recorded"},
	)
	OffersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "motorambos", Name: "offers_dispatched_total", Help: "Job offers pushed to provider sessions, by outcome"},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "motorambos", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "motorambos",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
