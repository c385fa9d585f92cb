// Package metrics holds the Prometheus collectors for upstream calls and
// search cycles.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spaceflight_reader"

// Outcome labels for upstream requests.
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeParseError   = "parse_error"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	ArticlesFetched  prometheus.Counter

	Searches           *prometheus.CounterVec
	SearchesSuperseded prometheus.Counter
	ResultsReturned    prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not collide.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the news API by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of news API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ArticlesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_fetched_total",
			Help:      "Article records normalized from upstream responses.",
		}),
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search cycles by mode and whether a keyword was present.",
		}, []string{"mode", "keyword"}),
		SearchesSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_superseded_total",
			Help:      "Search results discarded because a newer search was issued.",
		}),
		ResultsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of articles left after ranking and filtering.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream call. Safe on a nil receiver so callers
// can run without metrics.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) AddFetched(n int) {
	if m == nil {
		return
	}
	m.ArticlesFetched.Add(float64(n))
}

func (m *Metrics) ObserveSearch(mode string, hasKeyword bool, results int) {
	if m == nil {
		return
	}
	keyword := "false"
	if hasKeyword {
		keyword = "true"
	}
	m.Searches.WithLabelValues(mode, keyword).Inc()
	m.ResultsReturned.Observe(float64(results))
}

func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.SearchesSuperseded.Inc()
}
