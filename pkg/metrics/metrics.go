// Package metrics collects Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Recorder is what request handlers report to
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordInstagramFetch(mode, result string)
	RecordInstagramLogin(result string)
	RecordCountryCreated()
	RecordRateLimited(route string)
}

// Collector is the Prometheus-backed Recorder
type Collector struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	instagramFetches *prometheus.CounterVec
	instagramLogins  *prometheus.CounterVec
	countriesCreated prometheus.Counter
	rateLimited      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igserve_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "igserve_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		instagramFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igserve_instagram_fetch_total",
			Help: "Instagram video lookups by session mode and outcome.",
		}, []string{"mode", "result"}),
		instagramLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igserve_instagram_login_total",
			Help: "Explicit Instagram logins by outcome.",
		}, []string{"result"}),
		countriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "igserve_countries_created_total",
			Help: "Countries added through the API.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "igserve_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.instagramFetches,
		c.instagramLogins,
		c.countriesCreated,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordInstagramFetch(mode, result string) {
	c.instagramFetches.WithLabelValues(mode, result).Inc()
}

func (c *Collector) RecordInstagramLogin(result string) {
	c.instagramLogins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCountryCreated() {
	c.countriesCreated.Inc()
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordInstagramFetch(string, string)              {}
func (Nop) RecordInstagramLogin(string)                      {}
func (Nop) RecordCountryCreated()                            {}
func (Nop) RecordRateLimited(string)                         {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
