package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors, registered on their own registry so
// tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	UnifiedRows      prometheus.Gauge
	CacheLookups     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkt_pipeline_runs_total",
			Help: "Unification pipeline runs by result.",
		}, []string{"result"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mkt_pipeline_duration_seconds",
			Help:    "Time to load the four tables and unify them.",
			Buckets: prometheus.DefBuckets,
		}),
		UnifiedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mkt_unified_rows",
			Help: "Rows in the most recently built dataset.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkt_dataset_cache_total",
			Help: "Dataset cache lookups by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkt_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	m.reg.MustRegister(
		m.PipelineRuns, m.PipelineDuration, m.UnifiedRows, m.CacheLookups, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePipeline(start time.Time, rows int, err error) {
	m.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.PipelineRuns.WithLabelValues("error").Inc()
		return
	}
	m.PipelineRuns.WithLabelValues("ok").Inc()
	m.UnifiedRows.Set(float64(rows))
}

func (m *Metrics) CacheHit()  { m.CacheLookups.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheMiss() { m.CacheLookups.WithLabelValues("miss").Inc() }

func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
