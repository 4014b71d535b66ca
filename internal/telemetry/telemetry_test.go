package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePipeline(t *testing.T) {
	m := New()
	m.ObservePipeline(time.Now(), 42, nil)
	m.ObservePipeline(time.Now(), 0, errors.New("bad input"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.UnifiedRows), "failed runs keep the last row count")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.CacheHit()
	m.ObserveRequest("GET", "/api/summary", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `mkt_dataset_cache_total{result="hit"} 1`)
	assert.Contains(t, string(body), `mkt_http_requests_total{method="GET",route="/api/summary",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewIsIndependent(t *testing.T) {
	a, b := New(), New()
	a.CacheMiss()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("miss")))
}
