package utils

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type observed struct {
	method, route string
	status        int
}

type recorder struct{ calls []observed }

func (r *recorder) ObserveRequest(method, route string, status int) {
	r.calls = append(r.calls, observed{method, route, status})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	obs := &recorder{}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log, obs))
	r.Get("/api/channels/{source}/breakdown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/channels/Google/breakdown", nil))

	assert.Equal(t, []observed{{"GET", "/api/channels/{source}/breakdown", http.StatusTeapot}}, obs.calls)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/channels/Google/breakdown"`)
	assert.Contains(t, buf.String(), `"rid":`)
}

func TestRID_Missing(t *testing.T) {
	assert.Equal(t, "", RID(httptest.NewRequest("GET", "/", nil).Context()))
}
