package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedRequest struct {
	method, route string
	status        int
}

// recordingCollector はHTTPリクエストの記録だけを保持するMetricsCollector。
type recordingCollector struct {
	requests []recordedRequest
}

func (c *recordingCollector) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	c.requests = append(c.requests, recordedRequest{method, route, status})
}
func (c *recordingCollector) RecordLogin(bool)            {}
func (c *recordingCollector) RecordRegistration(bool)     {}
func (c *recordingCollector) RecordPostCreated()          {}
func (c *recordingCollector) RecordPostDeleted()          {}
func (c *recordingCollector) RecordReviewCreated()        {}
func (c *recordingCollector) RecordReviewDeleted()        {}
func (c *recordingCollector) RecordCleanup(string, int64) {}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	collector := &recordingCollector{}

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(collector))
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(collector.requests) != 2 {
		t.Fatalf("recorded %d requests, want 2", len(collector.requests))
	}
	if got := collector.requests[0]; got.route != "/posts/{id}" || got.status != http.StatusOK || got.method != http.MethodGet {
		t.Errorf("first request = %+v, want GET /posts/{id} 200", got)
	}
	if got := collector.requests[1]; got.status != http.StatusNotFound {
		t.Errorf("second request status = %d, want 404", got.status)
	}
}
