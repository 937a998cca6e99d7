package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMethodOverrideMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		override   string
		header     string
		wantMethod string
	}{
		{name: "POST + _method=DELETE", method: http.MethodPost, override: "DELETE", wantMethod: http.MethodDelete},
		{name: "POST + _method=put（小文字）", method: http.MethodPost, override: "put", wantMethod: http.MethodPut},
		{name: "POST + ヘッダー", method: http.MethodPost, header: "PATCH", wantMethod: http.MethodPatch},
		{name: "許可されていない値は無視", method: http.MethodPost, override: "GET", wantMethod: http.MethodPost},
		{name: "GETは置き換えない", method: http.MethodGet, override: "DELETE", wantMethod: http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := NewMethodOverrideMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method
			}))

			target := "/posts/p1"
			var req *http.Request
			if tt.method == http.MethodPost {
				form := url.Values{methodOverrideField: {tt.override}}
				req = httptest.NewRequest(tt.method, target, strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(tt.method, target+"?_method="+tt.override, nil)
			}
			if tt.header != "" {
				req.Header.Set("X-HTTP-Method-Override", tt.header)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.wantMethod {
				t.Errorf("method = %q, want %q", got, tt.wantMethod)
			}
		})
	}
}

func TestMethodOverrideMiddleware_RoutesWithChi(t *testing.T) {
	r := chi.NewRouter()
	r.Use(NewMethodOverrideMiddleware())

	var hit string
	r.Put("/posts/{id}", func(w http.ResponseWriter, r *http.Request) { hit = "put " + chi.URLParam(r, "id") })
	r.Delete("/posts/{id}", func(w http.ResponseWriter, r *http.Request) { hit = "delete " + chi.URLParam(r, "id") })

	form := url.Values{methodOverrideField: {"DELETE"}}
	req := httptest.NewRequest(http.MethodPost, "/posts/p1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if hit != "delete p1" {
		t.Errorf("hit = %q, want delete p1", hit)
	}
}
