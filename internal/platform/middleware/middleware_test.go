package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"propmarket/pkg/requestcontext"
)

func TestMetadataRecordsClientIP(t *testing.T) {
	cases := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"direct connection", "", "203.0.113.9:54321", "203.0.113.9"},
		{"single proxy hop", "198.51.100.7", "10.0.0.1:443", "198.51.100.7"},
		{"multiple hops keep the originating client", "198.51.100.7, 10.0.0.2, 10.0.0.3", "10.0.0.1:443", "198.51.100.7"},
		{"hops with uneven spacing", "  198.51.100.7 ,10.0.0.2", "10.0.0.1:443", "198.51.100.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := Metadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = requestcontext.ClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequestIDHonorsCallerHeader(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
}
