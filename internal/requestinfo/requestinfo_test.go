package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xrip   string
		remote string
		want   string
	}{
		{"xff first parseable", "garbage, 203.0.113.9, 10.0.0.1", "", "192.0.2.1:1234", "203.0.113.9"},
		{"x-real-ip", "", "198.51.100.7", "192.0.2.1:1234", "198.51.100.7"},
		{"remote addr", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
		{"nothing", "", "", "pipe", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xrip != "" {
				r.Header.Set("X-Real-Ip", tt.xrip)
			}
			got := ClientIP(r)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNew(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://shop.example:8080/cart", nil)
	r.Header.Set("Authorization", "JWT abc")
	r.Header.Set("Referer", "http://localhost:3000/cart")
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("User-Agent", "curl/8.0")
	r.Header.Set("Accept-Language", "fr-FR")

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	rc := New(r, now)

	assert.Equal(t, now.UTC(), rc.Timestamp)
	assert.Equal(t, "shop.example", rc.Host)
	assert.Equal(t, "JWT abc", rc.Credential)
	assert.Equal(t, "localhost:3000", rc.Provenance.Host())
	assert.Equal(t, "curl/8.0", rc.UserAgent)
	assert.Equal(t, "fr-FR", rc.AcceptLanguage)
	assert.Equal(t, "192.0.2.1", rc.Addr.String()) // httptest default RemoteAddr
}

func TestRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", RequestID(r))

	r.Header.Set(RequestIDHeader, "not-a-uuid; drop table")
	got := RequestID(r)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
	assert.NotContains(t, got, "drop")

	r.Header.Del(RequestIDHeader)
	assert.NotEqual(t, RequestID(r), RequestID(r))
}
