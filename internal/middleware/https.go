// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"net/http"

	"github.com/yanizio/storefront/internal/site"
)

// SiteLookup reports whether a host is a known storefront.  *site.Cache
// satisfies it.
type SiteLookup interface {
	Get(ctx context.Context, host string) (*site.Record, error)
}

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is not
// “localhost”, and sites confirms the storefront exists, the wrapper
// issues a 308 Permanent Redirect to the HTTPS version of the same URL.
// Otherwise it calls the next handler unchanged.
func ForceHTTPS(sites SiteLookup, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := site.StripPort(r.Host)

		// Already HTTPS, proxied HTTPS, or dev host → continue.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" || host == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		// Only redirect if the host exists in the site table.
		if _, err := sites.Get(r.Context(), host); err == nil {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		// Unknown host → keep normal flow (likely 404 later).
		h.ServeHTTP(w, r)
	})
}
