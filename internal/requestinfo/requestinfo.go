// internal/requestinfo/requestinfo.go
//
// *http.Request → *reqctx.Context.
//
/*
Context
--------
This is the only place that reads raw request headers.  For every request
it:

  1. Stamps the request start time (UTC) and a request id (the incoming
     X-Request-Id when it is a UUID, otherwise a fresh one).
  2. Extracts the left-most parseable client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  3. Copies Host (port stripped), User-Agent, Accept-Language, the
     Authorization header, and the Referer/Origin provenance pair.

Everything derived from those inputs (country, identity, discounts, and so
on) is left to pipeline steps, which attach lazy attributes.

Notes
-----
  • The produced Context holds no pointer to the *http.Request, so it is
    safe to keep past the handler for logging.
  • Oxford commas, two spaces after periods.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/site"
)

// New builds the per-request context for r, stamped with now.
func New(r *http.Request, now time.Time) *reqctx.Context {
	rc := reqctx.New(r.Context(), now)
	rc.ID = RequestID(r)
	rc.Addr = ClientIP(r)
	rc.Host = site.StripPort(r.Host)
	rc.Credential = r.Header.Get("Authorization")
	rc.UserAgent = r.UserAgent()
	rc.AcceptLanguage = r.Header.Get("Accept-Language")
	rc.Provenance = reqctx.Provenance{
		Referer: r.Referer(),
		Origin:  r.Header.Get("Origin"),
	}
	return rc
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestID returns the incoming X-Request-Id when it parses as a UUID,
// otherwise a new random one.
func RequestID(r *http.Request) string {
	if id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(RequestIDHeader))); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ClientIP extracts the left-most parseable address from X-Forwarded-For
// or X-Real-IP, falling back to r.RemoteAddr ("ip:port").  Nil when none
// parses.
func ClientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
