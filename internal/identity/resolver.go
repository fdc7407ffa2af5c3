// internal/identity/resolver.go
//
// Authorization header → Identity.
//
/*
Workflow
--------
  1. ParseCredential.  No header or wrong scheme → Anonymous, no error.
  2. Decoder.Decode.  Failure → *CredentialDecodeError, propagated.
  3. Claimed email from EmailClaim (fallback "sub").  None → Anonymous.
  4. Mapper.Resolve under Timeout.  Any failure → Anonymous, logged at
     WARN and counted in identity_lookup_failures_total.
  5. Identity{Ref: canonical, Claimed: email}.

Notes
-----
  • The resolver holds no per-request state.  The pipeline wraps one
    Resolve call per request in a lazy cell.
  • Oxford commas, two spaces after periods.
*/
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/metrics"
)

const (
	// DefaultScheme is the Authorization scheme accepted when none is
	// configured.
	DefaultScheme = "JWT"

	// DefaultEmailClaim names the claim carrying the customer email.
	DefaultEmailClaim = "email"
)

// Resolver composes a Decoder and a Mapper.
type Resolver struct {
	Scheme     string
	EmailClaim string
	Timeout    time.Duration
	Decoder    Decoder
	Mapper     Mapper
	Log        *zap.SugaredLogger
}

// NewResolver fills defaults for empty fields.
func NewResolver(dec Decoder, mapper Mapper, scheme, emailClaim string, timeout time.Duration, log *zap.SugaredLogger) *Resolver {
	if scheme == "" {
		scheme = DefaultScheme
	}
	if emailClaim == "" {
		emailClaim = DefaultEmailClaim
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.S()
	}
	return &Resolver{
		Scheme:     scheme,
		EmailClaim: emailClaim,
		Timeout:    timeout,
		Decoder:    dec,
		Mapper:     mapper,
		Log:        log,
	}
}

// Resolve runs the workflow described at the top of this file.
func (r *Resolver) Resolve(ctx context.Context, header string) (Identity, error) {
	token, ok := ParseCredential(header, r.Scheme)
	if !ok {
		return Anonymous(), nil
	}
	if r.Decoder == nil {
		return Anonymous(), &CredentialDecodeError{Err: errors.New("no credential decoder configured")}
	}

	claims, err := r.Decoder.Decode(token)
	if err != nil {
		metrics.CredentialDecodeErrorsTotal.Inc()
		return Anonymous(), &CredentialDecodeError{Err: err}
	}

	email := strings.TrimSpace(claims[r.EmailClaim])
	if email == "" {
		email = strings.TrimSpace(claims["sub"])
	}
	if email == "" {
		r.Log.Debugw("credential carries no email claim", "claim", r.EmailClaim)
		return Anonymous(), nil
	}

	if r.Mapper == nil {
		r.recordLookupFailure(email, errors.New("no identity mapper configured"))
		return Anonymous(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	canonical, err := r.Mapper.Resolve(ctx, email)
	if err != nil {
		r.recordLookupFailure(email, err)
		return Anonymous(), nil
	}
	return New(canonical, email), nil
}

func (r *Resolver) recordLookupFailure(email string, err error) {
	metrics.IdentityLookupFailuresTotal.Inc()
	r.Log.Warnw("identity lookup failed, continuing as anonymous",
		"email", email,
		"err", err,
	)
}
