// internal/reqctx/reqctx.go
//
// Central per-request context.
//
// Context
// -------
// One *Context is built for every incoming request by the pipeline.  It
// carries the raw inputs every resolver needs:
//
//   - Timestamp : request start time (UTC), the "now" for discounts.
//   - Addr      : client address, nil when it could not be parsed.
//   - Host      : request host without port.
//   - Credential: raw Authorization header, possibly empty.
//   - Provenance: Referer and Origin headers.
//
// On top of those inputs it holds a map of named, lazily-evaluated
// attributes.  Resolvers attach cells, readers call Get, and only the
// attributes somebody reads are ever computed.
//
// Notes
// -----
//   - A Context is owned by exactly one request; attribute attachment is
//     not synchronised.  Reads of attached cells are safe from any goroutine
//     because each cell guards its own evaluation.
//   - Oxford commas, two spaces after periods.
package reqctx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/yanizio/storefront/internal/lazy"
)

// Attribute names attached by the default pipeline.
const (
	AttrSite            = "site"
	AttrUA              = "ua"
	AttrCountry         = "country"
	AttrCurrency        = "currency"
	AttrIdentity        = "identity"
	AttrPlugins         = "plugins"
	AttrActiveCampaigns = "active_campaigns"
	AttrDiscounts       = "discounts"
)

var (
	// ErrNoAttribute is returned when a reader asks for an attribute that
	// no pipeline step attached.
	ErrNoAttribute = errors.New("reqctx: attribute not attached")

	// ErrAttributeType is returned when the attached cell holds a
	// different type than the reader expects.
	ErrAttributeType = errors.New("reqctx: attribute type mismatch")
)

// Provenance describes where the request claims to come from.
type Provenance struct {
	Referer string
	Origin  string
}

// Host returns the host[:port] of the Referer, falling back to Origin.
// Empty when neither header parses.
func (p Provenance) Host() string {
	for _, raw := range []string{p.Referer, p.Origin} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

// cell erases the type parameter so the map can hold any attribute.
type cell interface {
	value() (any, error)
	evaluated() bool
}

type typed[T any] struct{ v *lazy.Value[T] }

func (t typed[T]) value() (any, error) { return t.v.Get() }
func (t typed[T]) evaluated() bool     { return t.v.Evaluated() }

// Context is created once per request.
type Context struct {
	ID             string // request id, echoed as X-Request-Id
	Timestamp      time.Time
	Addr           net.IP
	Host           string
	Credential     string
	UserAgent      string
	AcceptLanguage string
	Provenance     Provenance

	ctx   context.Context
	attrs map[string]cell
	order []string
}

// New returns an empty Context stamped with ts.  ctx bounds any blocking
// work done by attribute producers.
func New(ctx context.Context, ts time.Time) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Timestamp: ts.UTC(),
		ctx:       ctx,
		attrs:     make(map[string]cell, 8),
	}
}

// Context returns the request-scoped context.Context for producers.
func (c *Context) Context() context.Context { return c.ctx }

// Has reports whether name is attached.
func (c *Context) Has(name string) bool {
	_, ok := c.attrs[name]
	return ok
}

// Names lists attached attributes in attachment order.
func (c *Context) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Evaluated reports whether the named attribute has already been computed.
func (c *Context) Evaluated(name string) bool {
	if e, ok := c.attrs[name]; ok {
		return e.evaluated()
	}
	return false
}

// Value evaluates the named attribute without knowing its type.  Used by
// diagnostics that dump every attribute.
func (c *Context) Value(name string) (any, error) {
	e, ok := c.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAttribute, name)
	}
	return e.value()
}

// Attach stores v under name, replacing any previous cell.
func Attach[T any](c *Context, name string, v *lazy.Value[T]) {
	if _, ok := c.attrs[name]; !ok {
		c.order = append(c.order, name)
	}
	c.attrs[name] = typed[T]{v: v}
}

// Cell returns the attached cell for name without evaluating it.
func Cell[T any](c *Context, name string) (*lazy.Value[T], error) {
	e, ok := c.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAttribute, name)
	}
	t, ok := e.(typed[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrAttributeType, name, e)
	}
	return t.v, nil
}

// Get evaluates and returns the named attribute.
func Get[T any](c *Context, name string) (T, error) {
	v, err := Cell[T](c, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.Get()
}

/*──────────────────────────── context.Context glue ─────────────────────────*/

type ctxKey struct{} // unexported, collision-proof

// WithContext stores rc in ctx.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the *Context stored by the pipeline middleware, or
// nil if it has not run.
func FromContext(ctx context.Context) *Context {
	v, _ := ctx.Value(ctxKey{}).(*Context)
	return v
}
