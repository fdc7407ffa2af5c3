// internal/pipeline/pipeline.go
//
// Ordered request-context resolution chain.
//
/*
Context
--------
A Pipeline is a fixed list of Steps.  Each Step attaches one lazy attribute
to the request context and may declare the attributes it reads.  New
rejects any Step whose requirement is not produced by an earlier Step, so
dependency order (address → country → currency, identity → activation →
filtering) is checked once at boot instead of on every request.

Because attributes are lazy, running the whole pipeline is cheap: Attach
only stores closures.  Work happens when a handler reads an attribute.

Workflow
--------
  1. main assembles the steps (see Default in steps.go).
  2. Middleware builds a *reqctx.Context via requestinfo.New, runs Attach
     for every step in order, and stores the context in r.Context().
  3. Handlers call reqctx.FromContext and the typed accessors in attrs.go.

Notes
-----
  • The Pipeline is immutable after New and shared by all requests.
  • Oxford commas, two spaces after periods.
*/
package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/requestinfo"
)

var (
	// ErrOrder reports a step that reads an attribute no earlier step
	// attaches.
	ErrOrder = errors.New("pipeline: step requires an attribute not attached by an earlier step")

	// ErrDuplicate reports two steps attaching the same attribute.
	ErrDuplicate = errors.New("pipeline: duplicate step")
)

// Step attaches one attribute.
type Step struct {
	Name     string
	Requires []string
	Attach   func(rc *reqctx.Context)
}

// Pipeline runs steps in order.
type Pipeline struct {
	steps []Step
	log   *zap.SugaredLogger
	now   func() time.Time
}

// Option tweaks a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by Middleware.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithClock overrides the request timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New validates step order and returns a Pipeline.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if s.Name == "" || s.Attach == nil {
			return nil, fmt.Errorf("pipeline: step %d is incomplete", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, s.Name)
		}
		for _, req := range s.Requires {
			if _, ok := seen[req]; !ok {
				return nil, fmt.Errorf("%w: %s requires %s", ErrOrder, s.Name, req)
			}
		}
		seen[s.Name] = struct{}{}
	}

	p := &Pipeline{
		steps: append([]Step(nil), steps...),
		log:   zap.S(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Names returns step names in execution order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name
	}
	return out
}

// Build attaches every step's attribute to rc and returns it.
func (p *Pipeline) Build(rc *reqctx.Context) *reqctx.Context {
	for _, s := range p.steps {
		s.Attach(rc)
	}
	return rc
}

/*──────────────────────────── middleware ───────────────────────────────────*/

// Middleware wraps an http.Handler, attaches *reqctx.Context, and forwards.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := p.Build(requestinfo.New(r, p.now()))

		w.Header().Set(requestinfo.RequestIDHeader, rc.ID)
		p.log.Debugw("request context attached",
			"request_id", rc.ID,
			"ip", rc.Addr,
			"host", rc.Host,
			"path", r.URL.Path,
			"credential", rc.Credential != "",
			"provenance", rc.Provenance.Host(),
		)

		next.ServeHTTP(w, r.WithContext(reqctx.WithContext(r.Context(), rc)))
	})
}
