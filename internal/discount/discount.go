// Package discount composes identity, campaign activation, and the plugin
// filter chain into the discount set a request sees.
//
// The resolver itself is stateless; the pipeline wraps each stage in a
// lazy cell so the whole composition runs at most once per request, and
// only when something reads discounts.
package discount

import (
	"context"
	"time"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/reqctx"
)

// Activator computes a request's activation view.  *campaign.Store
// satisfies it.
type Activator interface {
	Deactivate(asOf time.Time) *campaign.Activation
}

// Filter rewrites an activated set.  *plugin.Manager satisfies it.
type Filter interface {
	FilterDiscounts(ctx context.Context, set campaign.Set, prov reqctx.Provenance, id identity.Identity) campaign.Set
}

// Resolver runs activation and filtering.
type Resolver struct {
	Store  Activator
	Filter Filter // nil = identity transform
}

// NewResolver returns a Resolver.
func NewResolver(store Activator, filter Filter) *Resolver {
	return &Resolver{Store: store, Filter: filter}
}

// Activate resets activation at asOf, activates id's campaigns, and reads
// the result.
func (r *Resolver) Activate(asOf time.Time, id identity.Identity) campaign.Set {
	return r.Store.Deactivate(asOf).ActivateForIdentity(id).Active()
}

// Apply runs the filter chain over an activated set.
func (r *Resolver) Apply(ctx context.Context, set campaign.Set, prov reqctx.Provenance, id identity.Identity) campaign.Set {
	if r.Filter == nil {
		return set
	}
	return r.Filter.FilterDiscounts(ctx, set, prov, id)
}

// Resolve is Activate followed by Apply.  A nil identity cell resolves as
// anonymous; a failing one (credential decode) fails the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, asOf time.Time, id func() (identity.Identity, error), prov reqctx.Provenance) (campaign.Set, error) {
	who := identity.Anonymous()
	if id != nil {
		var err error
		if who, err = id(); err != nil {
			return campaign.Set{}, err
		}
	}
	return r.Apply(ctx, r.Activate(asOf, who), prov, who), nil
}
