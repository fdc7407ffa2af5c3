// internal/pipeline/steps.go
//
// Standard steps and the default ordering.
//
// Each constructor binds one resolver to one attribute.  Producers read
// upstream attributes through reqctx.Get, which evaluates them on demand,
// so the dependency chain is only walked as far as the reader needs.

package pipeline

import (
	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/currency"
	"github.com/yanizio/storefront/internal/discount"
	"github.com/yanizio/storefront/internal/geo"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/lazy"
	"github.com/yanizio/storefront/internal/plugin"
	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/site"
	"github.com/yanizio/storefront/internal/ua"
)

// SiteStep resolves the storefront addressed by the Host header.
func SiteStep(c *site.Cache) Step {
	return Step{
		Name: reqctx.AttrSite,
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrSite, lazy.New(func() (*site.Record, error) {
				return c.Get(rc.Context(), rc.Host)
			}))
		},
	}
}

// UAStep parses User-Agent and Accept-Language.
func UAStep() Step {
	return Step{
		Name: reqctx.AttrUA,
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrUA, lazy.New(func() (ua.Info, error) {
				return ua.Parse(rc.UserAgent, rc.AcceptLanguage), nil
			}))
		},
	}
}

// CountryStep maps the client address to a country.  Never fails.
func CountryStep(g *geo.Resolver) Step {
	return Step{
		Name: reqctx.AttrCountry,
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrCountry, lazy.New(func() (string, error) {
				return g.Resolve(rc.Addr), nil
			}))
		},
	}
}

// CurrencyStep maps the resolved country to a currency.  Never fails.
func CurrencyStep(c *currency.Resolver) Step {
	return Step{
		Name:     reqctx.AttrCurrency,
		Requires: []string{reqctx.AttrCountry},
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrCurrency, lazy.New(func() (string, error) {
				country, err := reqctx.Get[string](rc, reqctx.AttrCountry)
				if err != nil {
					return c.Default(), nil
				}
				return c.ForCountry(country), nil
			}))
		},
	}
}

// IdentityStep resolves the Authorization credential.  A credential decode
// failure is cached in the cell and surfaces to every reader.
func IdentityStep(r *identity.Resolver) Step {
	return Step{
		Name: reqctx.AttrIdentity,
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrIdentity, lazy.New(func() (identity.Identity, error) {
				return r.Resolve(rc.Context(), rc.Credential)
			}))
		},
	}
}

// PluginsStep exposes the process-wide plugin manager.
func PluginsStep(m *plugin.Manager) Step {
	return Step{
		Name: reqctx.AttrPlugins,
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrPlugins, lazy.Of(m))
		},
	}
}

// ActivationStep computes the request's activation view: reset at the
// request timestamp, then activate the resolved identity's campaigns.
func ActivationStep(d *discount.Resolver) Step {
	return Step{
		Name:     reqctx.AttrActiveCampaigns,
		Requires: []string{reqctx.AttrIdentity},
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrActiveCampaigns, lazy.New(func() (campaign.Set, error) {
				id, err := reqctx.Get[identity.Identity](rc, reqctx.AttrIdentity)
				if err != nil {
					return campaign.Set{}, err
				}
				return d.Activate(rc.Timestamp, id), nil
			}))
		},
	}
}

// DiscountStep runs the plugin filter chain over the activated set.
func DiscountStep(d *discount.Resolver) Step {
	return Step{
		Name:     reqctx.AttrDiscounts,
		Requires: []string{reqctx.AttrIdentity, reqctx.AttrActiveCampaigns},
		Attach: func(rc *reqctx.Context) {
			reqctx.Attach(rc, reqctx.AttrDiscounts, lazy.New(func() (campaign.Set, error) {
				active, err := reqctx.Get[campaign.Set](rc, reqctx.AttrActiveCampaigns)
				if err != nil {
					return campaign.Set{}, err
				}
				id, err := reqctx.Get[identity.Identity](rc, reqctx.AttrIdentity)
				if err != nil {
					return campaign.Set{}, err
				}
				return d.Apply(rc.Context(), active, rc.Provenance, id), nil
			}))
		},
	}
}

// Deps carries the resolvers for Default.  Sites may be nil, in which case
// the site step is omitted.
type Deps struct {
	Sites     *site.Cache
	Geo       *geo.Resolver
	Currency  *currency.Resolver
	Identity  *identity.Resolver
	Plugins   *plugin.Manager
	Discounts *discount.Resolver
}

// Default returns the standard step order.
func Default(d Deps, opts ...Option) (*Pipeline, error) {
	var steps []Step
	if d.Sites != nil {
		steps = append(steps, SiteStep(d.Sites))
	}
	steps = append(steps,
		UAStep(),
		CountryStep(d.Geo),
		CurrencyStep(d.Currency),
		IdentityStep(d.Identity),
		PluginsStep(d.Plugins),
		ActivationStep(d.Discounts),
		DiscountStep(d.Discounts),
	)
	return New(steps, opts...)
}
