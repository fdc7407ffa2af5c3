package pipeline

import (
	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/plugin"
	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/site"
	"github.com/yanizio/storefront/internal/ua"
)

// Typed accessors for the default attributes.  Each one evaluates the
// attribute on first use.

func Country(rc *reqctx.Context) (string, error) {
	return reqctx.Get[string](rc, reqctx.AttrCountry)
}

func Currency(rc *reqctx.Context) (string, error) {
	return reqctx.Get[string](rc, reqctx.AttrCurrency)
}

func Identity(rc *reqctx.Context) (identity.Identity, error) {
	return reqctx.Get[identity.Identity](rc, reqctx.AttrIdentity)
}

func Discounts(rc *reqctx.Context) (campaign.Set, error) {
	return reqctx.Get[campaign.Set](rc, reqctx.AttrDiscounts)
}

func Site(rc *reqctx.Context) (*site.Record, error) {
	return reqctx.Get[*site.Record](rc, reqctx.AttrSite)
}

func UA(rc *reqctx.Context) (ua.Info, error) {
	return reqctx.Get[ua.Info](rc, reqctx.AttrUA)
}

func Plugins(rc *reqctx.Context) (*plugin.Manager, error) {
	return reqctx.Get[*plugin.Manager](rc, reqctx.AttrPlugins)
}
