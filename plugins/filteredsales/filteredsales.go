// plugins/filteredsales/filteredsales.go
//
// Restrict storefront discounts to the customer's parent company.
//
// Context
// -------
// Requests that come from an allowed storefront origin only see campaigns
// created for the company the customer belongs to.  The company is found
// through the identity-mapping service (the same endpoint that resolves
// credentials).  Requests from any other origin, for example the admin
// dashboard, see the discount set unchanged.
//
// Settings (`plugins.settings.filteredsales`)
// --------
//
//	allowed_origins: ["localhost:3000", "https://shop.example.com"]
//
// Notes
// -----
//   - Anonymous customers on an allowed origin get no discounts.  So do
//     customers whose parent the service does not know.
//   - Transport failures are returned as errors; the plugin manager then
//     passes the set through untouched.
//   - Oxford commas, two spaces after periods.

package filteredsales

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/plugin"
	"github.com/yanizio/storefront/internal/reqctx"
)

// ID is the registry key.
const ID = "filteredsales"

// Compile-time assertions.
var (
	_ plugin.Plugin         = (*Plugin)(nil)
	_ plugin.DiscountFilter = (*Plugin)(nil)
)

// Plugin filters discounts by parent company.
type Plugin struct {
	allowed map[string]struct{}
	mapper  identity.Mapper
	log     *zap.SugaredLogger
}

func init() { plugin.Register(ID, New) }

// New is the plugin.Factory.
func New(env plugin.Env) (plugin.Plugin, error) {
	if env.Mapper == nil {
		return nil, errors.New("identity mapper is required")
	}
	origins, err := allowedOrigins(env.Settings)
	if err != nil {
		return nil, err
	}
	log := env.Log
	if log == nil {
		log = zap.S()
	}
	p := &Plugin{
		allowed: make(map[string]struct{}, len(origins)),
		mapper:  env.Mapper,
		log:     log,
	}
	for _, o := range origins {
		if h := normaliseOrigin(o); h != "" {
			p.allowed[h] = struct{}{}
		}
	}
	if len(p.allowed) == 0 {
		log.Warnw("no allowed origins configured, plugin will pass every set through")
	}
	return p, nil
}

// ID satisfies plugin.Plugin.
func (p *Plugin) ID() string { return ID }

// FilterDiscounts satisfies plugin.DiscountFilter.
func (p *Plugin) FilterDiscounts(ctx context.Context, set campaign.Set, prov reqctx.Provenance, id identity.Identity) (campaign.Set, error) {
	host := strings.ToLower(prov.Host())
	if _, ok := p.allowed[host]; !ok || host == "" {
		return set, nil
	}
	if id.IsAnonymous() {
		return campaign.Set{}, nil
	}

	parent, err := p.mapper.Resolve(ctx, id.Ref)
	switch {
	case errors.Is(err, identity.ErrNoMatch):
		p.log.Debugw("no parent company, hiding discounts", "identity", id.Ref)
		return campaign.Set{}, nil
	case err != nil:
		return set, err
	}

	return set.Filter(func(c campaign.Campaign) bool {
		return c.Scoped() && strings.EqualFold(c.Customer(), parent)
	}), nil
}

/*──────────────────────────── settings ─────────────────────────────────────*/

// allowedOrigins reads `allowed_origins` as a list or a comma-separated
// string (the latter is what an env override produces).
func allowedOrigins(settings map[string]any) ([]string, error) {
	k := koanf.New(".")
	if settings != nil {
		if err := k.Load(confmap.Provider(settings, "."), nil); err != nil {
			return nil, err
		}
	}
	var out []string
	for _, o := range k.Strings("allowed_origins") {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		if s := k.String("allowed_origins"); s != "" {
			for _, part := range strings.Split(s, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out, nil
}

// normaliseOrigin reduces "https://Shop.Example:443/x" or "shop.example"
// to the lower-case host[:port] form Provenance.Host returns.
func normaliseOrigin(o string) string {
	o = strings.TrimSpace(o)
	if strings.Contains(o, "://") {
		if u, err := url.Parse(o); err == nil {
			return strings.ToLower(u.Host)
		}
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(o, "/"))
}
