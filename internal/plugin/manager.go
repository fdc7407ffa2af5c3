// internal/plugin/manager.go
//
// Ordered plugin chain.
//
/*
Context
--------
The Manager owns the enabled plugin instances in configured order.  For
each hook it walks the chain linearly: plugin N receives plugin N-1's
output.  A plugin that does not implement the hook is skipped, which is
the identity transform.

Failure handling
----------------
A plugin that returns an error, or panics, must not abort the request.
The manager logs the failure at WARN, bumps plugin_failures_total, and
hands the unmodified input to the next plugin.

Notes
-----
  • The Manager is immutable after NewManager and shared by all requests.
  • Oxford commas, two spaces after periods.
*/
package plugin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/metrics"
	"github.com/yanizio/storefront/internal/reqctx"
)

// Manager runs hooks across the enabled plugins.
type Manager struct {
	plugins []Plugin
	log     *zap.SugaredLogger
}

// NewManager instantiates enabled plugins in order.  settings maps a
// plugin id to its configuration subtree.  An unknown id or a factory
// error aborts startup.
func NewManager(enabled []string, settings map[string]map[string]any, env Env) (*Manager, error) {
	if env.Log == nil {
		env.Log = zap.S()
	}
	m := &Manager{log: env.Log}
	seen := make(map[string]struct{}, len(enabled))
	for _, id := range enabled {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("plugin %q enabled twice", id)
		}
		seen[id] = struct{}{}

		f := Lookup(id)
		if f == nil {
			return nil, fmt.Errorf("plugin %q is not registered", id)
		}
		pe := env
		pe.Settings = settings[id]
		pe.Log = env.Log.With("plugin", id)
		p, err := f(pe)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", id, err)
		}
		m.plugins = append(m.plugins, p)
	}
	m.log.Infow("plugins online", "enabled", m.IDs())
	return m, nil
}

// NewManagerFrom wraps already-built plugins.  Used by tests and by
// callers that wire plugins by hand.
func NewManagerFrom(log *zap.SugaredLogger, plugins ...Plugin) *Manager {
	if log == nil {
		log = zap.S()
	}
	return &Manager{plugins: append([]Plugin(nil), plugins...), log: log}
}

// IDs returns plugin ids in chain order.
func (m *Manager) IDs() []string {
	out := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		out[i] = p.ID()
	}
	return out
}

// FilterDiscounts runs the DiscountFilter chain.  It never fails.
func (m *Manager) FilterDiscounts(ctx context.Context, set campaign.Set, prov reqctx.Provenance, id identity.Identity) campaign.Set {
	if m == nil {
		return set
	}
	for _, p := range m.plugins {
		f, ok := p.(DiscountFilter)
		if !ok {
			continue
		}
		out, err := m.safeFilter(ctx, f, set, prov, id)
		if err != nil {
			metrics.PluginFailuresTotal.WithLabelValues(p.ID()).Inc()
			m.log.Warnw("plugin discount filter failed, passing through",
				"plugin", p.ID(),
				"identity", id.String(),
				"err", err,
			)
			continue
		}
		set = out
	}
	return set
}

func (m *Manager) safeFilter(ctx context.Context, f DiscountFilter, set campaign.Set, prov reqctx.Provenance, id identity.Identity) (out campaign.Set, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.FilterDiscounts(ctx, set, prov, id)
}
