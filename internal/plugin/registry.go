// internal/plugin/registry.go
//
// Plugin registry (cycle-free).
//
// Each concrete plugin lives under plugins/<id> and calls plugin.Register()
// in an init() function.  At boot, NewManager instantiates the plugins
// listed in `plugins.enabled`, in that order, and the pipeline exposes the
// resulting *Manager as the "plugins" request attribute.

package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/reqctx"
)

// Plugin is the base contract.  Capabilities are separate interfaces a
// plugin may also implement.
type Plugin interface {
	ID() string
}

// DiscountFilter rewrites the discount set for one request.  Returning an
// error makes the manager log it and pass the input through unchanged.
type DiscountFilter interface {
	FilterDiscounts(ctx context.Context, set campaign.Set, prov reqctx.Provenance, id identity.Identity) (campaign.Set, error)
}

// Env is what a Factory receives.  Settings is the plugin's own subtree
// from `plugins.settings.<id>`, possibly nil.
type Env struct {
	Settings map[string]any
	Mapper   identity.Mapper
	Log      *zap.SugaredLogger
}

// Factory builds a plugin instance.
type Factory func(Env) (Plugin, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register is invoked from plugin init() functions.  Duplicate ids panic
// because they can only come from a build mistake.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[id]; dup {
		panic(fmt.Sprintf("plugin: %q registered twice", id))
	}
	registry[id] = f
}

// Lookup returns the factory for id or nil.
func Lookup(id string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[id]
}

// Registered lists every registered id in sorted order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
