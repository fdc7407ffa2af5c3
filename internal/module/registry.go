// internal/module/registry.go
//
// A super-light registry: modules call Register(path, handler) in an init()
// function.  cmd/web mounts every registered path on the router behind the
// resolution pipeline.
//
// Handler signature:
//
//	func(rc *reqctx.Context, w http.ResponseWriter, r *http.Request)
//
// This gives handlers the per-request context (timestamp, client address,
// provenance, and the lazy attributes) without digging it out of
// r.Context() themselves.
package module

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/yanizio/storefront/internal/reqctx"
)

// Handler is what modules register.
type Handler func(*reqctx.Context, http.ResponseWriter, *http.Request)

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

// Register is called from module init() functions.  Registering a path
// twice panics.
func Register(path string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[path]; dup {
		panic(fmt.Sprintf("module: path %q registered twice", path))
	}
	registry[path] = h
}

// Lookup returns the handler for an exact path or nil.
func Lookup(path string) Handler {
	mu.RLock()
	defer mu.RUnlock()
	return registry[path]
}

// Paths returns registered paths in sorted order.
func Paths() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HTTP adapts h to http.Handler.  Requests that did not pass through the
// pipeline middleware get 500.
func HTTP(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := reqctx.FromContext(r.Context())
		if rc == nil {
			http.Error(w, "request context missing", http.StatusInternalServerError)
			return
		}
		h(rc, w, r)
	})
}
