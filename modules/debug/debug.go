// modules/debug/debug.go
//
// Diagnostic module that dumps the request context as JSON.
//
// GET /debug/context evaluates every attached attribute and reports its
// value or error.  With ?peek=1 nothing is evaluated; the response lists
// which attributes some earlier reader already forced.
package debug

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanizio/storefront/internal/module"
	"github.com/yanizio/storefront/internal/reqctx"
)

// Path is where the module is mounted.
const Path = "/debug/context"

func init() {
	module.Register(Path, handler)
}

type attr struct {
	Evaluated bool   `json:"evaluated"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

type dump struct {
	RequestID  string          `json:"request_id"`
	Timestamp  time.Time       `json:"timestamp"`
	IP         string          `json:"ip"`
	Host       string          `json:"host"`
	Credential bool            `json:"credential"`
	Provenance string          `json:"provenance"`
	Attributes map[string]attr `json:"attributes"`
	Order      []string        `json:"order"`
}

// idLister is satisfied by *plugin.Manager.
type idLister interface{ IDs() []string }

// handler writes a JSON blob describing rc.
func handler(rc *reqctx.Context, w http.ResponseWriter, r *http.Request) {
	peek := r.URL.Query().Get("peek") == "1"

	out := dump{
		RequestID:  rc.ID,
		Timestamp:  rc.Timestamp,
		Host:       rc.Host,
		Credential: rc.Credential != "",
		Provenance: rc.Provenance.Host(),
		Attributes: make(map[string]attr),
		Order:      rc.Names(),
	}
	if rc.Addr != nil {
		out.IP = rc.Addr.String()
	}

	for _, name := range out.Order {
		if peek {
			out.Attributes[name] = attr{Evaluated: rc.Evaluated(name)}
			continue
		}
		v, err := rc.Value(name)
		a := attr{Evaluated: true}
		if err != nil {
			a.Error = err.Error()
		} else if l, ok := v.(idLister); ok {
			a.Value = l.IDs()
		} else {
			a.Value = v
		}
		out.Attributes[name] = a
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
