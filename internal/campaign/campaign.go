// internal/campaign/campaign.go
//
// Discount campaign model and the pure activation query.
//
// Context
// -------
// A Campaign is a promotional rule with a validity window and an optional
// customer scope.  Campaign records are owned by an external store; this
// package only reads them and decides which ones are active for a given
// instant and identity.
//
// ActiveCampaigns is the whole activation rule in one side-effect-free
// function.  Store and Activation (store.go) build the per-request
// reset-then-activate protocol on top of it.
//
// Notes
// -----
//   - Windows are inclusive at both ends.  A nil StartAt or EndAt is
//     open-ended.
//   - Oxford commas, two spaces after periods.
package campaign

import (
	"encoding/json"
	"time"

	"github.com/yanizio/storefront/internal/identity"
)

// Campaign mirrors one row in the `discount_sale` table.
type Campaign struct {
	Key         string     `db:"sale_key"      json:"key"`
	Name        string     `db:"name"          json:"name"`
	StartAt     *time.Time `db:"start_date"    json:"start_at,omitempty"`
	EndAt       *time.Time `db:"end_date"      json:"end_at,omitempty"`
	CustomerRef *string    `db:"customer_email" json:"customer_ref,omitempty"`
}

// Scoped reports whether the campaign is restricted to one customer.
func (c Campaign) Scoped() bool { return c.CustomerRef != nil && *c.CustomerRef != "" }

// Customer returns the scope reference, or "" when unscoped.
func (c Campaign) Customer() string {
	if c.CustomerRef == nil {
		return ""
	}
	return *c.CustomerRef
}

// ValidAt reports whether t lies inside the campaign window.
func (c Campaign) ValidAt(t time.Time) bool {
	if c.StartAt != nil && t.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && t.After(*c.EndAt) {
		return false
	}
	return true
}

// Set is an ordered, read-only collection of campaigns.
type Set struct {
	items []Campaign
}

// NewSet copies items into a Set.
func NewSet(items []Campaign) Set {
	if len(items) == 0 {
		return Set{}
	}
	cp := make([]Campaign, len(items))
	copy(cp, items)
	return Set{items: cp}
}

// Len returns the number of campaigns.
func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the campaigns in order.
func (s Set) Items() []Campaign {
	out := make([]Campaign, len(s.items))
	copy(out, s.items)
	return out
}

// MarshalJSON encodes the set as an array of campaigns.
func (s Set) MarshalJSON() ([]byte, error) { return json.Marshal(s.Items()) }

// Keys returns campaign keys in order.
func (s Set) Keys() []string {
	out := make([]string, len(s.items))
	for i, c := range s.items {
		out[i] = c.Key
	}
	return out
}

// Contains reports whether a campaign with key is present.
func (s Set) Contains(key string) bool {
	for _, c := range s.items {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Filter returns the campaigns for which keep returns true.
func (s Set) Filter(keep func(Campaign) bool) Set {
	out := make([]Campaign, 0, len(s.items))
	for _, c := range s.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	return Set{items: out}
}

// ActiveCampaigns returns, in catalog order, every campaign valid at asOf
// that is either unscoped or scoped to id (or one of its ancestors).
func ActiveCampaigns(catalog []Campaign, asOf time.Time, id identity.Identity) Set {
	out := make([]Campaign, 0, len(catalog))
	for _, c := range catalog {
		if !c.ValidAt(asOf) {
			continue
		}
		if c.Scoped() && !id.Matches(c.Customer()) {
			continue
		}
		out = append(out, c)
	}
	return Set{items: out}
}
