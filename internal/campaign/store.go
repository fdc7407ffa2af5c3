// internal/campaign/store.go
//
// Process-wide campaign snapshot and per-request activation views.
//
/*
Context
--------
Activation used to be global mutable state: reset every flag, then flip
on the ones that apply to "this" request.  Two concurrent requests with
different identities would trample each other.  Here the shared part is an
immutable *Snapshot swapped through an atomic.Pointer, and the mutable
part, the activation flags, lives in an *Activation owned by exactly one
request.

Workflow
--------
  1. main builds a Store over a Catalog and calls Refresh once at boot.
  2. Run(ctx) refreshes every interval until ctx is cancelled.  A failed
     refresh keeps the previous snapshot.
  3. Per request: Deactivate(asOf) → ActivateForIdentity(id) → Active().

Notes
-----
  • Readers never lock.  Refresh builds the new snapshot off to the side and
    publishes it with a single atomic store.
  • Oxford commas, two spaces after periods.
*/
package campaign

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/metrics"
)

// Catalog provides read access to campaign records.
type Catalog interface {
	Campaigns(ctx context.Context) ([]Campaign, error)
}

// DefaultRefreshInterval is used when the configured interval is <= 0.
const DefaultRefreshInterval = time.Minute

// Snapshot is an immutable copy of the catalog.
type Snapshot struct {
	campaigns []Campaign
	LoadedAt  time.Time
}

// Len returns the number of campaigns in the snapshot.
func (s *Snapshot) Len() int { return len(s.campaigns) }

// Store publishes catalog snapshots.  Zero value is unusable; construct
// with NewStore.
type Store struct {
	catalog  Catalog
	interval time.Duration
	log      *zap.SugaredLogger
	snap     atomic.Pointer[Snapshot]
}

// NewStore returns a Store with an empty snapshot.
func NewStore(catalog Catalog, interval time.Duration, log *zap.SugaredLogger) *Store {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = zap.S()
	}
	s := &Store{catalog: catalog, interval: interval, log: log}
	s.snap.Store(&Snapshot{})
	return s
}

// Snapshot returns the current catalog snapshot.
func (s *Store) Snapshot() *Snapshot { return s.snap.Load() }

// Refresh reads the catalog and publishes a new snapshot.
func (s *Store) Refresh(ctx context.Context) error {
	rows, err := s.catalog.Campaigns(ctx)
	if err != nil {
		metrics.CatalogRefreshErrorsTotal.Inc()
		s.log.Warnw("campaign catalog refresh failed, keeping previous snapshot",
			"err", err,
			"campaigns", s.Snapshot().Len(),
		)
		return err
	}
	cp := make([]Campaign, len(rows))
	copy(cp, rows)
	s.snap.Store(&Snapshot{campaigns: cp, LoadedAt: time.Now().UTC()})

	metrics.CatalogRefreshTotal.Inc()
	metrics.CatalogCampaigns.Set(float64(len(cp)))
	s.log.Debugw("campaign catalog refreshed", "campaigns", len(cp))
	return nil
}

// Run refreshes the snapshot every interval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Deactivate starts a request-scoped activation view at asOf.  Every
// campaign starts inactive, then unscoped campaigns valid at asOf are
// switched on.
func (s *Store) Deactivate(asOf time.Time) *Activation {
	snap := s.Snapshot()
	a := &Activation{
		snap:   snap,
		asOf:   asOf,
		active: make([]bool, len(snap.campaigns)),
	}
	for i, c := range snap.campaigns {
		a.active[i] = !c.Scoped() && c.ValidAt(asOf)
	}
	return a
}

/*──────────────────────────── Activation ───────────────────────────────────*/

// Activation is one request's view of which campaigns are active.  It is
// not safe for concurrent mutation; the owning request is the only writer.
type Activation struct {
	snap   *Snapshot
	asOf   time.Time
	active []bool
}

// AsOf returns the instant the view was computed for.
func (a *Activation) AsOf() time.Time { return a.asOf }

// ActivateForIdentity switches on campaigns scoped to id (or its
// ancestry) that are valid at the view's instant.  Anonymous is a no-op.
func (a *Activation) ActivateForIdentity(id identity.Identity) *Activation {
	if id.IsAnonymous() {
		return a
	}
	for i, c := range a.snap.campaigns {
		if c.Scoped() && id.Matches(c.Customer()) && c.ValidAt(a.asOf) {
			a.active[i] = true
		}
	}
	return a
}

// IsActive reports whether the campaign with key is active in this view.
func (a *Activation) IsActive(key string) bool {
	for i, c := range a.snap.campaigns {
		if c.Key == key {
			return a.active[i]
		}
	}
	return false
}

// Active returns the active campaigns in catalog order.
func (a *Activation) Active() Set {
	out := make([]Campaign, 0, len(a.active))
	for i, on := range a.active {
		if on {
			out = append(out, a.snap.campaigns[i])
		}
	}
	return Set{items: out}
}

// ActiveFor is the one-shot form of the protocol, equivalent to
// ActiveCampaigns over the current snapshot.
func (s *Store) ActiveFor(asOf time.Time, id identity.Identity) Set {
	return ActiveCampaigns(s.Snapshot().campaigns, asOf, id)
}
