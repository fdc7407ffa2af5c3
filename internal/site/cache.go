// internal/site/cache.go
//
// Lazy, evicting site cache.
//
// Context
// -------
// Get(host) answers from a sync.Map when it can.  On a miss, concurrent
// callers for the same host collapse onto one SQL query via singleflight.
// Unknown hosts are not cached; they return ErrNotFound every time so a
// newly-created site shows up without a restart.
//
// The evictor (evictor.go) drops entries idle longer than idleTTL and
// trims least-recently-used entries when the map exceeds maxEntries.
//
// Notes
// -----
//   - Close stops the evictor.  Calling Get after Close still works; the
//     cache simply stops shrinking.
//   - Oxford commas, two spaces after periods.
package site

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/storefront/internal/metrics"
)

// Static defaults.  Override via config if desired.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 100
	EvictInterval = 5 * time.Minute
)

// ErrNotFound is returned when a host is not present in the site table.
var ErrNotFound = errors.New("site not found")

// Loader fetches one site by host.  ByHost bound to a *sqlx.DB is the
// production loader.
type Loader func(ctx context.Context, host string) (*Record, error)

// SQLLoader adapts ByHost to Loader.
func SQLLoader(db *sqlx.DB) Loader {
	return func(ctx context.Context, host string) (*Record, error) {
		return ByHost(ctx, db, host)
	}
}

type entry struct {
	rec      *Record
	lastSeen int64 // UnixNano
}

// Cache lazily loads sites, stores them in a sync.Map, and evicts them on
// idle TTL or LRU pressure.
type Cache struct {
	load        Loader
	sfg         singleflight.Group
	m           sync.Map
	size        atomic.Int64
	idleTTL     time.Duration
	maxEntries  int
	log         *zap.SugaredLogger
	evictTicker *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
}

// New constructs a Cache and starts the background evictor.
func New(load Loader, idleTTL time.Duration, maxEntries int, log *zap.SugaredLogger) *Cache {
	if log == nil {
		log = zap.S()
	}
	c := &Cache{
		load:       load,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		log:        log,
		stop:       make(chan struct{}),
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Record for host, loading it on demand.
func (c *Cache) Get(ctx context.Context, host string) (*Record, error) {
	host = StripPort(host)
	if rec, ok := c.touch(host); ok {
		return rec, nil
	}

	v, err, _ := c.sfg.Do(host, func() (any, error) {
		// Double-check after singleflight barrier.
		if rec, ok := c.touch(host); ok {
			return rec, nil
		}
		rec, err := c.load(ctx, host)
		if err != nil {
			metrics.SiteLoadErrorsTotal.Inc()
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			c.log.Errorw("site load failed", "host", host, "err", err)
			return nil, err
		}
		c.m.Store(host, &entry{rec: rec, lastSeen: time.Now().UnixNano()})
		c.size.Add(1)
		metrics.SiteLoadTotal.Inc()
		metrics.ActiveSites.Inc()
		c.log.Infow("site online", "host", host, "site_id", rec.ID)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// Len reports the number of cached sites.
func (c *Cache) Len() int { return int(c.size.Load()) }

// Close stops the evictor.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.stop)
	})
}

func (c *Cache) touch(host string) (*Record, bool) {
	v, ok := c.m.Load(host)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
	return ent.rec, true
}
