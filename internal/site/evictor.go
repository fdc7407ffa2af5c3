// evictor.go houses the eviction loop for Cache.  Every EvictInterval it
// calls evictOnce, which removes:
//
//   - sites idle longer than idleTTL
//   - least-recently-used sites when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package site

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/yanizio/storefront/internal/metrics"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.evictTicker.C:
			c.evictOnce(time.Now())
		}
	}
}

func (c *Cache) evictOnce(now time.Time) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now.UnixNano() - atomic.LoadInt64(&ent.lastSeen))
		if c.idleTTL > 0 && idle > c.idleTTL {
			c.drop(key)
			c.log.Infow("site evicted", "host", key, "idle", idle.Truncate(time.Second))
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if c.maxEntries > 0 && count > c.maxEntries {
		type kv struct {
			key string
			at  int64
		}
		var all []kv
		c.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-c.maxEntries; i++ {
			c.drop(all[i].key)
			c.log.Infow("site evicted (LRU pressure)", "host", all[i].key)
		}
	}
}

func (c *Cache) drop(key any) {
	if _, loaded := c.m.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		metrics.SiteEvictTotal.Inc()
		metrics.ActiveSites.Dec()
	}
}
