// internal/geo/geo.go
//
// Client address → country resolution.
//
/*
Context
--------
The pipeline attaches a lazy "country" attribute backed by Resolver.  The
resolver never fails.  An absent address, a lookup miss, or a closed
database all collapse to the configured default country, because absence
is a value here, not an exception.

The concrete Locator is a MaxMind GeoLite2 reader.  Look-ups are memoized
in a bounded LRU keyed by the textual address, so a burst of requests from
one client hits the mmdb file once.

Notes
-----
  • geoip2.Reader is safe for concurrent reads, which is all we perform.
  • Misses bump geo_lookup_miss_total and log at DEBUG.
  • Oxford commas, two spaces after periods.
*/
package geo

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/metrics"
)

// Locator maps an address to an ISO 3166-1 alpha-2 country code.
type Locator interface {
	Lookup(ip net.IP) (country string, found bool)
}

/*──────────────────────────── MaxMind locator ──────────────────────────────*/

// DefaultCacheSize bounds the per-process lookup memo.
const DefaultCacheSize = 4096

// MaxMindLocator reads a GeoLite2 Country or City database.
type MaxMindLocator struct {
	reader *geoip2.Reader
	memo   *cache.LRU[string, string]
}

// OpenMaxMind opens the database at path.  cacheSize < 1 uses
// DefaultCacheSize.
func OpenMaxMind(path string, cacheSize int) (*MaxMindLocator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	return &MaxMindLocator{reader: r, memo: cache.New[string, string](cacheSize)}, nil
}

// Lookup returns the country ISO code for ip.  An empty code is cached too
// so repeated misses stay cheap.
func (m *MaxMindLocator) Lookup(ip net.IP) (string, bool) {
	if m == nil || m.reader == nil || ip == nil {
		return "", false
	}
	key := ip.String()
	if iso, ok := m.memo.Get(key); ok {
		return iso, iso != ""
	}
	var iso string
	if rec, err := m.reader.Country(ip); err == nil {
		iso = rec.Country.IsoCode
	}
	m.memo.Add(key, iso)
	return iso, iso != ""
}

// Close releases the mmdb handle.
func (m *MaxMindLocator) Close() error {
	if m == nil || m.reader == nil {
		return nil
	}
	return m.reader.Close()
}

/*──────────────────────────── resolver ─────────────────────────────────────*/

// Resolver turns an address into a country, falling back to Default.
type Resolver struct {
	Locator Locator // may be nil: every request gets Default
	Default string
	Log     *zap.SugaredLogger
}

// NewResolver returns a Resolver.  defaultCountry is upper-cased.
func NewResolver(loc Locator, defaultCountry string, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.S()
	}
	return &Resolver{
		Locator: loc,
		Default: strings.ToUpper(defaultCountry),
		Log:     log,
	}
}

// Resolve returns the country for ip.  It never fails.
func (r *Resolver) Resolve(ip net.IP) string {
	if ip != nil && r.Locator != nil {
		if iso, ok := r.Locator.Lookup(ip); ok && iso != "" {
			return strings.ToUpper(iso)
		}
	}
	metrics.GeoLookupMissTotal.Inc()
	r.Log.Debugw("geo lookup miss, using default country",
		"ip", ip,
		"country", r.Default,
	)
	return r.Default
}
