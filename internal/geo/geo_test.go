package geo

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeLocator map[string]string

func (f fakeLocator) Lookup(ip net.IP) (string, bool) {
	iso, ok := f[ip.String()]
	return iso, ok
}

func TestResolver_Hit(t *testing.T) {
	r := NewResolver(fakeLocator{"81.2.69.142": "gb"}, "US", zap.NewNop().Sugar())
	assert.Equal(t, "GB", r.Resolve(net.ParseIP("81.2.69.142")))
}

func TestResolver_MissFallsBackToDefault(t *testing.T) {
	r := NewResolver(fakeLocator{}, "pl", zap.NewNop().Sugar())

	assert.Equal(t, "PL", r.Resolve(net.ParseIP("10.0.0.1")), "unroutable address")
	assert.Equal(t, "PL", r.Resolve(nil), "absent address")
}

func TestResolver_NilLocator(t *testing.T) {
	r := NewResolver(nil, "US", nil)
	assert.Equal(t, "US", r.Resolve(net.ParseIP("8.8.8.8")))
}

func TestMaxMindLocator_NilSafe(t *testing.T) {
	var m *MaxMindLocator
	iso, ok := m.Lookup(net.ParseIP("8.8.8.8"))
	assert.False(t, ok)
	assert.Empty(t, iso)
	assert.NoError(t, m.Close())
}

func TestOpenMaxMind_MissingFile(t *testing.T) {
	_, err := OpenMaxMind("/nonexistent/GeoLite2-Country.mmdb", 0)
	assert.Error(t, err)
}
