package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref  string
		path string
		key  string
		ok   bool
	}{
		{"secret/storefront#jwt_secret", "secret/storefront", "jwt_secret", true},
		{"/secret/app/db/#password", "secret/app/db", "password", true},
		{"secret/storefront", "", "", false},
		{"secret#key", "", "", false},
		{"secret/storefront#", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		path, key, err := ParseRef(tt.ref)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrBadRef, tt.ref)
			continue
		}
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.path, path)
		assert.Equal(t, tt.key, key)
	}
}

// kvServer fakes the KV-v2 read endpoint for secret/storefront.
func kvServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/storefront" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"jwt_secret": "hmac-key", "port": 3306},
				"metadata": {"created_time": "2025-01-01T00:00:00Z", "version": 1, "destroyed": false, "deletion_time": ""}
			}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, addr string) *Client {
	t.Helper()
	cfg := vault.DefaultConfig()
	cfg.Address = addr
	c, err := newClient(cfg, "test-token", zap.NewNop().Sugar())
	require.NoError(t, err)
	return c
}

func TestSecret_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, kvServer(t, &hits).URL)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	v, err := c.Secret(context.Background(), "secret/storefront#jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "hmac-key", v)

	_, err = c.Secret(context.Background(), "secret/storefront#jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(SecretTTL + time.Second)
	_, err = c.Secret(context.Background(), "secret/storefront#jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetKV_Errors(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, kvServer(t, &hits).URL)
	ctx := context.Background()

	_, err := c.GetKV(ctx, "secret/storefront", "missing", 0)
	assert.ErrorContains(t, err, "not found")

	_, err = c.GetKV(ctx, "secret/storefront", "port", 0)
	assert.ErrorContains(t, err, "not a string")

	_, err = c.GetKV(ctx, "secret/elsewhere", "key", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "", "key", 0)
	assert.Error(t, err)

	_, err = c.Secret(ctx, "no-key")
	assert.ErrorIs(t, err, ErrBadRef)
}

func TestSplitMount(t *testing.T) {
	m, rel := splitMount("secret/app/db")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "app/db", rel)

	m, rel = splitMount("secret")
	assert.Equal(t, "secret", m)
	assert.Empty(t, rel)
}
