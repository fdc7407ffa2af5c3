package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/storefront/internal/lazy"
	"github.com/yanizio/storefront/internal/module"
	"github.com/yanizio/storefront/internal/reqctx"
)

type ids []string

func (i ids) IDs() []string { return i }

func newContext() *reqctx.Context {
	rc := reqctx.New(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rc.Addr = net.ParseIP("192.0.2.1")
	rc.Host = "shop.example"
	rc.Credential = "JWT abc"
	rc.Provenance = reqctx.Provenance{Referer: "http://localhost:3000/cart"}
	reqctx.Attach(rc, reqctx.AttrCountry, lazy.Of("US"))
	reqctx.Attach(rc, reqctx.AttrIdentity, lazy.New(func() (string, error) {
		return "", errors.New("credential rejected")
	}))
	reqctx.Attach(rc, reqctx.AttrPlugins, lazy.Of(ids{"filteredsales"}))
	return rc
}

func serve(t *testing.T, rc *reqctx.Context, url string) dump {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rc, rec, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out dump
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_EvaluatesAll(t *testing.T) {
	out := serve(t, newContext(), Path)

	assert.Equal(t, "192.0.2.1", out.IP)
	assert.Equal(t, "shop.example", out.Host)
	assert.True(t, out.Credential)
	assert.Equal(t, "localhost:3000", out.Provenance)
	assert.Equal(t, []string{reqctx.AttrCountry, reqctx.AttrIdentity, reqctx.AttrPlugins}, out.Order)

	assert.Equal(t, "US", out.Attributes[reqctx.AttrCountry].Value)
	assert.Equal(t, "credential rejected", out.Attributes[reqctx.AttrIdentity].Error)
	assert.Equal(t, []any{"filteredsales"}, out.Attributes[reqctx.AttrPlugins].Value)
}

func TestHandler_PeekDoesNotEvaluate(t *testing.T) {
	rc := newContext()
	_, _ = reqctx.Get[string](rc, reqctx.AttrCountry)

	out := serve(t, rc, Path+"?peek=1")
	assert.True(t, out.Attributes[reqctx.AttrCountry].Evaluated)
	assert.False(t, out.Attributes[reqctx.AttrIdentity].Evaluated)
	assert.False(t, rc.Evaluated(reqctx.AttrIdentity))
}

func TestRegistered(t *testing.T) {
	assert.NotNil(t, module.Lookup(Path))
}
