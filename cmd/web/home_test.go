package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/lazy"
	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/site"
)

func request(rec *lazy.Value[*site.Record], id *lazy.Value[identity.Identity]) *reqctx.Context {
	rc := reqctx.New(context.Background(), time.Now())
	reqctx.Attach(rc, reqctx.AttrSite, rec)
	reqctx.Attach(rc, reqctx.AttrCountry, lazy.Of("DE"))
	reqctx.Attach(rc, reqctx.AttrCurrency, lazy.Of("EUR"))
	reqctx.Attach(rc, reqctx.AttrIdentity, id)
	reqctx.Attach(rc, reqctx.AttrDiscounts, lazy.New(func() (campaign.Set, error) {
		if _, err := id.Get(); err != nil {
			return campaign.Set{}, err
		}
		return campaign.NewSet([]campaign.Campaign{{Key: "summer", Name: "Summer sale"}}), nil
	}))
	return rc
}

func call(rc *reqctx.Context) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	home(zap.NewNop().Sugar())(rc, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestHome_OK(t *testing.T) {
	rec := call(request(
		lazy.Of(&site.Record{Name: "Shop"}),
		lazy.Of(identity.New("acme@corp.test", "bob@corp.test")),
	))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Site      string `json:"site"`
		Country   string `json:"country"`
		Currency  string `json:"currency"`
		Customer  string `json:"customer"`
		Discounts []struct {
			Key string `json:"key"`
		} `json:"discounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Shop", out.Site)
	assert.Equal(t, "DE", out.Country)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, "acme@corp.test", out.Customer)
	require.Len(t, out.Discounts, 1)
	assert.Equal(t, "summer", out.Discounts[0].Key)
}

func TestHome_UnknownSite(t *testing.T) {
	rec := call(request(
		lazy.Fail[*site.Record](site.ErrNotFound),
		lazy.Of(identity.Anonymous()),
	))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHome_BadCredential(t *testing.T) {
	rec := call(request(
		lazy.Of(&site.Record{Name: "Shop"}),
		lazy.Fail[identity.Identity](&identity.CredentialDecodeError{Err: errors.New("bad signature")}),
	))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
