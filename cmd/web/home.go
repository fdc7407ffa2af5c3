package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/module"
	"github.com/yanizio/storefront/internal/pipeline"
	"github.com/yanizio/storefront/internal/reqctx"
	"github.com/yanizio/storefront/internal/site"
)

// summary is the storefront landing payload.
type summary struct {
	Site      string       `json:"site"`
	Country   string       `json:"country"`
	Currency  string       `json:"currency"`
	Customer  string       `json:"customer,omitempty"`
	Discounts campaign.Set `json:"discounts"`
}

// home reports what the pipeline resolved for this request.  Unknown
// hosts get 404 and a rejected credential gets 401.
func home(log *zap.SugaredLogger) module.Handler {
	return func(rc *reqctx.Context, w http.ResponseWriter, r *http.Request) {
		rec, err := pipeline.Site(rc)
		switch {
		case errors.Is(err, site.ErrNotFound):
			http.NotFound(w, r)
			return
		case err != nil:
			log.Errorw("site lookup failed", "host", rc.Host, "err", err)
			http.Error(w, "site lookup failed", http.StatusInternalServerError)
			return
		}

		set, err := pipeline.Discounts(rc)
		var decodeErr *identity.CredentialDecodeError
		switch {
		case errors.As(err, &decodeErr):
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		case err != nil:
			log.Errorw("discount resolution failed", "host", rc.Host, "err", err)
			http.Error(w, "discount resolution failed", http.StatusInternalServerError)
			return
		}

		out := summary{Site: rec.Name, Discounts: set}
		out.Country, _ = pipeline.Country(rc)
		out.Currency, _ = pipeline.Currency(rc)
		if id, err := pipeline.Identity(rc); err == nil && !id.IsAnonymous() {
			out.Customer = id.Ref
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
