package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/storefront/internal/reqctx"
)

func TestRegisterLookup(t *testing.T) {
	Register("/test/echo", func(rc *reqctx.Context, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rc.Host))
	})

	assert.NotNil(t, Lookup("/test/echo"))
	assert.Nil(t, Lookup("/test/missing"))
	assert.Contains(t, Paths(), "/test/echo")

	assert.Panics(t, func() {
		Register("/test/echo", func(*reqctx.Context, http.ResponseWriter, *http.Request) {})
	})
}

func TestHTTP(t *testing.T) {
	h := HTTP(func(rc *reqctx.Context, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rc.Host))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rc := reqctx.New(context.Background(), time.Now())
	rc.Host = "shop.example"
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(reqctx.WithContext(r.Context(), rc))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop.example", rec.Body.String())
}
