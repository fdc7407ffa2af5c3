package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/reqctx"
)

type catalog []campaign.Campaign

func (c catalog) Campaigns(context.Context) ([]campaign.Campaign, error) { return c, nil }

type dropAll struct{ calls int }

func (d *dropAll) FilterDiscounts(context.Context, campaign.Set, reqctx.Provenance, identity.Identity) campaign.Set {
	d.calls++
	return campaign.Set{}
}

func store(t *testing.T) *campaign.Store {
	t.Helper()
	acme := "acme@corp.test"
	s := campaign.NewStore(catalog{
		{Key: "public"},
		{Key: "acme", CustomerRef: &acme},
	}, time.Minute, zap.NewNop().Sugar())
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(store(t), nil)
	now := time.Now()

	got, err := r.Resolve(context.Background(), now, nil, reqctx.Provenance{})
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, got.Keys())

	got, err = r.Resolve(context.Background(), now, func() (identity.Identity, error) {
		return identity.New("acme@corp.test", "bob@corp.test"), nil
	}, reqctx.Provenance{})
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "acme"}, got.Keys())
}

func TestResolver_IdentityFailurePropagates(t *testing.T) {
	f := &dropAll{}
	r := NewResolver(store(t), f)
	decodeErr := &identity.CredentialDecodeError{Err: errors.New("bad token")}

	_, err := r.Resolve(context.Background(), time.Now(), func() (identity.Identity, error) {
		return identity.Identity{}, decodeErr
	}, reqctx.Provenance{})
	assert.ErrorIs(t, err, decodeErr)
	assert.Zero(t, f.calls)
}

func TestResolver_FilterApplied(t *testing.T) {
	f := &dropAll{}
	r := NewResolver(store(t), f)

	got, err := r.Resolve(context.Background(), time.Now(), nil, reqctx.Provenance{})
	require.NoError(t, err)
	assert.Zero(t, got.Len())
	assert.Equal(t, 1, f.calls)
}
