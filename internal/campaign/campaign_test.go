package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/identity"
)

var (
	t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 = time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func fixture() []Campaign {
	return []Campaign{
		{Key: "summer", Name: "Summer sale", StartAt: ptr(t0), EndAt: ptr(t1)},
		{Key: "acme-only", Name: "ACME staff", StartAt: ptr(t0), EndAt: ptr(t1), CustomerRef: ptr("acme@corp.test")},
	}
}

type staticCatalog struct {
	rows []Campaign
	err  error
}

func (s *staticCatalog) Campaigns(context.Context) ([]Campaign, error) { return s.rows, s.err }

func newStore(t *testing.T, rows []Campaign) *Store {
	t.Helper()
	s := NewStore(&staticCatalog{rows: rows}, 0, zap.NewNop().Sugar())
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

/*──────────────────────────── pure query ───────────────────────────────────*/

func TestActiveCampaigns_Properties(t *testing.T) {
	cat := fixture()
	acme := identity.New("acme@corp.test", "bob@corp.test")
	mid := t0.Add(48 * time.Hour)

	assert.Equal(t, []string{"summer", "acme-only"}, ActiveCampaigns(cat, mid, acme).Keys())
	assert.Equal(t, []string{"summer"}, ActiveCampaigns(cat, mid, identity.Anonymous()).Keys())
	assert.Zero(t, ActiveCampaigns(cat, t0.Add(-time.Second), acme).Len())
	assert.Zero(t, ActiveCampaigns(cat, t1.Add(time.Second), acme).Len())

	// Window bounds are inclusive.
	assert.Equal(t, 2, ActiveCampaigns(cat, t0, acme).Len())
	assert.Equal(t, 2, ActiveCampaigns(cat, t1, acme).Len())
}

func TestActiveCampaigns_OpenEndedAndAncestry(t *testing.T) {
	cat := []Campaign{
		{Key: "forever"},
		{Key: "from-june", StartAt: ptr(t0)},
		{Key: "until-june", EndAt: ptr(t1)},
		{Key: "holding", CustomerRef: ptr("holding@corp.test")},
		{Key: "empty-scope", CustomerRef: ptr("")},
	}
	child := identity.New("acme@corp.test", "", "holding@corp.test")

	got := ActiveCampaigns(cat, t1.Add(time.Hour), child)
	assert.Equal(t, []string{"forever", "from-june", "holding", "empty-scope"}, got.Keys())
}

/*──────────────────────────── two-phase protocol ───────────────────────────*/

func TestActivation_ResetThenActivate(t *testing.T) {
	s := newStore(t, fixture())
	mid := t0.Add(time.Hour)

	a := s.Deactivate(mid)
	assert.True(t, a.IsActive("summer"))
	assert.False(t, a.IsActive("acme-only"))
	assert.Equal(t, mid, a.AsOf())

	a.ActivateForIdentity(identity.New("acme@corp.test", ""))
	assert.True(t, a.IsActive("acme-only"))
	assert.Equal(t, []string{"summer", "acme-only"}, a.Active().Keys())

	// Anonymous never activates scoped campaigns.
	b := s.Deactivate(mid).ActivateForIdentity(identity.Anonymous())
	assert.Equal(t, []string{"summer"}, b.Active().Keys())

	// Outside the window nothing is active, even for the scoped identity.
	c := s.Deactivate(t1.Add(time.Hour)).ActivateForIdentity(identity.New("acme@corp.test", ""))
	assert.Zero(t, c.Active().Len())
	assert.False(t, c.IsActive("missing"))
}

func TestActivation_ConcurrentRequestsDoNotInterfere(t *testing.T) {
	s := newStore(t, fixture())
	mid := t0.Add(time.Hour)

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			got := s.Deactivate(mid).ActivateForIdentity(identity.New("acme@corp.test", "")).Active()
			if got.Len() != 2 {
				errs <- "acme view lost its scoped campaign"
			}
		}()
		go func() {
			defer wg.Done()
			got := s.Deactivate(mid).ActivateForIdentity(identity.Anonymous()).Active()
			if got.Len() != 1 {
				errs <- "anonymous view saw a scoped campaign"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestStore_ActiveForMatchesProtocol(t *testing.T) {
	s := newStore(t, fixture())
	mid := t0.Add(time.Hour)
	id := identity.New("acme@corp.test", "")

	assert.Equal(t,
		s.Deactivate(mid).ActivateForIdentity(id).Active().Keys(),
		s.ActiveFor(mid, id).Keys())
}

/*──────────────────────────── refresh ──────────────────────────────────────*/

func TestStore_RefreshFailureKeepsSnapshot(t *testing.T) {
	cat := &staticCatalog{rows: fixture()}
	s := NewStore(cat, time.Hour, zap.NewNop().Sugar())
	require.NoError(t, s.Refresh(context.Background()))
	first := s.Snapshot()
	assert.Equal(t, 2, first.Len())

	cat.err = errors.New("db down")
	assert.Error(t, s.Refresh(context.Background()))
	assert.Same(t, first, s.Snapshot())
}

func TestStore_SnapshotIsolatedFromCatalogSlice(t *testing.T) {
	rows := fixture()
	s := newStore(t, rows)
	rows[0].Key = "mutated"
	assert.True(t, s.ActiveFor(t0, identity.Anonymous()).Contains("summer"))
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s := NewStore(&staticCatalog{rows: fixture()}, 5*time.Millisecond, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Snapshot().Len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

/*──────────────────────────── Set ──────────────────────────────────────────*/

func TestSet_IsReadOnly(t *testing.T) {
	set := NewSet(fixture())
	items := set.Items()
	items[0].Key = "mutated"
	assert.Equal(t, []string{"summer", "acme-only"}, set.Keys())

	only := set.Filter(func(c Campaign) bool { return !c.Scoped() })
	assert.Equal(t, []string{"summer"}, only.Keys())
	assert.Equal(t, 2, set.Len())
}

func TestSet_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(NewSet(fixture()[:1]))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"summer","name":"Summer sale","start_at":"2025-06-01T00:00:00Z","end_at":"2025-06-30T23:59:59Z"}]`, string(raw))

	raw, err = json.Marshal(Set{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

/*──────────────────────────── SQL catalog ──────────────────────────────────*/

func TestSQLCatalog_Campaigns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT sale_key, name, start_date, end_date, customer_email FROM discount_sale`)).
		WillReturnRows(sqlmock.NewRows([]string{"sale_key", "name", "start_date", "end_date", "customer_email"}).
			AddRow("summer", "Summer sale", t0, t1, nil).
			AddRow("acme-only", "ACME staff", t0, nil, "acme@corp.test"))

	cat := &SQLCatalog{DB: sqlx.NewDb(db, "sqlmock")}
	got, err := cat.Campaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.False(t, got[0].Scoped())
	assert.True(t, got[0].StartAt.Equal(t0))
	assert.Nil(t, got[1].EndAt)
	assert.Equal(t, "acme@corp.test", got[1].Customer())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
