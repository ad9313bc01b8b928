package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/memstore"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/resolver"
	"github.com/dashlink/dashlink-go/pkg/subscription"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

var (
	tenant = entity.NewRef(entity.TypeTenant, "t1")
	pumpA  = entity.NewRef(entity.TypeDevice, "pump-a")
	pumpB  = entity.NewRef(entity.TypeDevice, "pump-b")
	meter  = entity.NewRef(entity.TypeDevice, "meter-1")
)

var (
	aliasPumps  = alias.Alias{ID: "a-pumps", Name: "Pumps", ResolveMultiple: true, Filter: alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "pump"}}
	aliasState  = alias.Alias{ID: "a-state", Name: "Selected", Filter: alias.StateEntity{}}
	aliasBroken = alias.Alias{ID: "a-broken", Name: "Broken", Filter: alias.SingleEntity{Entity: entity.NewRef(entity.TypeDevice, "gone")}}
	aliasNone   = alias.Alias{ID: "a-none", Name: "Nothing", Filter: alias.EntityName{EntityType: entity.TypeAsset, NamePrefix: "zzz"}}
)

func newTestStore() *memstore.Store {
	s := memstore.New()
	s.Put(entity.Entity{ID: tenant, Name: "Tenant"})
	s.Put(entity.Entity{ID: pumpA, Name: "Pump A", Type: "pump"})
	s.Put(entity.Entity{ID: pumpB, Name: "Pump B", Type: "pump"})
	s.Put(entity.Entity{ID: meter, Name: "Meter", Type: "meter"})
	s.SetAttributes(pumpA, entity.ScopeServer,
		entity.Attribute{Key: "ssid", Value: "plant", LastUpdateTs: 100},
		entity.Attribute{Key: "firmware", Value: "1.2", LastUpdateTs: 50},
	)
	s.SetAttributes(tenant, entity.ScopeServer, entity.Attribute{Key: "region", Value: "eu", LastUpdateTs: 1})
	return s
}

func newTestSession(t *testing.T, store *memstore.Store) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Viewer = entity.Viewer{Authority: entity.AuthorityTenantAdmin, TenantID: "t1"}
	sess, err := NewSession(store.Directory(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	sess.SetAliases([]alias.Alias{aliasPumps, aliasState, aliasBroken, aliasNone})
	return sess
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.Viewer.Authority = ""
	_, err = NewSession(memstore.New().Directory(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.PackSize = -1
	_, err = NewSession(memstore.New().Directory(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSessionAliases(t *testing.T) {
	sess := newTestSession(t, newTestStore())

	ids := []string{}
	for _, a := range sess.Aliases() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a-pumps", "a-state", "a-broken", "a-none"}, ids)

	a, ok := sess.FindAlias("pumps")
	require.True(t, ok)
	assert.Equal(t, "a-pumps", a.ID)

	a, ok = sess.FindAlias("a-state")
	require.True(t, ok)
	assert.Equal(t, "Selected", a.Name)

	_, ok = sess.FindAlias("missing")
	assert.False(t, ok)
}

func TestSessionResolveAlias(t *testing.T) {
	sess := newTestSession(t, newTestStore())
	ctx := context.Background()

	info, err := sess.ResolveAlias(ctx, "a-pumps")
	require.NoError(t, err)
	require.Len(t, info.ResolvedEntities, 2)
	assert.True(t, info.ResolveMultiple)
	require.NotNil(t, info.CurrentEntity)
	assert.Equal(t, "Pump A", info.CurrentEntity.Name)

	_, err = sess.ResolveAlias(ctx, "nope")
	assert.ErrorIs(t, err, ErrAliasNotFound)

	_, err = sess.ResolveAlias(ctx, "a-broken")
	var remoteErr *resolver.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
}

func TestSessionResolveStateAlias(t *testing.T) {
	sess := newTestSession(t, newTestStore())
	ctx := context.Background()

	info, err := sess.ResolveAlias(ctx, "a-state")
	require.NoError(t, err)
	assert.True(t, info.StateEntity)
	assert.Empty(t, info.ResolvedEntities)
	assert.Nil(t, info.CurrentEntity)

	sess.SetState((&alias.StateParams{}).WithEntity(meter))
	info, err = sess.ResolveAlias(ctx, "a-state")
	require.NoError(t, err)
	require.Len(t, info.ResolvedEntities, 1)
	assert.Equal(t, "meter-1", info.ResolvedEntities[0].ID)
	assert.Equal(t, meter, *sess.Status().State.Entity)
}

func TestSessionResolveAliases(t *testing.T) {
	sess := newTestSession(t, newTestStore())

	infos, err := sess.ResolveAliases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "Broken"`)
	assert.Len(t, infos, 3)
	assert.Contains(t, infos, "a-none")
	assert.NotContains(t, infos, "a-broken")
}

func TestSessionResolveAliasFilter(t *testing.T) {
	sess := newTestSession(t, newTestStore())
	ctx := context.Background()

	res, err := sess.ResolveAliasFilter(ctx, alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "pump"}, 1, true)
	require.NoError(t, err)
	assert.Len(t, res.Entities, 1)

	_, err = sess.ResolveAliasFilter(ctx, alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "zzz"}, resolver.AllItems, true)
	assert.ErrorIs(t, err, resolver.ErrEmptyResult)

	res, err = sess.ResolveAliasFilter(ctx, alias.SingleEntity{Entity: entity.NewRef(entity.TypeCurrentTenant, "")}, resolver.AllItems, false)
	require.NoError(t, err)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "t1", res.Entities[0].ID)
}

func TestSessionCheckAlias(t *testing.T) {
	sess := newTestSession(t, newTestStore())
	ctx := context.Background()

	assert.True(t, sess.CheckAlias(ctx, "a-pumps"))
	assert.True(t, sess.CheckAlias(ctx, "a-state"))
	assert.False(t, sess.CheckAlias(ctx, "a-none"))
	assert.False(t, sess.CheckAlias(ctx, "a-broken"))
	assert.False(t, sess.CheckAlias(ctx, "unknown"))
}

// pageRecorder collects pushed pages.
type pageRecorder struct {
	mu    sync.Mutex
	pages []subscription.Page
}

func (r *pageRecorder) record(p subscription.Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
}

func (r *pageRecorder) last() (subscription.Page, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return subscription.Page{}, 0
	}
	return r.pages[len(r.pages)-1], len(r.pages)
}

func TestSessionGetEntityAttributes(t *testing.T) {
	store := newTestStore()
	sess := newTestSession(t, store)
	ctx := context.Background()

	rec := &pageRecorder{}
	page, w, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{Order: subscription.OrderKey}, rec.record)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "firmware", page.Data[0].Key)
	assert.Equal(t, "ssid", page.Data[1].Key)
	assert.Equal(t, subscription.NewKey(pumpA, entity.ScopeServer), w.Key)
	assert.Equal(t, 1, store.Subscribers(pumpA, entity.ScopeServer))

	store.Publish(pumpA, entity.ScopeServer, wire.Frame{}.Add("ssid", 200, "office").Add("temp", 200, 21))
	pushed, n := rec.last()
	require.Equal(t, 1, n)
	require.Len(t, pushed.Data, 3)
	assert.Equal(t, entity.Attribute{Key: "ssid", Value: "office", LastUpdateTs: 200}, pushed.Data[1])

	values, err := sess.Values(w.Key)
	require.NoError(t, err)
	assert.Len(t, values, 3)

	require.NoError(t, sess.Unwatch(w.ID))
	store.Publish(pumpA, entity.ScopeServer, wire.Frame{}.Add("temp", 300, 22))
	_, n = rec.last()
	assert.Equal(t, 1, n)

	require.NoError(t, sess.UnsubscribeForEntityAttributes(w.Key))
	assert.Equal(t, 0, store.Subscribers(pumpA, entity.ScopeServer))
	assert.Empty(t, sess.Subscriptions())
}

func TestSessionSharedSubscription(t *testing.T) {
	store := newTestStore()
	sess := newTestSession(t, store)
	ctx := context.Background()

	_, w1, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{}, nil)
	require.NoError(t, err)
	_, w2, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{Search: "ss"}, nil)
	require.NoError(t, err)

	assert.Equal(t, w1.Key, w2.Key)
	assert.NotEqual(t, w1.ID, w2.ID)
	assert.Equal(t, 1, store.Subscribers(pumpA, entity.ScopeServer))
	assert.Equal(t, 1, store.Calls(memstore.OpGetValues))
	assert.Equal(t, []subscription.Key{w1.Key}, sess.Subscriptions())

	require.NoError(t, sess.UnsubscribeForEntityAttributes(w1.Key))
	assert.Equal(t, 1, store.Subscribers(pumpA, entity.ScopeServer))
	require.NoError(t, sess.UnsubscribeForEntityAttributes(w2.Key))
	assert.Equal(t, 0, store.Subscribers(pumpA, entity.ScopeServer))

	assert.ErrorIs(t, sess.UnsubscribeForEntityAttributes(w2.Key), subscription.ErrNotSubscribed)
}

func TestSessionAttributesOfPlaceholder(t *testing.T) {
	sess := newTestSession(t, newTestStore())

	page, w, err := sess.GetEntityAttributes(context.Background(), entity.NewRef(entity.TypeCurrentTenant, ""), entity.ScopeServer, subscription.Query{}, nil)
	require.NoError(t, err)
	assert.Equal(t, subscription.NewKey(tenant, entity.ScopeServer), w.Key)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "eu", page.Data[0].Value)

	_, _, err = sess.GetEntityAttributes(context.Background(), entity.Ref{EntityType: entity.TypeDevice}, entity.ScopeServer, subscription.Query{}, nil)
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestSessionGetEntityAttributesCancelled(t *testing.T) {
	store := newTestStore()
	store.SetHook(memstore.Delay(time.Second, memstore.OpGetValues))
	sess := newTestSession(t, store)

	// The first caller primes; the second waits and gives up.
	go sess.GetEntityAttributes(context.Background(), pumpA, entity.ScopeServer, subscription.Query{}, nil)
	require.Eventually(t, func() bool { return store.Calls(memstore.OpGetValues) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionGetEntityAttributesLogsFailedRelease(t *testing.T) {
	store := newTestStore()
	store.SetHook(memstore.Delay(time.Second, memstore.OpGetValues))

	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.Viewer = entity.Viewer{Authority: entity.AuthorityTenantAdmin, TenantID: "t1"}
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sess, err := NewSession(store.Directory(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		_, _, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{}, nil)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return store.Calls(memstore.OpGetValues) == 1 }, time.Second, 5*time.Millisecond)

	// The subscription is released elsewhere while the caller waits.
	require.NoError(t, sess.UnsubscribeForEntityAttributes(subscription.NewKey(pumpA, entity.ScopeServer)))

	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
	assert.Contains(t, logs.String(), "release after failed fetch")
	assert.Empty(t, sess.Subscriptions())
}

func TestSessionGetEntityKeys(t *testing.T) {
	sess := newTestSession(t, newTestStore())
	ctx := context.Background()

	keys, err := sess.GetEntityKeys(ctx, pumpA, entity.ScopeServer, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ssid", "firmware"}, keys)

	keys, err = sess.GetEntityKeys(ctx, pumpA, entity.ScopeServer, "FIRM")
	require.NoError(t, err)
	assert.Equal(t, []string{"firmware"}, keys)

	keys, err = sess.GetEntityKeys(ctx, pumpB, entity.ScopeServer, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSessionWithoutBackendServices(t *testing.T) {
	sess, err := NewSession(&remote.Directory{}, DefaultConfig())
	require.NoError(t, err)

	_, err = sess.GetEntityKeys(context.Background(), pumpA, entity.ScopeServer, "")
	assert.ErrorIs(t, err, ErrNoAttributes)

	_, err = sess.SubscribeForEntityAttributes(pumpA, entity.ScopeServer)
	assert.ErrorIs(t, err, remote.ErrNoPushChannel)
}

func TestSessionClose(t *testing.T) {
	store := newTestStore()
	sess := newTestSession(t, store)
	ctx := context.Background()

	_, _, err := sess.GetEntityAttributes(ctx, pumpA, entity.ScopeServer, subscription.Query{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Status().Subscriptions)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 0, store.Subscribers(pumpA, entity.ScopeServer))

	_, err = sess.ResolveAlias(ctx, "a-pumps")
	assert.True(t, errors.Is(err, ErrSessionClosed))
	_, err = sess.SubscribeForEntityAttributes(pumpA, entity.ScopeServer)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, sess.CheckAlias(ctx, "a-pumps"))
}
