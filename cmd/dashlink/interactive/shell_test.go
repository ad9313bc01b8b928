package interactive

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/memstore"
	"github.com/dashlink/dashlink-go/pkg/migrate"
	"github.com/dashlink/dashlink-go/pkg/persistence"
	"github.com/dashlink/dashlink-go/pkg/service"
	"github.com/dashlink/dashlink-go/pkg/subscription"
)

var (
	boiler = entity.NewRef(entity.TypeDevice, "boiler-1")
	plant  = entity.NewRef(entity.TypeAsset, "plant-1")
)

type testShell struct {
	*Shell
	buf   *bytes.Buffer
	store *memstore.Store
	sess  *service.Session
}

func newTestShell(t *testing.T, opts Options) *testShell {
	t.Helper()
	store := memstore.New()
	store.Put(entity.Entity{ID: boiler, Name: "Boiler", Type: "heater"})
	store.Put(entity.Entity{ID: plant, Name: "Plant"})
	store.SetAttributes(boiler, entity.ScopeServer,
		entity.Attribute{Key: "firmware", Value: "2.1", LastUpdateTs: 10},
		entity.Attribute{Key: "active", Value: true, LastUpdateTs: 20},
	)

	cfg := service.DefaultConfig()
	cfg.Viewer = entity.Viewer{Authority: entity.AuthorityTenantAdmin, TenantID: "t1"}
	sess, err := service.NewSession(store.Directory(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	sess.SetAliases([]alias.Alias{
		{ID: "a-boilers", Name: "Boilers", Filter: alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "boil"}},
		{ID: "a-state", Name: "Selected", Filter: alias.StateEntity{}},
	})

	opts.Session = sess
	opts.Store = store
	if opts.Migrator == nil {
		opts.Migrator = migrate.New()
	}
	var buf bytes.Buffer
	return &testShell{Shell: newShell(opts, &buf), buf: &buf, store: store, sess: sess}
}

// run executes line and returns what it printed.
func (ts *testShell) run(t *testing.T, line string) string {
	t.Helper()
	ts.buf.Reset()
	require.True(t, ts.Exec(context.Background(), line))
	return ts.buf.String()
}

func TestShellAliasesAndResolve(t *testing.T) {
	ts := newTestShell(t, Options{})

	out := ts.run(t, "aliases")
	assert.Contains(t, out, "Aliases (2)")
	assert.Contains(t, out, "entityName")

	out = ts.run(t, "resolve boilers")
	assert.Contains(t, out, "Boilers (a-boilers): 1 entities")
	assert.Contains(t, out, "boiler-1")

	out = ts.run(t, "resolve nope")
	assert.Contains(t, out, "Alias not found: nope")

	out = ts.run(t, "check Selected")
	assert.Contains(t, out, "Selected: no entities")
}

func TestShellStateDrivesStateAlias(t *testing.T) {
	ts := newTestShell(t, Options{})

	out := ts.run(t, "state asset plant-1")
	assert.Contains(t, out, "State entity set to")

	out = ts.run(t, "resolve all")
	assert.Contains(t, out, "Selected (a-state): 1 entities [state]")
	assert.Contains(t, out, "plant-1")

	ts.run(t, "param target device boiler-1")
	out = ts.run(t, "state")
	assert.Contains(t, out, "target = ")
	require.NotNil(t, ts.sess.State().Entity)
	assert.Equal(t, plant, *ts.sess.State().Entity)
}

func TestShellFilter(t *testing.T) {
	ts := newTestShell(t, Options{})

	out := ts.run(t, `filter {"type":"entityList","entityType":"DEVICE","entityList":["boiler-1"]}`)
	assert.Contains(t, out, "1 entities")

	out = ts.run(t, `filter {"type":"bogus"}`)
	assert.Contains(t, out, "Invalid filter")
}

func TestShellAttrsReleasesSubscription(t *testing.T) {
	ts := newTestShell(t, Options{})

	out := ts.run(t, "attrs device boiler-1 server")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "firmware")
	assert.Empty(t, ts.sess.Subscriptions())

	out = ts.run(t, "attrs device boiler-1 nowhere")
	assert.Contains(t, out, "Usage: attrs")
}

func TestShellWatchPushUnwatch(t *testing.T) {
	ts := newTestShell(t, Options{})
	key := subscription.NewKey(boiler, entity.ScopeServer)

	out := ts.run(t, "watch device boiler-1 server")
	assert.Contains(t, out, "Watching "+string(key))
	assert.Equal(t, 1, ts.store.Subscribers(boiler, entity.ScopeServer))

	out = ts.run(t, "push device boiler-1 server setpoint=21 mode=eco")
	assert.Contains(t, out, "[UPDATE] "+string(key))
	assert.Contains(t, out, "setpoint")
	assert.Contains(t, out, "Published 2 keys")

	rows, err := ts.sess.Values(key)
	require.NoError(t, err)
	var setpoint any
	for _, r := range rows {
		if r.Key == "setpoint" {
			setpoint = r.Value
		}
	}
	assert.Equal(t, 21, setpoint)

	out = ts.run(t, "subs")
	assert.Contains(t, out, "Subscriptions (1)")

	out = ts.run(t, "unwatch "+string(key))
	assert.Contains(t, out, "Stopped watching")
	assert.Zero(t, ts.store.Subscribers(boiler, entity.ScopeServer))

	out = ts.run(t, "unwatch "+string(key))
	assert.Contains(t, out, "Not watching")
}

func TestShellKeys(t *testing.T) {
	ts := newTestShell(t, Options{})

	out := ts.run(t, "keys device boiler-1 server fi")
	assert.Contains(t, out, "firmware")
	assert.NotContains(t, out, "active")
}

func TestShellSaveAndRestoreSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	sessions := persistence.NewSessionStore(path)
	ts := newTestShell(t, Options{Sessions: sessions})

	ts.run(t, "state asset plant-1")
	ts.run(t, "watch device boiler-1 server")
	out := ts.run(t, "save-session")
	assert.Contains(t, out, "Session saved")

	saved, err := sessions.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, saved.Subscriptions, 1)
	assert.Equal(t, boiler, saved.Subscriptions[0].Entity)

	fresh := newTestShell(t, Options{})
	require.NoError(t, fresh.Restore(context.Background(), saved))
	assert.Equal(t, []subscription.Key{subscription.NewKey(boiler, entity.ScopeServer)}, fresh.sess.Subscriptions())
	require.NotNil(t, fresh.sess.State())
	assert.Equal(t, plant, *fresh.sess.State().Entity)
}

func TestShellMigrateWritesDashboard(t *testing.T) {
	doc := map[string]any{
		"title": "Legacy",
		"configuration": map[string]any{
			"deviceAliases": map[string]any{
				"1": map[string]any{"alias": "Boilers", "deviceFilter": map[string]any{"useFilter": true, "deviceNameFilter": "boil"}},
			},
		},
	}
	out := filepath.Join(t.TempDir(), "dash.json")
	ts := newTestShell(t, Options{Dashboard: doc})

	printed := ts.run(t, "migrate "+out)
	assert.Contains(t, printed, "Dashboard written to "+out)

	loaded, err := persistence.NewDashboardStore(out).Load()
	require.NoError(t, err)
	aliases, err := migrate.DashboardAliases(loaded)
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "Boilers", aliases[0].Name)
}

func TestShellStatusAndQuit(t *testing.T) {
	ts := newTestShell(t, Options{DashboardPath: "dash.json"})

	out := ts.run(t, "status")
	assert.Contains(t, out, "Aliases:       2")
	assert.Contains(t, out, "TENANT_ADMIN tenant=t1")
	assert.Contains(t, out, "Dashboard:     dash.json")

	out = ts.run(t, "frobnicate")
	assert.Contains(t, out, "Unknown command: frobnicate")

	assert.False(t, ts.Exec(context.Background(), "quit"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 21, parseValue("21"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "eco", parseValue("eco"))
	assert.Equal(t, "[1,2]", parseValue("[1,2]"))
}
