package memstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

func dev(id, name, subType string) entity.Entity {
	return entity.Entity{ID: entity.NewRef(entity.TypeDevice, id), Name: name, Type: subType}
}

func asset(id, name, subType string) entity.Entity {
	return entity.Entity{ID: entity.NewRef(entity.TypeAsset, id), Name: name, Type: subType}
}

// ============================================================================
// Listing
// ============================================================================

func TestListPrefixCaseInsensitive(t *testing.T) {
	s := New()
	s.Put(dev("d1", "Thermostat B", "thermostat"))
	s.Put(dev("d2", "thermostat A", "thermostat"))
	s.Put(dev("d3", "Pump", "pump"))

	page, err := s.Service(entity.TypeDevice).List(context.Background(), entity.PageLink{Limit: 10, TextSearch: "THERM"}, "")
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "d2", page.Data[0].ID.ID)
	assert.Equal(t, "d1", page.Data[1].ID.ID)
	assert.False(t, page.HasNext)
}

func TestListPagesAndSubType(t *testing.T) {
	s := New()
	for i := range 5 {
		s.Put(dev(fmt.Sprintf("d%d", i), fmt.Sprintf("dev-%d", i), "meter"))
	}
	s.Put(dev("x", "dev-x", "pump"))

	svc := s.Service(entity.TypeDevice)
	page, err := svc.List(context.Background(), entity.PageLink{Limit: 2}, "meter")
	require.NoError(t, err)
	require.True(t, page.HasNext)
	require.NotNil(t, page.NextPageLink)
	assert.Equal(t, "d1", page.NextPageLink.IDOffset)

	page, err = svc.List(context.Background(), *page.NextPageLink, "meter")
	require.NoError(t, err)
	assert.Equal(t, "d2", page.Data[0].ID.ID)

	page, err = svc.List(context.Background(), entity.PageLink{Limit: 2, IDOffset: "d3"}, "meter")
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasNext)
	assert.Equal(t, 3, s.Calls(OpList))
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, err := s.Service(entity.TypeAsset).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestHookFailure(t *testing.T) {
	s := New()
	s.Put(dev("d1", "a", ""))
	boom := errors.New("boom")
	s.SetHook(func(_ context.Context, op string, ref entity.Ref) error {
		if op == OpGet && ref.ID == "d1" {
			return boom
		}
		return nil
	})

	_, err := s.Service(entity.TypeDevice).Get(context.Background(), "d1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Calls(OpGet))
}

// ============================================================================
// Relations
// ============================================================================

func relationFixture() *Store {
	s := New()
	s.Put(asset("site", "Site", "site"))
	s.Put(asset("b1", "Building 1", "building"))
	s.Put(asset("b2", "Building 2", "building"))
	s.Put(dev("t1", "Thermo 1", "thermostat"))
	s.Put(dev("t2", "Thermo 2", "thermostat"))
	s.Put(dev("p1", "Pump 1", "pump"))

	site := entity.NewRef(entity.TypeAsset, "site")
	b1 := entity.NewRef(entity.TypeAsset, "b1")
	b2 := entity.NewRef(entity.TypeAsset, "b2")
	s.Relate(site, b1, "Contains")
	s.Relate(site, b2, "Contains")
	s.Relate(b1, entity.NewRef(entity.TypeDevice, "t1"), "Contains")
	s.Relate(b2, entity.NewRef(entity.TypeDevice, "t2"), "Contains")
	s.Relate(b2, entity.NewRef(entity.TypeDevice, "p1"), "Manages")
	return s
}

func TestFindByQueryLevels(t *testing.T) {
	s := relationFixture()
	rel := s.Directory().Relations

	q := entity.RelationsQuery{Parameters: entity.RelationsSearchParameters{
		RootID: "site", RootType: entity.TypeAsset, Direction: entity.DirectionFrom, MaxLevel: 1,
	}}
	edges, err := rel.FindByQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	q.Parameters.MaxLevel = entity.UnboundedLevel
	edges, err = rel.FindByQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, edges, 5)

	q.Parameters.FetchLastLevelOnly = true
	edges, err = rel.FindByQuery(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestFindByQueryFiltersAndDirection(t *testing.T) {
	s := relationFixture()
	rel := s.Directory().Relations

	q := entity.RelationsQuery{
		Parameters: entity.RelationsSearchParameters{RootID: "site", RootType: entity.TypeAsset, Direction: entity.DirectionFrom, MaxLevel: -1},
		Filters:    []entity.RelationFilter{{RelationType: "Contains", EntityTypes: []entity.EntityType{entity.TypeDevice}}},
	}
	infos, err := rel.FindInfoByQuery(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "Thermo 1", infos[0].ToName)

	up := entity.RelationsQuery{Parameters: entity.RelationsSearchParameters{
		RootID: "t2", RootType: entity.TypeDevice, Direction: entity.DirectionTo, MaxLevel: 2,
	}}
	edges, err := rel.FindByQuery(context.Background(), up)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "b2", edges[0].Far(entity.DirectionTo).ID)
	assert.Equal(t, "site", edges[1].Far(entity.DirectionTo).ID)
}

func TestSearchBySubType(t *testing.T) {
	s := relationFixture()
	devices := s.Searcher(entity.TypeDevice)

	got, err := devices.FindByQuery(context.Background(), entity.SearchQuery{
		Parameters: entity.RelationsSearchParameters{RootID: "site", RootType: entity.TypeAsset, Direction: entity.DirectionFrom, MaxLevel: 0},
		EntityType: entity.TypeDevice,
		SubTypes:   []string{"thermostat"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID.ID)

	got, err = devices.FindByQuery(context.Background(), entity.SearchQuery{
		Parameters:   entity.RelationsSearchParameters{RootID: "site", RootType: entity.TypeAsset, Direction: entity.DirectionFrom},
		RelationType: "Manages",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID.ID)
}

// ============================================================================
// Attributes and push
// ============================================================================

func TestPublishUpdatesTableAndSubscribers(t *testing.T) {
	s := New()
	ref := entity.NewRef(entity.TypeDevice, "d1")
	s.SetAttributes(ref, entity.ScopeShared, entity.Attribute{Key: "a", Value: 1, LastUpdateTs: 1})

	var frames []wire.Frame
	h, err := s.Subscribe(ref, entity.ScopeShared, func(f wire.Frame) { frames = append(frames, f) })
	require.NoError(t, err)
	assert.Equal(t, 1, s.Subscribers(ref, entity.ScopeShared))

	s.Publish(ref, entity.ScopeShared, wire.Frame{}.Add("b", 2, "x").Add("a", 3, 9))
	require.Len(t, frames, 1)

	keys, err := s.GetKeys(context.Background(), ref, entity.ScopeShared)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	vals, err := s.GetValues(context.Background(), ref, entity.ScopeShared, []string{"b", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, entity.Attribute{Key: "b", Value: "x", LastUpdateTs: 2}, vals[0])
	assert.Equal(t, 9, vals[1].Value)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	s.Publish(ref, entity.ScopeShared, wire.Frame{}.Add("a", 4, 10))
	assert.Len(t, frames, 1)
	assert.Equal(t, 0, s.Subscribers(ref, entity.ScopeShared))
	assert.Equal(t, 1, s.Calls(OpUnsubscribe))
}

func TestCloseFromCallback(t *testing.T) {
	s := New()
	ref := entity.NewRef(entity.TypeDevice, "d1")

	var h remote.Handle
	calls := 0
	h, err := s.Subscribe(ref, entity.ScopeClient, func(wire.Frame) {
		calls++
		_ = h.Close()
	})
	require.NoError(t, err)

	s.Publish(ref, entity.ScopeClient, wire.Frame{}.Add("k", 1, 1))
	s.Publish(ref, entity.ScopeClient, wire.Frame{}.Add("k", 2, 2))
	assert.Equal(t, 1, calls)
}

// ============================================================================
// Fixtures
// ============================================================================

const fixtureYAML = `
entities:
  - id: {entityType: ASSET, id: b1}
    name: Building 1
    type: building
  - id: {entityType: DEVICE, id: t1}
    name: Thermo 1
    type: thermostat
    additionalInfo:
      description: lobby
relations:
  - from: {entityType: ASSET, id: b1}
    to: {entityType: DEVICE, id: t1}
    type: Contains
attributes:
  - entity: {entityType: DEVICE, id: t1}
    scope: SHARED_SCOPE
    values:
      - {key: target, value: 21, lastUpdateTs: 1700000000000}
`

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0644))

	s, err := NewFromFixture(path)
	require.NoError(t, err)

	e, err := s.Service(entity.TypeDevice).Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "lobby", entity.InfoFromEntity(e).Description)

	vals, err := s.GetValues(context.Background(), e.ID, entity.ScopeShared, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, int64(1700000000000), vals[0].LastUpdateTs)
}

func TestParseFixtureErrors(t *testing.T) {
	_, err := ParseFixture([]byte("entities: [\n"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), "failed to parse YAML")

	_, err = ParseFixture([]byte(`
entities:
  - id: {entityType: DEVICE, id: t1}
relations:
  - from: {entityType: DEVICE, id: t1}
    to: {entityType: DEVICE, id: ghost}
    type: Contains
`))
	assert.ErrorAs(t, err, &le)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
