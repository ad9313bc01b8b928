package migrate

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
)

// sequentialIDs returns a generator of predictable UUIDs.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
}

func newTestMigrator() *Migrator {
	return NewWithConfig(Config{NewID: sequentialIDs()})
}

// decode parses a JSON document into the generic form used by the
// migrator.
func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	return out
}

const legacyDashboard = `{
  "title": "Pumps",
  "configuration": {
    "widgets": [
      {"id": "w1", "sizeX": 8, "sizeY": 5, "row": 0, "col": 0,
       "config": {"datasources": [{"type": "entity", "deviceAliasId": "1"}]}},
      {"sizeX": 4, "sizeY": 3, "row": 5, "col": 0,
       "config": {
         "datasources": [{"type": "entity", "entityAliasId": "2"}],
         "actions": {"headerButton": [{"name": "open", "targetEntityAliasIds": ["1", "2"]}]}
       }}
    ],
    "deviceAliases": {
      "1": {"alias": "Pump A", "deviceFilter": {"useFilter": false, "deviceList": ["d1", "d2"]}},
      "2": {"alias": "All pumps", "deviceFilter": {"useFilter": true, "deviceNameFilter": "Pump"}}
    },
    "gridSettings": {"columns": 24, "margins": [10, 10]}
  }
}`

func TestMigrateLegacyDashboard(t *testing.T) {
	doc := decode(t, legacyDashboard)
	report := newTestMigrator().Dashboard(doc)
	require.True(t, report.Changed())

	cfg := doc["configuration"].(map[string]any)
	assert.NotContains(t, cfg, "deviceAliases")
	assert.NotContains(t, cfg, "gridSettings")

	// Widget w1 keeps its id; the second widget gets the first generated id.
	widgets := cfg["widgets"].(map[string]any)
	require.Len(t, widgets, 2)
	require.Contains(t, widgets, "w1")
	generatedWidget := "00000000-0000-4000-8000-000000000001"
	require.Contains(t, widgets, generatedWidget)

	// Alias ids "1" and "2" are regenerated in sorted order.
	idA := "00000000-0000-4000-8000-000000000002"
	idB := "00000000-0000-4000-8000-000000000003"
	assert.Equal(t, map[string]string{"1": idA, "2": idB}, report.Remapped)

	aliases := cfg["entityAliases"].(map[string]any)
	require.Len(t, aliases, 2)
	a := aliases[idA].(map[string]any)
	assert.Equal(t, idA, a["id"])
	assert.Equal(t, "Pump A", a["alias"])

	w1 := widgets["w1"].(map[string]any)
	ds := w1["config"].(map[string]any)["datasources"].([]any)[0].(map[string]any)
	assert.Equal(t, idA, ds["entityAliasId"])
	assert.NotContains(t, ds, "deviceAliasId")

	w2 := widgets[generatedWidget].(map[string]any)["config"].(map[string]any)
	assert.Equal(t, idB, w2["datasources"].([]any)[0].(map[string]any)["entityAliasId"])
	action := w2["actions"].(map[string]any)["headerButton"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{idA, idB}, action["targetEntityAliasIds"])

	main := cfg["states"].(map[string]any)["default"].(map[string]any)["layouts"].(map[string]any)["main"].(map[string]any)
	assert.Equal(t, map[string]any{"columns": float64(24), "margins": []any{float64(10), float64(10)}}, main["gridSettings"])
	layout := main["widgets"].(map[string]any)
	assert.Equal(t, map[string]any{"sizeX": float64(8), "sizeY": float64(5), "row": float64(0), "col": float64(0)}, layout["w1"])
	assert.Equal(t, "Pumps", cfg["states"].(map[string]any)["default"].(map[string]any)["name"])
}

func TestMigratedAliasesDecode(t *testing.T) {
	doc := decode(t, legacyDashboard)
	report := newTestMigrator().Dashboard(doc)
	aliases := doc["configuration"].(map[string]any)["entityAliases"].(map[string]any)

	decodeAlias := func(id string) alias.Alias {
		data, err := json.Marshal(aliases[id])
		require.NoError(t, err)
		var a alias.Alias
		require.NoError(t, json.Unmarshal(data, &a))
		return a
	}

	list := decodeAlias(report.Remapped["1"])
	assert.Equal(t, alias.EntityList{EntityType: entity.TypeDevice, IDs: []string{"d1", "d2"}}, list.Filter)

	name := decodeAlias(report.Remapped["2"])
	assert.Equal(t, alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "Pump"}, name.Filter)
	assert.Equal(t, "All pumps", name.Name)
}

func TestMigrateIsIdempotent(t *testing.T) {
	doc := decode(t, legacyDashboard)
	m := newTestMigrator()
	require.True(t, m.Dashboard(doc).Changed())

	before, err := json.Marshal(doc)
	require.NoError(t, err)

	second := m.Dashboard(doc)
	assert.False(t, second.Changed(), "changes: %v", second.Changes)
	assert.Nil(t, second.Remapped)

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestMigrateOldStyleEntityAliases(t *testing.T) {
	tests := []struct {
		name   string
		alias  string
		filter map[string]any
	}{
		{
			name:  "entity list",
			alias: `{"alias": "a", "entityType": "ASSET", "entityFilter": {"useFilter": false, "entityList": ["x"]}}`,
			filter: map[string]any{
				"type": "entityList", "entityType": "ASSET", "entityList": []any{"x"}, "resolveMultiple": false,
			},
		},
		{
			name:  "name prefix",
			alias: `{"alias": "a", "entityType": "DEVICE", "entityFilter": {"useFilter": true, "entityNameFilter": "Th"}}`,
			filter: map[string]any{
				"type": "entityName", "entityType": "DEVICE", "entityNameFilter": "Th", "resolveMultiple": false,
			},
		},
		{
			name:  "state entity",
			alias: `{"alias": "a", "entityType": "DEVICE", "entityFilter": {"stateEntity": true}}`,
			filter: map[string]any{
				"type": "stateEntity", "resolveMultiple": false,
			},
		},
		{
			name:  "missing filter block",
			alias: `{"alias": "a", "entityType": "DEVICE"}`,
			filter: map[string]any{
				"type": "entityList", "entityType": "DEVICE", "entityList": []any{}, "resolveMultiple": false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "6c1f0d6e-3c43-4a8e-9c3e-0b1b2f4a5d6e"
			cfg := map[string]any{
				"entityAliases": map[string]any{id: decode(t, tt.alias)},
				"states":        map[string]any{"default": map[string]any{}},
			}
			report := newTestMigrator().Configuration(cfg)
			require.True(t, report.Changed())

			a := cfg["entityAliases"].(map[string]any)[id].(map[string]any)
			assert.Equal(t, tt.filter, a["filter"])
			assert.NotContains(t, a, "entityType")
			assert.NotContains(t, a, "entityFilter")
			assert.Equal(t, id, a["id"])
		})
	}
}

func TestMigrateKeepsExistingStates(t *testing.T) {
	cfg := decode(t, `{
	  "gridSettings": {"columns": 12},
	  "states": {
	    "default": {"layouts": {"main": {"widgets": {}}}},
	    "details": {"layouts": {"main": {"widgets": {}, "gridSettings": {"columns": 6}}}}
	  }
	}`)
	report := newTestMigrator().Configuration(cfg)
	require.True(t, report.Changed())

	states := cfg["states"].(map[string]any)
	assert.Equal(t, map[string]any{"columns": float64(12)}, mainLayout(states["default"])["gridSettings"])
	assert.Equal(t, map[string]any{"columns": float64(6)}, mainLayout(states["details"])["gridSettings"])
	assert.NotContains(t, cfg, "gridSettings")
}

func TestMigrateEntityAliasWinsOverDeviceAlias(t *testing.T) {
	id := "6c1f0d6e-3c43-4a8e-9c3e-0b1b2f4a5d6e"
	cfg := map[string]any{
		"entityAliases": map[string]any{
			id: map[string]any{"id": id, "alias": "new", "filter": map[string]any{"type": "stateEntity"}},
		},
		"deviceAliases": map[string]any{
			id: map[string]any{"alias": "old", "deviceFilter": map[string]any{"useFilter": true}},
		},
		"states": map[string]any{"default": map[string]any{}},
	}
	newTestMigrator().Configuration(cfg)

	a := cfg["entityAliases"].(map[string]any)[id].(map[string]any)
	assert.Equal(t, "new", a["alias"])
}

func TestMigrateDuplicateWidgetIDs(t *testing.T) {
	cfg := decode(t, `{"widgets": [{"id": "w"}, {"id": "w"}, "junk"]}`)
	newTestMigrator().Configuration(cfg)

	widgets := cfg["widgets"].(map[string]any)
	assert.Len(t, widgets, 2)
	assert.Contains(t, widgets, "w")
	assert.Contains(t, widgets, "00000000-0000-4000-8000-000000000001")
}

func TestMigrateCreatesConfiguration(t *testing.T) {
	doc := map[string]any{"title": "Empty"}
	report := New().Dashboard(doc)
	require.True(t, report.Changed())

	cfg := doc["configuration"].(map[string]any)
	state := cfg["states"].(map[string]any)[DefaultStateID].(map[string]any)
	assert.Equal(t, "Empty", state["name"])
	assert.Equal(t, true, state["root"])
}
