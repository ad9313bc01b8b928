package migrate

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
)

// Document keys.
const (
	keyConfiguration = "configuration"
	keyWidgets       = "widgets"
	keyEntityAliases = "entityAliases"
	keyDeviceAliases = "deviceAliases"
	keyGridSettings  = "gridSettings"
	keyStates        = "states"
)

// DefaultStateID is the id of the state created for dashboards that predate
// states.
const DefaultStateID = "default"

// Report lists what a migration changed.
type Report struct {
	// Changes describes each applied upgrade in order.
	Changes []string

	// Remapped maps regenerated alias ids from old to new.
	Remapped map[string]string
}

// Changed reports whether the migration modified the document.
func (r Report) Changed() bool {
	return len(r.Changes) > 0
}

func (r *Report) add(format string, args ...any) {
	r.Changes = append(r.Changes, fmt.Sprintf(format, args...))
}

// Config configures a Migrator.
type Config struct {
	// NewID generates widget and alias ids. Nil uses random UUIDs.
	NewID func() string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns the default migrator configuration.
func DefaultConfig() Config {
	return Config{NewID: uuid.NewString}
}

// Migrator upgrades dashboard documents.
type Migrator struct {
	config Config
}

// New creates a migrator with default configuration.
func New() *Migrator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a migrator with custom configuration.
func NewWithConfig(config Config) *Migrator {
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Migrator{config: config}
}

// Dashboard migrates a full dashboard document in place. The configuration
// is read from its "configuration" member, which is created when missing.
func (m *Migrator) Dashboard(doc map[string]any) Report {
	cfg, ok := doc[keyConfiguration].(map[string]any)
	if !ok {
		cfg = map[string]any{}
		doc[keyConfiguration] = cfg
	}
	title, _ := doc["title"].(string)
	return m.configuration(cfg, title)
}

// Configuration migrates a dashboard configuration in place.
func (m *Migrator) Configuration(cfg map[string]any) Report {
	return m.configuration(cfg, "")
}

func (m *Migrator) configuration(cfg map[string]any, title string) Report {
	var r Report

	widgets := m.widgetsByID(cfg, &r)
	m.deviceAliases(cfg, &r)
	aliases, _ := cfg[keyEntityAliases].(map[string]any)
	m.legacyFilters(aliases, &r)
	remap := m.aliasIDs(aliases, &r)
	repointWidgets(widgets, remap, &r)
	m.states(cfg, widgets, title, &r)

	if len(remap) > 0 {
		r.Remapped = remap
	}
	for _, c := range r.Changes {
		m.debugLog("migrate: "+c)
	}
	return r
}

// widgetsByID turns a widgets array into a map keyed by widget id.
func (m *Migrator) widgetsByID(cfg map[string]any, r *Report) map[string]any {
	switch w := cfg[keyWidgets].(type) {
	case map[string]any:
		return w
	case []any:
		out := make(map[string]any, len(w))
		for _, item := range w {
			widget, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := widget["id"].(string)
			if id == "" || out[id] != nil {
				id = m.config.NewID()
				widget["id"] = id
			}
			out[id] = widget
		}
		cfg[keyWidgets] = out
		r.add("widgets: array of %d converted to map", len(w))
		return out
	}
	return nil
}

// deviceAliases converts legacy device aliases into entity aliases. Device
// aliases never overwrite an entity alias with the same id.
func (m *Migrator) deviceAliases(cfg map[string]any, r *Report) {
	legacy, ok := cfg[keyDeviceAliases].(map[string]any)
	if !ok {
		if _, present := cfg[keyDeviceAliases]; present {
			delete(cfg, keyDeviceAliases)
			r.add("deviceAliases: dropped unreadable block")
		}
		return
	}

	aliases, _ := cfg[keyEntityAliases].(map[string]any)
	if aliases == nil {
		aliases = make(map[string]any, len(legacy))
		cfg[keyEntityAliases] = aliases
	}
	for _, id := range slices.Sorted(maps.Keys(legacy)) {
		old, ok := legacy[id].(map[string]any)
		if !ok {
			continue
		}
		if _, taken := aliases[id]; taken {
			continue
		}
		df, _ := old["deviceFilter"].(map[string]any)
		aliases[id] = map[string]any{
			"id":     id,
			"alias":  old["alias"],
			"filter": legacyFilter(entity.TypeDevice, df, "deviceNameFilter", "deviceList"),
		}
	}
	delete(cfg, keyDeviceAliases)
	r.add("deviceAliases: %d converted to entityAliases", len(legacy))
}

// legacyFilters replaces {entityType, entityFilter} pairs with a filter.
func (m *Migrator) legacyFilters(aliases map[string]any, r *Report) {
	for _, id := range slices.Sorted(maps.Keys(aliases)) {
		a, ok := aliases[id].(map[string]any)
		if !ok {
			continue
		}
		ef, hasFilter := a["entityFilter"].(map[string]any)
		t, hasType := a["entityType"].(string)
		if !hasFilter && !hasType {
			continue
		}
		if _, ok := a["filter"]; !ok {
			a["filter"] = legacyFilter(entity.EntityType(t), ef, "entityNameFilter", "entityList")
		}
		delete(a, "entityType")
		delete(a, "entityFilter")
		r.add("entityAliases[%s]: legacy filter converted", id)
	}
}

// legacyFilter builds a generic filter from an old filter block. nameKey
// and listKey name the prefix and id list fields of the old block.
func legacyFilter(t entity.EntityType, old map[string]any, nameKey, listKey string) map[string]any {
	filter := map[string]any{
		"entityType":      string(t),
		"resolveMultiple": false,
	}
	switch {
	case old["stateEntity"] == true:
		filter = map[string]any{"type": string(alias.FilterStateEntity), "resolveMultiple": false}
	case old["useFilter"] == true:
		filter["type"] = string(alias.FilterEntityName)
		filter["entityNameFilter"] = old[nameKey]
	default:
		filter["type"] = string(alias.FilterEntityList)
		ids := old[listKey]
		if ids == nil {
			ids = []any{}
		}
		filter["entityList"] = ids
	}
	return filter
}

// aliasIDs regenerates alias ids that are not UUIDs and makes each alias id
// match its map key. It returns the old to new id mapping.
func (m *Migrator) aliasIDs(aliases map[string]any, r *Report) map[string]string {
	remap := make(map[string]string)
	for _, key := range slices.Sorted(maps.Keys(aliases)) {
		a, ok := aliases[key].(map[string]any)
		if !ok {
			continue
		}
		if _, err := uuid.Parse(key); err == nil {
			if a["id"] != key {
				a["id"] = key
				r.add("entityAliases[%s]: id field synchronized", key)
			}
			continue
		}
		id := m.config.NewID()
		a["id"] = id
		delete(aliases, key)
		aliases[id] = a
		remap[key] = id
		r.add("entityAliases[%s]: id regenerated as %s", key, id)
	}
	return remap
}

// repointWidgets renames deviceAliasId datasource fields and applies remap
// to every alias reference of every widget.
func repointWidgets(widgets map[string]any, remap map[string]string, r *Report) {
	for _, wid := range slices.Sorted(maps.Keys(widgets)) {
		widget, ok := widgets[wid].(map[string]any)
		if !ok {
			continue
		}
		wc, ok := widget["config"].(map[string]any)
		if !ok {
			continue
		}
		n := 0
		for _, item := range asSlice(wc["datasources"]) {
			ds, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if legacy, ok := ds["deviceAliasId"]; ok {
				if _, set := ds["entityAliasId"]; !set {
					ds["entityAliasId"] = legacy
				}
				delete(ds, "deviceAliasId")
				n++
			}
			n += repointField(ds, "entityAliasId", remap)
		}
		if src, ok := wc["alarmSource"].(map[string]any); ok {
			n += repointField(src, "entityAliasId", remap)
		}
		n += repointList(wc, "targetDeviceAliasIds", remap)
		if actions, ok := wc["actions"].(map[string]any); ok {
			for _, list := range actions {
				for _, item := range asSlice(list) {
					if action, ok := item.(map[string]any); ok {
						n += repointList(action, "targetEntityAliasIds", remap)
						n += repointField(action, "targetEntityAliasId", remap)
					}
				}
			}
		}
		if n > 0 {
			r.add("widgets[%s]: %d alias references updated", wid, n)
		}
	}
}

func repointField(m map[string]any, key string, remap map[string]string) int {
	old, ok := m[key].(string)
	if !ok {
		return 0
	}
	if id, ok := remap[old]; ok {
		m[key] = id
		return 1
	}
	return 0
}

func repointList(m map[string]any, key string, remap map[string]string) int {
	n := 0
	for i, item := range asSlice(m[key]) {
		old, ok := item.(string)
		if !ok {
			continue
		}
		if id, ok := remap[old]; ok {
			m[key].([]any)[i] = id
			n++
		}
	}
	return n
}

// states moves a flat gridSettings block into the main layout of the
// default state, creating the state from the widget positions when the
// dashboard has none.
func (m *Migrator) states(cfg map[string]any, widgets map[string]any, title string, r *Report) {
	grid, hasGrid := cfg[keyGridSettings].(map[string]any)
	states, hasStates := cfg[keyStates].(map[string]any)
	if hasStates && len(states) > 0 {
		if !hasGrid {
			return
		}
		for _, id := range slices.Sorted(maps.Keys(states)) {
			if main := mainLayout(states[id]); main != nil {
				if _, ok := main[keyGridSettings]; !ok {
					main[keyGridSettings] = grid
				}
			}
		}
		delete(cfg, keyGridSettings)
		r.add("gridSettings: moved into existing states")
		return
	}

	if grid == nil {
		grid = map[string]any{}
	}
	layout := make(map[string]any, len(widgets))
	for id, item := range widgets {
		widget, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pos := map[string]any{}
		for _, k := range []string{"sizeX", "sizeY", "row", "col"} {
			if v, ok := widget[k]; ok {
				pos[k] = v
			}
		}
		layout[id] = pos
	}
	if title == "" {
		title = "Default"
	}
	cfg[keyStates] = map[string]any{
		DefaultStateID: map[string]any{
			"name": title,
			"root": true,
			"layouts": map[string]any{
				"main": map[string]any{
					keyWidgets:      layout,
					keyGridSettings: grid,
				},
			},
		},
	}
	delete(cfg, keyGridSettings)
	r.add("states: default state created with %d widgets", len(layout))
}

func mainLayout(state any) map[string]any {
	s, ok := state.(map[string]any)
	if !ok {
		return nil
	}
	layouts, ok := s["layouts"].(map[string]any)
	if !ok {
		return nil
	}
	main, _ := layouts["main"].(map[string]any)
	return main
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func (m *Migrator) debugLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}
