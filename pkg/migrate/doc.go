// Package migrate upgrades stored dashboard configurations to the current
// layout.
//
// A configuration is handled as a generic document (the result of decoding
// JSON or YAML into map[string]any), so fields this package does not know
// about survive untouched. Migration is one way and idempotent: running it
// on an already migrated document reports no changes.
//
// The upgrades applied are:
//
//   - a widgets array becomes a map keyed by widget id
//   - legacy deviceAliases become entityAliases with generic filters
//   - aliases in the old {entityType, entityFilter} shape get generic filters
//   - a flat gridSettings block moves into states.default.layouts.main
//   - alias ids that are not UUIDs are regenerated and every reference to
//     them from widget datasources and actions is repointed
package migrate
