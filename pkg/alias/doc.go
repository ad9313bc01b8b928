// Package alias models entity alias filters.
//
// An alias is a named, declarative selection of entities used by dashboard
// widgets. Its Filter is one of thirteen variants:
//
//   - SingleEntity: one literal entity (or the viewer's tenant/customer)
//   - EntityList: an explicit list of ids of one type
//   - EntityName: entities of one type whose name starts with a prefix
//   - StateEntity: the entity selected in the dashboard navigation state
//   - TypeFilter: assets, devices, entity views or edges of one subtype
//   - RelationsQuery: entities reachable over the relation graph
//   - SearchQuery: assets, devices, entity views or edges reachable over the
//     relation graph, filtered server side by subtype
//
// Filter is a sealed interface: only the variants in this package implement
// it, so consumers can switch exhaustively over the concrete types.
//
// # Encoding
//
// Filters are stored in dashboard configurations as flat JSON objects with a
// "type" discriminator:
//
//	{"type": "deviceType", "deviceType": "thermostat", "deviceNameFilter": "Lobby", "resolveMultiple": true}
//
// DecodeFilter and EncodeFilter convert between that shape and the typed
// variants. Alias implements json and yaml (un)marshalling on top of them.
package alias
