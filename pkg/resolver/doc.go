// Package resolver evaluates entity alias filters into concrete entities.
//
// An Evaluator dispatches on the closed set of alias.Filter variants:
//
//   - SingleEntity and EntityList fetch entities by id. EntityList results
//     keep the order of the configured ids regardless of fetch completion.
//   - EntityName and TypeFilter list entities by case-insensitive name
//     prefix, either one page of maxItems or every page when maxItems is
//     AllItems.
//   - StateEntity reads the entity from dashboard navigation state.
//   - RelationsQuery walks the relation graph and fetches each far endpoint
//     through the batch dispatcher; SearchQuery lets the backend return
//     typed entities directly.
//
// Remote failures are returned as *RemoteError. An empty result is an error
// (ErrEmptyResult) only when the caller asks for it, and a malformed filter
// never fails: it resolves to no entities.
package resolver
