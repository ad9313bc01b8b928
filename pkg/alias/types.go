package alias

import (
	"slices"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// MatchesEntityTypes reports whether f can resolve to at least one of types.
// An empty types list matches every filter.
func MatchesEntityTypes(f Filter, types []entity.EntityType) bool {
	if len(types) == 0 {
		return true
	}
	switch f := f.(type) {
	case SingleEntity:
		return slices.Contains(types, f.Entity.EntityType)
	case EntityList:
		return slices.Contains(types, f.EntityType)
	case EntityName:
		return slices.Contains(types, f.EntityType)
	case StateEntity:
		return true
	case TypeFilter:
		return slices.Contains(types, f.EntityType)
	case SearchQuery:
		return slices.Contains(types, f.EntityType)
	case RelationsQuery:
		if len(f.Filters) == 0 {
			return true
		}
		for _, rf := range f.Filters {
			if len(rf.EntityTypes) == 0 {
				return true
			}
			for _, t := range rf.EntityTypes {
				if slices.Contains(types, t) {
					return true
				}
			}
		}
		return false
	}
	return false
}

// FilterAliases returns the aliases whose filters match types, keeping order.
func FilterAliases(aliases []Alias, types []entity.EntityType) []Alias {
	out := make([]Alias, 0, len(aliases))
	for _, a := range aliases {
		if a.Filter != nil && MatchesEntityTypes(a.Filter, types) {
			out = append(out, a)
		}
	}
	return out
}

// FilterTypesForEntityTypes lists the filter kinds that can produce entities
// of the allowed types. Generic kinds are always offered; subtype-aware kinds
// only when their entity type is allowed. An empty list allows everything.
func FilterTypesForEntityTypes(allowed []entity.EntityType) []FilterType {
	if len(allowed) == 0 {
		return slices.Clone(AllFilterTypes)
	}
	var out []FilterType
	for _, ft := range AllFilterTypes {
		t, typed := typedEntity(ft)
		if !typed || slices.Contains(allowed, t) {
			out = append(out, ft)
		}
	}
	return out
}
