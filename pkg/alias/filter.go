package alias

import (
	"errors"
	"fmt"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// ErrMalformedFilter is returned for filters that cannot be evaluated.
var ErrMalformedFilter = errors.New("malformed alias filter")

// FilterType is the discriminator of a filter variant.
type FilterType string

const (
	FilterSingleEntity          FilterType = "singleEntity"
	FilterEntityList            FilterType = "entityList"
	FilterEntityName            FilterType = "entityName"
	FilterStateEntity           FilterType = "stateEntity"
	FilterAssetType             FilterType = "assetType"
	FilterDeviceType            FilterType = "deviceType"
	FilterEntityViewType        FilterType = "entityViewType"
	FilterEdgeType              FilterType = "edgeType"
	FilterRelationsQuery        FilterType = "relationsQuery"
	FilterAssetSearchQuery      FilterType = "assetSearchQuery"
	FilterDeviceSearchQuery     FilterType = "deviceSearchQuery"
	FilterEntityViewSearchQuery FilterType = "entityViewSearchQuery"
	FilterEdgeSearchQuery       FilterType = "edgeSearchQuery"
)

// AllFilterTypes lists every filter type in display order.
var AllFilterTypes = []FilterType{
	FilterSingleEntity,
	FilterEntityList,
	FilterEntityName,
	FilterStateEntity,
	FilterAssetType,
	FilterDeviceType,
	FilterEntityViewType,
	FilterEdgeType,
	FilterRelationsQuery,
	FilterAssetSearchQuery,
	FilterDeviceSearchQuery,
	FilterEntityViewSearchQuery,
	FilterEdgeSearchQuery,
}

// typedKinds maps the entity types with subtype-aware filters onto their
// TypeFilter and SearchQuery discriminators.
var typedKinds = map[entity.EntityType]struct{ byType, search FilterType }{
	entity.TypeAsset:      {FilterAssetType, FilterAssetSearchQuery},
	entity.TypeDevice:     {FilterDeviceType, FilterDeviceSearchQuery},
	entity.TypeEntityView: {FilterEntityViewType, FilterEntityViewSearchQuery},
	entity.TypeEdge:       {FilterEdgeType, FilterEdgeSearchQuery},
}

// Filter is an alias filter. It is implemented only by the variants in this
// package.
type Filter interface {
	// Type returns the discriminator.
	Type() FilterType

	// Validate reports structural problems as ErrMalformedFilter.
	Validate() error

	sealed()
}

// SingleEntity selects one entity. CURRENT_TENANT and CURRENT_CUSTOMER refs
// are substituted with the viewer's own tenant or customer.
type SingleEntity struct {
	Entity entity.Ref
}

// EntityList selects entities of one type by id, in the given order.
type EntityList struct {
	EntityType entity.EntityType
	IDs        []string
}

// EntityName selects entities of one type whose name starts with NamePrefix,
// compared case-insensitively.
type EntityName struct {
	EntityType entity.EntityType
	NamePrefix string
}

// StateEntity selects the entity carried by the dashboard navigation state.
type StateEntity struct {
	// ParamName selects a named state parameter; empty means the state's own
	// entity.
	ParamName string

	// Default is used when the state carries no entity.
	Default *entity.Ref
}

// TypeFilter selects entities of EntityType (asset, device, entity view or
// edge) whose subtype equals SubType and whose name starts with NamePrefix.
type TypeFilter struct {
	EntityType entity.EntityType
	SubType    string
	NamePrefix string
}

// Root locates the starting entity of a graph query.
type Root struct {
	// FromState takes the root from the navigation state.
	FromState bool

	// ParamName selects a named state parameter when FromState is set.
	ParamName string

	// Default is the state fallback when FromState is set.
	Default *entity.Ref

	// Entity is the fixed root when FromState is not set.
	Entity *entity.Ref
}

// RelationsQuery selects entities reachable from Root over relations.
type RelationsQuery struct {
	Root               Root
	Direction          entity.Direction
	MaxLevel           int
	FetchLastLevelOnly bool
	Filters            []entity.RelationFilter
}

// SearchQuery selects entities of EntityType reachable from Root over
// relations of RelationType, restricted to SubTypes.
type SearchQuery struct {
	EntityType         entity.EntityType
	Root               Root
	Direction          entity.Direction
	MaxLevel           int
	FetchLastLevelOnly bool
	RelationType       string
	SubTypes           []string
}

func (SingleEntity) Type() FilterType   { return FilterSingleEntity }
func (EntityList) Type() FilterType     { return FilterEntityList }
func (EntityName) Type() FilterType     { return FilterEntityName }
func (StateEntity) Type() FilterType    { return FilterStateEntity }
func (RelationsQuery) Type() FilterType { return FilterRelationsQuery }

// Type returns the subtype-specific discriminator, or "" for an entity type
// without type filters.
func (f TypeFilter) Type() FilterType { return typedKinds[f.EntityType].byType }

// Type returns the subtype-specific discriminator, or "" for an entity type
// without search queries.
func (f SearchQuery) Type() FilterType { return typedKinds[f.EntityType].search }

func (SingleEntity) sealed()   {}
func (EntityList) sealed()     {}
func (EntityName) sealed()     {}
func (StateEntity) sealed()    {}
func (TypeFilter) sealed()     {}
func (RelationsQuery) sealed() {}
func (SearchQuery) sealed()    {}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFilter, fmt.Sprintf(format, args...))
}

// Validate checks the entity reference.
func (f SingleEntity) Validate() error {
	if !validRef(f.Entity) {
		return malformed("singleEntity without entity")
	}
	return nil
}

// Validate checks the entity type.
func (f EntityList) Validate() error {
	if f.EntityType == "" {
		return malformed("entityList without entityType")
	}
	return nil
}

// Validate checks the entity type.
func (f EntityName) Validate() error {
	if f.EntityType == "" {
		return malformed("entityName without entityType")
	}
	return nil
}

// Validate always succeeds; a state without an entity resolves empty.
func (f StateEntity) Validate() error {
	return nil
}

// Validate checks the entity type.
func (f TypeFilter) Validate() error {
	if f.Type() == "" {
		return malformed("no type filter for %q", f.EntityType)
	}
	return nil
}

// validRef accepts complete refs and viewer placeholders, which need no id.
func validRef(ref entity.Ref) bool {
	return !ref.IsZero() || ref.EntityType.IsPlaceholder()
}

func (r Root) validate() error {
	if !r.FromState && (r.Entity == nil || !validRef(*r.Entity)) {
		return malformed("graph query without root entity")
	}
	return nil
}

// Validate checks the root and direction.
func (f RelationsQuery) Validate() error {
	if err := f.Root.validate(); err != nil {
		return err
	}
	if f.Direction != entity.DirectionFrom && f.Direction != entity.DirectionTo {
		return malformed("relationsQuery direction %q", f.Direction)
	}
	return nil
}

// Validate checks the entity type, root and direction.
func (f SearchQuery) Validate() error {
	if f.Type() == "" {
		return malformed("no search query for %q", f.EntityType)
	}
	if err := f.Root.validate(); err != nil {
		return err
	}
	if f.Direction != entity.DirectionFrom && f.Direction != entity.DirectionTo {
		return malformed("search query direction %q", f.Direction)
	}
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Filter = SingleEntity{}
	_ Filter = EntityList{}
	_ Filter = EntityName{}
	_ Filter = StateEntity{}
	_ Filter = TypeFilter{}
	_ Filter = RelationsQuery{}
	_ Filter = SearchQuery{}
)
