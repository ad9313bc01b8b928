package alias

import (
	"encoding/json"
	"fmt"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// Wire is the flat stored representation of a filter.
type Wire struct {
	Type            FilterType `json:"type" yaml:"type"`
	ResolveMultiple bool       `json:"resolveMultiple,omitempty" yaml:"resolveMultiple,omitempty"`

	SingleEntity *entity.Ref `json:"singleEntity,omitempty" yaml:"singleEntity,omitempty"`

	EntityType       entity.EntityType `json:"entityType,omitempty" yaml:"entityType,omitempty"`
	EntityList       []string          `json:"entityList,omitempty" yaml:"entityList,omitempty"`
	EntityNameFilter string            `json:"entityNameFilter,omitempty" yaml:"entityNameFilter,omitempty"`

	StateEntityParamName string      `json:"stateEntityParamName,omitempty" yaml:"stateEntityParamName,omitempty"`
	DefaultStateEntity   *entity.Ref `json:"defaultStateEntity,omitempty" yaml:"defaultStateEntity,omitempty"`

	AssetType            string `json:"assetType,omitempty" yaml:"assetType,omitempty"`
	AssetNameFilter      string `json:"assetNameFilter,omitempty" yaml:"assetNameFilter,omitempty"`
	DeviceType           string `json:"deviceType,omitempty" yaml:"deviceType,omitempty"`
	DeviceNameFilter     string `json:"deviceNameFilter,omitempty" yaml:"deviceNameFilter,omitempty"`
	EntityViewType       string `json:"entityViewType,omitempty" yaml:"entityViewType,omitempty"`
	EntityViewNameFilter string `json:"entityViewNameFilter,omitempty" yaml:"entityViewNameFilter,omitempty"`
	EdgeType             string `json:"edgeType,omitempty" yaml:"edgeType,omitempty"`
	EdgeNameFilter       string `json:"edgeNameFilter,omitempty" yaml:"edgeNameFilter,omitempty"`

	RootStateEntity    bool                    `json:"rootStateEntity,omitempty" yaml:"rootStateEntity,omitempty"`
	RootEntity         *entity.Ref             `json:"rootEntity,omitempty" yaml:"rootEntity,omitempty"`
	Direction          entity.Direction        `json:"direction,omitempty" yaml:"direction,omitempty"`
	MaxLevel           int                     `json:"maxLevel,omitempty" yaml:"maxLevel,omitempty"`
	FetchLastLevelOnly bool                    `json:"fetchLastLevelOnly,omitempty" yaml:"fetchLastLevelOnly,omitempty"`
	Filters            []entity.RelationFilter `json:"filters,omitempty" yaml:"filters,omitempty"`

	RelationType    string   `json:"relationType,omitempty" yaml:"relationType,omitempty"`
	AssetTypes      []string `json:"assetTypes,omitempty" yaml:"assetTypes,omitempty"`
	DeviceTypes     []string `json:"deviceTypes,omitempty" yaml:"deviceTypes,omitempty"`
	EntityViewTypes []string `json:"entityViewTypes,omitempty" yaml:"entityViewTypes,omitempty"`
	EdgeTypes       []string `json:"edgeTypes,omitempty" yaml:"edgeTypes,omitempty"`
}

// typedFields returns pointers to the subtype and name fields of w for
// entity type t.
func (w *Wire) typedFields(t entity.EntityType) (subType, name *string, subTypes *[]string) {
	switch t {
	case entity.TypeAsset:
		return &w.AssetType, &w.AssetNameFilter, &w.AssetTypes
	case entity.TypeDevice:
		return &w.DeviceType, &w.DeviceNameFilter, &w.DeviceTypes
	case entity.TypeEntityView:
		return &w.EntityViewType, &w.EntityViewNameFilter, &w.EntityViewTypes
	case entity.TypeEdge:
		return &w.EdgeType, &w.EdgeNameFilter, &w.EdgeTypes
	}
	return nil, nil, nil
}

func (w *Wire) root() Root {
	return Root{
		FromState: w.RootStateEntity,
		ParamName: w.StateEntityParamName,
		Default:   w.DefaultStateEntity,
		Entity:    w.RootEntity,
	}
}

func (w *Wire) setRoot(r Root) {
	w.RootStateEntity = r.FromState
	w.StateEntityParamName = r.ParamName
	w.DefaultStateEntity = r.Default
	w.RootEntity = r.Entity
}

// typedEntity returns the entity type of a subtype-aware discriminator.
func typedEntity(ft FilterType) (entity.EntityType, bool) {
	for t, k := range typedKinds {
		if k.byType == ft || k.search == ft {
			return t, true
		}
	}
	return "", false
}

// Filter converts the stored representation into a typed filter. Unknown
// discriminators yield ErrMalformedFilter.
func (w Wire) Filter() (Filter, error) {
	switch w.Type {
	case FilterSingleEntity:
		var ref entity.Ref
		if w.SingleEntity != nil {
			ref = *w.SingleEntity
		}
		return SingleEntity{Entity: ref}, nil
	case FilterEntityList:
		return EntityList{EntityType: w.EntityType, IDs: w.EntityList}, nil
	case FilterEntityName:
		return EntityName{EntityType: w.EntityType, NamePrefix: w.EntityNameFilter}, nil
	case FilterStateEntity:
		return StateEntity{ParamName: w.StateEntityParamName, Default: w.DefaultStateEntity}, nil
	case FilterRelationsQuery:
		return RelationsQuery{
			Root:               w.root(),
			Direction:          w.Direction,
			MaxLevel:           w.MaxLevel,
			FetchLastLevelOnly: w.FetchLastLevelOnly,
			Filters:            w.Filters,
		}, nil
	}

	t, ok := typedEntity(w.Type)
	if !ok {
		return nil, malformed("unknown filter type %q", w.Type)
	}
	subType, name, subTypes := w.typedFields(t)
	if typedKinds[t].byType == w.Type {
		return TypeFilter{EntityType: t, SubType: *subType, NamePrefix: *name}, nil
	}
	return SearchQuery{
		EntityType:         t,
		Root:               w.root(),
		Direction:          w.Direction,
		MaxLevel:           w.MaxLevel,
		FetchLastLevelOnly: w.FetchLastLevelOnly,
		RelationType:       w.RelationType,
		SubTypes:           *subTypes,
	}, nil
}

// ToWire converts a typed filter into its stored representation.
func ToWire(f Filter) Wire {
	w := Wire{Type: f.Type()}
	switch f := f.(type) {
	case SingleEntity:
		ref := f.Entity
		w.SingleEntity = &ref
	case EntityList:
		w.EntityType = f.EntityType
		w.EntityList = f.IDs
	case EntityName:
		w.EntityType = f.EntityType
		w.EntityNameFilter = f.NamePrefix
	case StateEntity:
		w.StateEntityParamName = f.ParamName
		w.DefaultStateEntity = f.Default
	case TypeFilter:
		if subType, name, _ := w.typedFields(f.EntityType); subType != nil {
			*subType = f.SubType
			*name = f.NamePrefix
		}
	case RelationsQuery:
		w.setRoot(f.Root)
		w.Direction = f.Direction
		w.MaxLevel = f.MaxLevel
		w.FetchLastLevelOnly = f.FetchLastLevelOnly
		w.Filters = f.Filters
	case SearchQuery:
		w.setRoot(f.Root)
		w.Direction = f.Direction
		w.MaxLevel = f.MaxLevel
		w.FetchLastLevelOnly = f.FetchLastLevelOnly
		w.RelationType = f.RelationType
		if _, _, subTypes := w.typedFields(f.EntityType); subTypes != nil {
			*subTypes = f.SubTypes
		}
	}
	return w
}

// DecodeFilter decodes a stored JSON filter.
func DecodeFilter(data []byte) (Filter, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	return w.Filter()
}

// EncodeFilter encodes a filter in its stored JSON shape.
func EncodeFilter(f Filter) ([]byte, error) {
	return json.Marshal(ToWire(f))
}
