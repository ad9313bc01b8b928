package entity

import (
	"fmt"
	"strings"
)

// EntityType identifies the kind of a remote entity.
type EntityType string

const (
	TypeDevice     EntityType = "DEVICE"
	TypeAsset      EntityType = "ASSET"
	TypeEntityView EntityType = "ENTITY_VIEW"
	TypeEdge       EntityType = "EDGE"
	TypeTenant     EntityType = "TENANT"
	TypeCustomer   EntityType = "CUSTOMER"
	TypeDashboard  EntityType = "DASHBOARD"
	TypeUser       EntityType = "USER"
	TypeRuleChain  EntityType = "RULE_CHAIN"
	TypeAlarm      EntityType = "ALARM"

	// Alias placeholders resolved against the viewer.
	TypeCurrentTenant   EntityType = "CURRENT_TENANT"
	TypeCurrentCustomer EntityType = "CURRENT_CUSTOMER"
	TypeCurrentUser     EntityType = "CURRENT_USER"
)

// String returns the type name.
func (t EntityType) String() string {
	return string(t)
}

// IsPlaceholder reports whether t must be substituted with a viewer-relative
// entity before it can be fetched.
func (t EntityType) IsPlaceholder() bool {
	return t == TypeCurrentTenant || t == TypeCurrentCustomer || t == TypeCurrentUser
}

// ParseType parses an entity type name case-insensitively.
func ParseType(s string) (EntityType, error) {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeDevice, TypeAsset, TypeEntityView, TypeEdge, TypeTenant, TypeCustomer,
		TypeDashboard, TypeUser, TypeRuleChain, TypeAlarm,
		TypeCurrentTenant, TypeCurrentCustomer, TypeCurrentUser:
		return t, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Ref identifies one entity. Two refs are equal when type and id are equal.
type Ref struct {
	EntityType EntityType `json:"entityType" yaml:"entityType"`
	ID         string     `json:"id" yaml:"id"`
}

// NewRef builds a reference.
func NewRef(t EntityType, id string) Ref {
	return Ref{EntityType: t, ID: id}
}

// IsZero reports whether the reference is missing a type or an id.
func (r Ref) IsZero() bool {
	return r.EntityType == "" || r.ID == ""
}

// String renders the reference as TYPE:id.
func (r Ref) String() string {
	return string(r.EntityType) + ":" + r.ID
}

// Entity is a record as returned by a remote entity service.
type Entity struct {
	ID    Ref    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Type is the entity subtype (device profile, asset type, ...).
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	AdditionalInfo map[string]any `json:"additionalInfo,omitempty" yaml:"additionalInfo,omitempty"`
}

// Info is the immutable result of resolving an entity for display.
type Info struct {
	// Original is the record the info was built from.
	Original Entity `json:"-"`

	Name        string     `json:"name"`
	Label       string     `json:"label,omitempty"`
	EntityType  EntityType `json:"entityType"`
	ID          string     `json:"id"`
	Description string     `json:"entityDescription,omitempty"`
}

// Ref returns the reference of the resolved entity.
func (i Info) Ref() Ref {
	return Ref{EntityType: i.EntityType, ID: i.ID}
}

// InfoFromEntity projects a remote record onto an Info. The description is
// read from AdditionalInfo["description"] when it is a string.
func InfoFromEntity(e Entity) Info {
	info := Info{
		Original:   e,
		Name:       e.Name,
		Label:      e.Label,
		EntityType: e.ID.EntityType,
		ID:         e.ID.ID,
	}
	if desc, ok := e.AdditionalInfo["description"].(string); ok {
		info.Description = desc
	}
	return info
}

// InfosFromEntities projects every record, preserving order.
func InfosFromEntities(es []Entity) []Info {
	infos := make([]Info, 0, len(es))
	for _, e := range es {
		infos = append(infos, InfoFromEntity(e))
	}
	return infos
}
