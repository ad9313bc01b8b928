package entity

import (
	"fmt"
	"strings"
)

// Direction selects which edges a relation query follows from its root.
type Direction string

const (
	// DirectionFrom follows edges leaving the root; results are edge targets.
	DirectionFrom Direction = "FROM"
	// DirectionTo follows edges entering the root; results are edge sources.
	DirectionTo Direction = "TO"
)

// ParseDirection parses a direction name case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(s)) {
	case DirectionFrom:
		return DirectionFrom, nil
	case DirectionTo:
		return DirectionTo, nil
	}
	return "", fmt.Errorf("unknown relation direction %q", s)
}

// UnboundedLevel is the MaxLevel value meaning "no depth limit".
const UnboundedLevel = -1

// TypeGroupCommon is the default relation type group.
const TypeGroupCommon = "COMMON"

// RelationEdge is one directed relation between two entities.
type RelationEdge struct {
	From      Ref    `json:"from" yaml:"from"`
	To        Ref    `json:"to" yaml:"to"`
	Type      string `json:"type" yaml:"type"`
	TypeGroup string `json:"typeGroup,omitempty" yaml:"typeGroup,omitempty"`
}

// Far returns the endpoint of the edge that is unknown to a query walking in
// direction d: the target for FROM, the source for TO.
func (e RelationEdge) Far(d Direction) Ref {
	if d == DirectionTo {
		return e.From
	}
	return e.To
}

// RelationEdgeInfo is an edge enriched with endpoint names.
type RelationEdgeInfo struct {
	RelationEdge
	FromName string `json:"fromName"`
	ToName   string `json:"toName"`
}

// RelationFilter restricts which edges a relation query returns.
// Empty fields match everything.
type RelationFilter struct {
	RelationType string       `json:"relationType,omitempty" yaml:"relationType,omitempty"`
	EntityTypes  []EntityType `json:"entityTypes,omitempty" yaml:"entityTypes,omitempty"`
}

// RelationsSearchParameters anchors a relation query.
type RelationsSearchParameters struct {
	RootID    string     `json:"rootId"`
	RootType  EntityType `json:"rootType"`
	Direction Direction  `json:"direction"`
	MaxLevel  int        `json:"maxLevel"`

	// FetchLastLevelOnly keeps only edges found at the deepest level reached.
	FetchLastLevelOnly bool `json:"fetchLastLevelOnly,omitempty"`
}

// Root returns the reference of the query root.
func (p RelationsSearchParameters) Root() Ref {
	return Ref{EntityType: p.RootType, ID: p.RootID}
}

// NormalizeMaxLevel maps any level of zero or less onto UnboundedLevel.
func NormalizeMaxLevel(level int) int {
	if level > 0 {
		return level
	}
	return UnboundedLevel
}

// RelationsQuery is a bounded relation-graph query.
type RelationsQuery struct {
	Parameters RelationsSearchParameters `json:"parameters"`
	Filters    []RelationFilter          `json:"filters,omitempty"`
}

// SearchQuery is a relation traversal whose results the backend filters by
// entity type and subtype before returning full entities.
type SearchQuery struct {
	Parameters   RelationsSearchParameters `json:"parameters"`
	RelationType string                    `json:"relationType,omitempty"`
	EntityType   EntityType                `json:"entityType"`
	SubTypes     []string                  `json:"subTypes,omitempty"`
}
