package entity

import (
	"fmt"
	"strings"
)

// AttributeScope names a family of values attached to an entity.
type AttributeScope string

const (
	ScopeServer AttributeScope = "SERVER_SCOPE"
	ScopeShared AttributeScope = "SHARED_SCOPE"
	ScopeClient AttributeScope = "CLIENT_SCOPE"

	// ScopeLatestTelemetry is the latest value of every time series key.
	ScopeLatestTelemetry AttributeScope = "LATEST_TELEMETRY"
)

// IsTelemetry reports whether the scope is backed by time series data.
func (s AttributeScope) IsTelemetry() bool {
	return s == ScopeLatestTelemetry
}

// ParseScope parses a scope name case-insensitively.
func ParseScope(s string) (AttributeScope, error) {
	scope := AttributeScope(strings.ToUpper(s))
	switch scope {
	case ScopeServer, ScopeShared, ScopeClient, ScopeLatestTelemetry:
		return scope, nil
	}
	return "", fmt.Errorf("unknown attribute scope %q", s)
}

// Attribute is one key of an entity's value table.
type Attribute struct {
	Key          string `json:"key" yaml:"key"`
	Value        any    `json:"value" yaml:"value"`
	LastUpdateTs int64  `json:"lastUpdateTs" yaml:"lastUpdateTs"`
}
