package alias

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// Alias is a named filter as stored in a dashboard configuration.
type Alias struct {
	ID   string
	Name string

	// ResolveMultiple tells widgets to use every resolved entity rather than
	// only the first one.
	ResolveMultiple bool

	Filter Filter
}

type aliasWire struct {
	ID     string `json:"id" yaml:"id"`
	Alias  string `json:"alias" yaml:"alias"`
	Filter Wire   `json:"filter" yaml:"filter"`
}

func (a Alias) toWire() aliasWire {
	w := aliasWire{ID: a.ID, Alias: a.Name}
	if a.Filter != nil {
		w.Filter = ToWire(a.Filter)
	}
	w.Filter.ResolveMultiple = a.ResolveMultiple
	return w
}

func (a *Alias) fromWire(w aliasWire) error {
	f, err := w.Filter.Filter()
	if err != nil {
		return fmt.Errorf("alias %q: %w", w.Alias, err)
	}
	*a = Alias{ID: w.ID, Name: w.Alias, ResolveMultiple: w.Filter.ResolveMultiple, Filter: f}
	return nil
}

// MarshalJSON encodes the alias in its stored shape.
func (a Alias) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.toWire())
}

// UnmarshalJSON decodes a stored alias.
func (a *Alias) UnmarshalJSON(data []byte) error {
	var w aliasWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return a.fromWire(w)
}

// MarshalYAML encodes the alias in its stored shape.
func (a Alias) MarshalYAML() (any, error) {
	return a.toWire(), nil
}

// UnmarshalYAML decodes a stored alias.
func (a *Alias) UnmarshalYAML(node *yaml.Node) error {
	var w aliasWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	return a.fromWire(w)
}

// StateParams is the navigation state of a dashboard: the entity of the
// current state plus named entity parameters.
type StateParams struct {
	Entity *entity.Ref             `json:"entityId,omitempty" yaml:"entityId,omitempty"`
	Params map[string]*entity.Ref `json:"params,omitempty" yaml:"params,omitempty"`
}

// EntityID returns the entity a state-bound filter refers to. A non-empty
// paramName reads only that parameter; otherwise the state's own entity is
// used. When neither is set, def is returned (which may be nil).
func (s *StateParams) EntityID(paramName string, def *entity.Ref) *entity.Ref {
	var ref *entity.Ref
	if s != nil {
		if paramName != "" {
			ref = s.Params[paramName]
		} else {
			ref = s.Entity
		}
	}
	if ref == nil || ref.IsZero() {
		ref = def
	}
	if ref == nil || ref.IsZero() {
		return nil
	}
	return ref
}

// WithEntity returns a copy of s whose state entity is ref.
func (s *StateParams) WithEntity(ref entity.Ref) *StateParams {
	out := &StateParams{Entity: &ref, Params: map[string]*entity.Ref{}}
	if s != nil {
		for k, v := range s.Params {
			out.Params[k] = v
		}
	}
	return out
}

// WithParam returns a copy of s with parameter name bound to ref.
func (s *StateParams) WithParam(name string, ref entity.Ref) *StateParams {
	out := &StateParams{Params: map[string]*entity.Ref{name: &ref}}
	if s != nil {
		out.Entity = s.Entity
		for k, v := range s.Params {
			if k != name {
				out.Params[k] = v
			}
		}
	}
	return out
}

// IsStateBound reports whether the filter reads the navigation state.
func IsStateBound(f Filter) bool {
	switch f := f.(type) {
	case StateEntity:
		return true
	case RelationsQuery:
		return f.Root.FromState
	case SearchQuery:
		return f.Root.FromState
	}
	return false
}

// StateParamName returns the state parameter a state-bound filter reads.
func StateParamName(f Filter) string {
	switch f := f.(type) {
	case StateEntity:
		return f.ParamName
	case RelationsQuery:
		if f.Root.FromState {
			return f.Root.ParamName
		}
	case SearchQuery:
		if f.Root.FromState {
			return f.Root.ParamName
		}
	}
	return ""
}
