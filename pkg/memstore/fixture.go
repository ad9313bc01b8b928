package memstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// Fixture is the YAML representation of a store's contents.
type Fixture struct {
	Entities   []entity.Entity       `yaml:"entities"`
	Relations  []entity.RelationEdge `yaml:"relations"`
	Attributes []AttributeTable      `yaml:"attributes"`
}

// AttributeTable is the value table of one entity scope.
type AttributeTable struct {
	Entity entity.Ref            `yaml:"entity"`
	Scope  entity.AttributeScope `yaml:"scope"`
	Values []entity.Attribute    `yaml:"values"`
}

// LoadError describes a fixture that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseFixture parses a fixture from YAML bytes.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	seen := make(map[entity.Ref]bool, len(f.Entities))
	for i, e := range f.Entities {
		if e.ID.IsZero() {
			return nil, &LoadError{Message: fmt.Sprintf("entity %d has no id", i)}
		}
		if seen[e.ID] {
			return nil, &LoadError{Message: fmt.Sprintf("duplicate entity %s", e.ID)}
		}
		seen[e.ID] = true
	}
	for i, r := range f.Relations {
		if !seen[r.From] || !seen[r.To] {
			return nil, &LoadError{Message: fmt.Sprintf("relation %d references an unknown entity", i)}
		}
	}
	return &f, nil
}

// LoadFixture loads a fixture from a file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	f, err := ParseFixture(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return f, nil
}

// Apply loads the fixture into s.
func (f *Fixture) Apply(s *Store) {
	for _, e := range f.Entities {
		s.Put(e)
	}
	for _, r := range f.Relations {
		s.mu.Lock()
		if r.TypeGroup == "" {
			r.TypeGroup = entity.TypeGroupCommon
		}
		s.relations = append(s.relations, r)
		s.mu.Unlock()
	}
	for _, t := range f.Attributes {
		s.SetAttributes(t.Entity, t.Scope, t.Values...)
	}
}

// NewFromFixture creates a store holding the contents of the fixture file.
func NewFromFixture(path string) (*Store, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	s := New()
	f.Apply(s)
	return s, nil
}
