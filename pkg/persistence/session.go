package persistence

import (
	"os"
	"sync"
	"time"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/subscription"
)

// SessionVersion is the current version of the session file format.
const SessionVersion = 1

// SessionState is what an interactive session restores on start: who is
// viewing, the navigation state and the attribute subscriptions that were
// open. Attribute values are not stored; they are fetched again.
type SessionState struct {
	// Version is the session file format version.
	Version int `json:"version" yaml:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`

	// Dashboard is the path of the dashboard the session was working on.
	Dashboard string `json:"dashboard,omitempty" yaml:"dashboard,omitempty"`

	Viewer entity.Viewer `json:"viewer" yaml:"viewer"`

	// State is the dashboard navigation state.
	State *alias.StateParams `json:"state,omitempty" yaml:"state,omitempty"`

	// Subscriptions lists the open attribute subscriptions.
	Subscriptions []SubscriptionRecord `json:"subscriptions,omitempty" yaml:"subscriptions,omitempty"`
}

// SubscriptionRecord is one stored attribute subscription.
type SubscriptionRecord struct {
	Entity entity.Ref            `json:"entity" yaml:"entity"`
	Scope  entity.AttributeScope `json:"scope" yaml:"scope"`
}

// Key returns the subscription key of the record.
func (r SubscriptionRecord) Key() subscription.Key {
	return subscription.NewKey(r.Entity, r.Scope)
}

// SessionStore manages persistence of session state to a JSON or YAML
// file.
type SessionStore struct {
	mu     sync.Mutex
	path   string
	format Format
}

// NewSessionStore creates a new session store.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, format: FormatFor(path)}
}

// Save persists the session state to disk.
func (s *SessionStore) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Version = SessionVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := s.format.Marshal(state)
	if err != nil {
		return err
	}
	return writeFile(s.path, data)
}

// Load reads the session state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *SessionStore) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &SessionState{}
	if err := s.format.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
