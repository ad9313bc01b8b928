package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/batch"
	"github.com/dashlink/dashlink-go/pkg/entity"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/resolver"
	"github.com/dashlink/dashlink-go/pkg/subscription"
)

// Session errors.
var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrSessionClosed = errors.New("session is closed")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoAttributes  = errors.New("backend has no attribute service")
	ErrInvalidRef    = errors.New("entity reference needs a type and an id")
)

// Config configures a Session.
type Config struct {
	// Viewer is the user on whose behalf the session resolves aliases.
	Viewer entity.Viewer

	// PackSize bounds concurrent per-entity fetches during resolution.
	PackSize int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives resolver, multiplexer and channel events. May be nil.
	Events *dashlog.Emitter

	// Metrics is shared by the evaluator and the subscription manager.
	// May be nil.
	Metrics *metrics.Metrics
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Viewer:   entity.Viewer{Authority: entity.AuthorityTenantAdmin},
		PackSize: batch.DefaultPackSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PackSize < 0 {
		return fmt.Errorf("%w: negative pack size %d", ErrInvalidConfig, c.PackSize)
	}
	if c.Viewer.Authority == "" {
		return fmt.Errorf("%w: viewer authority is required", ErrInvalidConfig)
	}
	return nil
}

// Watch identifies the attribute registration created by
// GetEntityAttributes.
type Watch struct {
	// Key is the shared subscription the registration belongs to. Pass it
	// to UnsubscribeForEntityAttributes when done.
	Key subscription.Key

	// ID is the registration itself. Pass it to Unwatch to stop updates
	// while keeping the subscription.
	ID subscription.WatchID
}

// Status is a snapshot of a session.
type Status struct {
	SessionID     string
	Viewer        entity.Viewer
	Aliases       int
	Subscriptions int
	State         *alias.StateParams
}

// Session is one consumer of a backend: a viewer, the dashboard aliases it
// works with, the navigation state and its attribute subscriptions.
type Session struct {
	mu sync.RWMutex

	config Config
	dir    *remote.Directory

	evaluator *resolver.Evaluator
	subs      *subscription.Manager

	aliases map[string]alias.Alias
	order   []string
	state   *alias.StateParams
	closed  bool
}

// NewSession creates a session over dir.
func NewSession(dir *remote.Directory, config Config) (*Session, error) {
	if dir == nil {
		return nil, fmt.Errorf("%w: directory is required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	evalConfig := resolver.DefaultConfig()
	if config.PackSize > 0 {
		evalConfig.PackSize = config.PackSize
	}
	evalConfig.Logger = config.Logger
	evalConfig.Events = config.Events
	evalConfig.Metrics = config.Metrics

	subConfig := subscription.DefaultConfig()
	subConfig.Logger = config.Logger
	subConfig.Events = config.Events
	subConfig.Metrics = config.Metrics

	return &Session{
		config:    config,
		dir:       dir,
		evaluator: resolver.NewWithConfig(dir, evalConfig),
		subs:      subscription.NewManagerWithConfig(dir.Attributes, dir.Push, subConfig),
		aliases:   make(map[string]alias.Alias),
	}, nil
}

// Viewer returns the session's viewer.
func (s *Session) Viewer() entity.Viewer {
	return s.config.Viewer
}

// SessionID returns the id stamped on the session's events.
func (s *Session) SessionID() string {
	return s.config.Events.SessionID()
}

// SetAliases replaces the dashboard aliases known to the session.
func (s *Session) SetAliases(aliases []alias.Alias) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.aliases = make(map[string]alias.Alias, len(aliases))
	s.order = s.order[:0]
	for _, a := range aliases {
		if _, dup := s.aliases[a.ID]; !dup {
			s.order = append(s.order, a.ID)
		}
		s.aliases[a.ID] = a
	}
}

// Aliases returns the dashboard aliases in the order they were set.
func (s *Session) Aliases() []alias.Alias {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]alias.Alias, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.aliases[id])
	}
	return out
}

// Alias returns the alias with id.
func (s *Session) Alias(id string) (alias.Alias, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.aliases[id]
	return a, ok
}

// FindAlias returns the alias whose id or name equals ref, preferring ids.
// Names compare case-insensitively.
func (s *Session) FindAlias(ref string) (alias.Alias, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.aliases[ref]; ok {
		return a, true
	}
	for _, id := range s.order {
		if strings.EqualFold(s.aliases[id].Name, ref) {
			return s.aliases[id], true
		}
	}
	return alias.Alias{}, false
}

// SetState replaces the navigation state used by state-bound filters.
func (s *Session) SetState(state *alias.StateParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// State returns the navigation state.
func (s *Session) State() *alias.StateParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ResolveAliasFilter resolves f for the session's viewer and state.
// maxItems and failOnEmpty behave as in resolver.Evaluator.Resolve.
func (s *Session) ResolveAliasFilter(ctx context.Context, f alias.Filter, maxItems int, failOnEmpty bool) (resolver.Result, error) {
	if err := s.checkOpen(); err != nil {
		return resolver.Result{}, err
	}
	return s.evaluator.Resolve(ctx, f, s.config.Viewer, s.State(), maxItems, failOnEmpty)
}

// ResolveAlias resolves the dashboard alias with id to every entity it
// selects.
func (s *Session) ResolveAlias(ctx context.Context, id string) (resolver.AliasInfo, error) {
	if err := s.checkOpen(); err != nil {
		return resolver.AliasInfo{}, err
	}
	a, ok := s.Alias(id)
	if !ok {
		return resolver.AliasInfo{}, fmt.Errorf("%w: %s", ErrAliasNotFound, id)
	}
	return s.evaluator.ResolveAlias(ctx, a, s.config.Viewer, s.State())
}

// ResolveAliases resolves every dashboard alias. Aliases that fail to
// resolve are reported in the joined error; the others are returned.
func (s *Session) ResolveAliases(ctx context.Context) (map[string]resolver.AliasInfo, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	state := s.State()
	out := make(map[string]resolver.AliasInfo)
	var errs []error
	for _, a := range s.Aliases() {
		info, err := s.evaluator.ResolveAlias(ctx, a, s.config.Viewer, state)
		if err != nil {
			errs = append(errs, fmt.Errorf("alias %q: %w", a.Name, err))
			continue
		}
		out[a.ID] = info
	}
	return out, errors.Join(errs...)
}

// CheckAlias reports whether the dashboard alias with id resolves to at
// least one entity. Unknown ids are invalid.
func (s *Session) CheckAlias(ctx context.Context, id string) bool {
	a, ok := s.Alias(id)
	if !ok || s.checkOpen() != nil {
		return false
	}
	return s.evaluator.CheckAlias(ctx, a, s.config.Viewer)
}

// SubscribeForEntityAttributes adds a subscriber for the values of ref in
// scope and returns the shared subscription key.
func (s *Session) SubscribeForEntityAttributes(ref entity.Ref, scope entity.AttributeScope) (subscription.Key, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	ref, err := s.entityRef(ref)
	if err != nil {
		return "", err
	}
	return s.subs.Subscribe(ref, scope)
}

// UnsubscribeForEntityAttributes drops one subscriber of key. The last one
// closes the upstream subscription.
func (s *Session) UnsubscribeForEntityAttributes(key subscription.Key) error {
	return s.subs.Unsubscribe(key)
}

// GetEntityAttributes subscribes to the values of ref in scope and returns
// the current page shaped by query. onData, when non-nil, receives a new
// page after every push update until the watch is removed.
func (s *Session) GetEntityAttributes(ctx context.Context, ref entity.Ref, scope entity.AttributeScope, query subscription.Query, onData func(subscription.Page)) (subscription.Page, Watch, error) {
	key, err := s.SubscribeForEntityAttributes(ref, scope)
	if err != nil {
		return subscription.Page{}, Watch{}, err
	}
	page, id, err := s.subs.FetchAndWatch(ctx, key, query, onData)
	if err != nil {
		if uerr := s.subs.Unsubscribe(key); uerr != nil {
			s.debugLog("service: release after failed fetch", "key", key, "error", uerr)
		}
		return subscription.Page{}, Watch{}, err
	}
	return page, Watch{Key: key, ID: id}, nil
}

// Unwatch stops the updates of one GetEntityAttributes registration.
func (s *Session) Unwatch(id subscription.WatchID) error {
	return s.subs.Unwatch(id)
}

// Values returns the cached values of a subscription.
func (s *Session) Values(key subscription.Key) ([]entity.Attribute, error) {
	return s.subs.Values(key)
}

// Subscriptions returns the keys of the open subscriptions, sorted.
func (s *Session) Subscriptions() []subscription.Key {
	keys := s.subs.Keys()
	slices.Sort(keys)
	return keys
}

// GetEntityKeys lists the key names of ref in scope whose name starts with
// query, compared case-insensitively. An empty query lists every key.
func (s *Session) GetEntityKeys(ctx context.Context, ref entity.Ref, scope entity.AttributeScope, query string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if s.dir.Attributes == nil {
		return nil, ErrNoAttributes
	}
	ref, err := s.entityRef(ref)
	if err != nil {
		return nil, err
	}
	keys, err := s.dir.Attributes.GetKeys(ctx, ref, scope)
	if err != nil {
		return nil, err
	}

	prefix := strings.ToLower(query)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(strings.ToLower(k), prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		SessionID:     s.config.Events.SessionID(),
		Viewer:        s.config.Viewer,
		Aliases:       len(s.aliases),
		Subscriptions: s.subs.Count(),
		State:         s.state,
	}
}

// Close tears down every subscription. Later calls fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.debugLog("service: session closed", "subscriptions", s.subs.Count())
	return s.subs.Close()
}

func (s *Session) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// entityRef substitutes placeholders and rejects incomplete references.
func (s *Session) entityRef(ref entity.Ref) (entity.Ref, error) {
	ref = s.config.Viewer.Substitute(ref)
	if ref.IsZero() {
		return ref, fmt.Errorf("%w: %v", ErrInvalidRef, ref)
	}
	return ref, nil
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}
