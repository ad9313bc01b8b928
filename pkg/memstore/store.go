package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/remote"
)

// Operation names used for call counting and hooks.
const (
	OpList        = "list"
	OpGet         = "get"
	OpGetMany     = "getMany"
	OpRelations   = "relations"
	OpSearch      = "search"
	OpGetValues   = "getValues"
	OpGetKeys     = "getKeys"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Hook is invoked before each remote call. A non-nil error fails the call.
// Returning after a sleep simulates latency.
type Hook func(ctx context.Context, op string, ref entity.Ref) error

// Store is an in-memory backend. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	entities  map[entity.Ref]entity.Entity
	relations []entity.RelationEdge
	tables    map[tableKey][]entity.Attribute

	subs      map[tableKey][]*handle
	nextSubID uint64

	calls map[string]int
	hook  Hook
}

type tableKey struct {
	ref   entity.Ref
	scope entity.AttributeScope
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entities: make(map[entity.Ref]entity.Entity),
		tables:   make(map[tableKey][]entity.Attribute),
		subs:     make(map[tableKey][]*handle),
		calls:    make(map[string]int),
	}
}

// SetHook installs a hook invoked before every remote call.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Delay returns a hook sleeping d before each call of the given operations
// (all operations when none are given).
func Delay(d time.Duration, ops ...string) Hook {
	return func(ctx context.Context, op string, _ entity.Ref) error {
		if len(ops) > 0 && !slices.Contains(ops, op) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
}

// Calls returns how many times op was called.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// ResetCalls clears the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// enter counts the call and runs the hook outside the lock.
func (s *Store) enter(ctx context.Context, op string, ref entity.Ref) error {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hook
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if hook != nil {
		return hook(ctx, op, ref)
	}
	return nil
}

// Put adds or replaces an entity.
func (s *Store) Put(e entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
}

// Relate adds a relation edge. An empty type group defaults to COMMON.
func (s *Store) Relate(from, to entity.Ref, relationType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations = append(s.relations, entity.RelationEdge{
		From:      from,
		To:        to,
		Type:      relationType,
		TypeGroup: entity.TypeGroupCommon,
	})
}

// Directory returns a remote directory backed by the store for every
// listable entity type.
func (s *Store) Directory() *remote.Directory {
	dir := &remote.Directory{
		Entities:   make(map[entity.EntityType]remote.EntityService),
		Searchers:  make(map[entity.EntityType]remote.Searcher),
		Relations:  relationView{s},
		Attributes: s,
		Push:       s,
	}
	for _, t := range []entity.EntityType{
		entity.TypeDevice, entity.TypeAsset, entity.TypeEntityView, entity.TypeEdge,
		entity.TypeTenant, entity.TypeCustomer, entity.TypeDashboard, entity.TypeUser,
		entity.TypeRuleChain, entity.TypeAlarm,
	} {
		dir.Entities[t] = s.Service(t)
	}
	for _, t := range []entity.EntityType{entity.TypeAsset, entity.TypeDevice, entity.TypeEntityView, entity.TypeEdge} {
		dir.Searchers[t] = s.Searcher(t)
	}
	return dir
}

// Service returns the entity service for type t.
func (s *Store) Service(t entity.EntityType) *TypeService {
	return &TypeService{store: s, entityType: t}
}

// TypeService serves the entities of one type.
type TypeService struct {
	store      *Store
	entityType entity.EntityType
}

// Get fetches one entity.
func (ts *TypeService) Get(ctx context.Context, id string) (entity.Entity, error) {
	ref := entity.NewRef(ts.entityType, id)
	if err := ts.store.enter(ctx, OpGet, ref); err != nil {
		return entity.Entity{}, err
	}

	ts.store.mu.RLock()
	defer ts.store.mu.RUnlock()
	e, ok := ts.store.entities[ref]
	if !ok {
		return entity.Entity{}, &remote.NotFoundError{Ref: ref}
	}
	return e, nil
}

// GetMany fetches several entities in one call. Missing ids are skipped.
// Results are returned sorted by id, not in request order.
func (ts *TypeService) GetMany(ctx context.Context, ids []string) ([]entity.Entity, error) {
	if err := ts.store.enter(ctx, OpGetMany, entity.Ref{EntityType: ts.entityType}); err != nil {
		return nil, err
	}

	ts.store.mu.RLock()
	defer ts.store.mu.RUnlock()
	out := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := ts.store.entities[entity.NewRef(ts.entityType, id)]; ok {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b entity.Entity) int { return strings.Compare(a.ID.ID, b.ID.ID) })
	return out, nil
}

// List returns one page of entities ordered by name, then id.
func (ts *TypeService) List(ctx context.Context, link entity.PageLink, subType string) (entity.PageData, error) {
	if err := ts.store.enter(ctx, OpList, entity.Ref{EntityType: ts.entityType}); err != nil {
		return entity.PageData{}, err
	}

	ts.store.mu.RLock()
	matches := ts.store.matching(ts.entityType, subType, link.TextSearch)
	ts.store.mu.RUnlock()

	start := 0
	if link.IDOffset != "" {
		for i, e := range matches {
			if e.ID.ID == link.IDOffset {
				start = i + 1
				break
			}
		}
	}

	limit := link.Limit
	if limit <= 0 {
		limit = len(matches)
	}
	end := min(start+limit, len(matches))

	page := entity.PageData{Data: slices.Clone(matches[start:end])}
	if end < len(matches) {
		next := link
		next.IDOffset = matches[end-1].ID.ID
		page.HasNext = true
		page.NextPageLink = &next
	}
	return page, nil
}

// matching returns the entities of type t with the given subtype and name
// prefix, sorted. Callers hold the read lock.
func (s *Store) matching(t entity.EntityType, subType, prefix string) []entity.Entity {
	prefix = strings.ToLower(prefix)
	var out []entity.Entity
	for ref, e := range s.entities {
		if ref.EntityType != t {
			continue
		}
		if subType != "" && e.Type != subType {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b entity.Entity) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID.ID, b.ID.ID)
	})
	return out
}

// Compile-time interface satisfaction checks.
var (
	_ remote.EntityService    = (*TypeService)(nil)
	_ remote.BulkGetter       = (*TypeService)(nil)
	_ remote.AttributeService = (*Store)(nil)
	_ remote.PushChannel      = (*Store)(nil)
)
