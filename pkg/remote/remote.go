package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// Remote errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrUnsupportedType = errors.New("unsupported entity type")
	ErrNoPushChannel   = errors.New("no push channel configured")
)

// EntityService lists and fetches entities of one type.
type EntityService interface {
	// List returns one page of entities whose name starts with
	// link.TextSearch (case-insensitive). A non-empty subType restricts the
	// listing to entities of that subtype.
	List(ctx context.Context, link entity.PageLink, subType string) (entity.PageData, error)

	// Get fetches one entity by id.
	Get(ctx context.Context, id string) (entity.Entity, error)
}

// BulkGetter is implemented by entity services that can fetch many ids in a
// single call. Returned entities may come back in any order.
type BulkGetter interface {
	GetMany(ctx context.Context, ids []string) ([]entity.Entity, error)
}

// RelationService runs relation-graph queries.
type RelationService interface {
	FindByQuery(ctx context.Context, query entity.RelationsQuery) ([]entity.RelationEdge, error)
	FindInfoByQuery(ctx context.Context, query entity.RelationsQuery) ([]entity.RelationEdgeInfo, error)
}

// Searcher runs relation traversals filtered server side by entity type and
// subtype.
type Searcher interface {
	FindByQuery(ctx context.Context, query entity.SearchQuery) ([]entity.Entity, error)
}

// AttributeService reads entity value tables.
type AttributeService interface {
	// GetValues returns the values of keys, or every key when keys is empty.
	GetValues(ctx context.Context, ref entity.Ref, scope entity.AttributeScope, keys []string) ([]entity.Attribute, error)

	// GetKeys lists the key names present in scope.
	GetKeys(ctx context.Context, ref entity.Ref, scope entity.AttributeScope) ([]string, error)
}

// Handle is an open upstream subscription.
type Handle interface {
	Close() error
}

// PushChannel opens upstream subscriptions that deliver Frames.
// onFrame is invoked in delivery order and never concurrently for one handle.
type PushChannel interface {
	Subscribe(ref entity.Ref, scope entity.AttributeScope, onFrame func(wire.Frame)) (Handle, error)
}

// Directory bundles the services of one backend.
type Directory struct {
	Entities   map[entity.EntityType]EntityService
	Searchers  map[entity.EntityType]Searcher
	Relations  RelationService
	Attributes AttributeService
	Push       PushChannel
}

// EntityService returns the service for type t.
func (d *Directory) EntityService(t entity.EntityType) (EntityService, error) {
	if svc, ok := d.Entities[t]; ok && svc != nil {
		return svc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// Searcher returns the search service for type t.
func (d *Directory) Searcher(t entity.EntityType) (Searcher, error) {
	if s, ok := d.Searchers[t]; ok && s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s search", ErrUnsupportedType, t)
}

// Get fetches one entity through the service registered for its type.
func (d *Directory) Get(ctx context.Context, ref entity.Ref) (entity.Entity, error) {
	svc, err := d.EntityService(ref.EntityType)
	if err != nil {
		return entity.Entity{}, err
	}
	return svc.Get(ctx, ref.ID)
}

// NotFoundError reports a missing entity. It matches ErrNotFound.
type NotFoundError struct {
	Ref entity.Ref
}

func (e *NotFoundError) Error() string {
	return "entity not found: " + e.Ref.String()
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
