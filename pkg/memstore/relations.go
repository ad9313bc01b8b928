package memstore

import (
	"context"
	"slices"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/remote"
)

// hit is one matching edge found by a traversal.
type hit struct {
	edge  entity.RelationEdge
	level int
}

// traverse walks the relation graph breadth first from params' root. Every
// node is expanded at most once; edges are reported when they pass match.
// Callers hold the read lock.
func (s *Store) traverse(params entity.RelationsSearchParameters, match func(entity.RelationEdge, entity.Ref) bool) []hit {
	root := params.Root()
	maxLevel := entity.NormalizeMaxLevel(params.MaxLevel)

	visited := map[entity.Ref]bool{root: true}
	frontier := []entity.Ref{root}
	var hits []hit

	for level := 1; len(frontier) > 0 && (maxLevel == entity.UnboundedLevel || level <= maxLevel); level++ {
		var next []entity.Ref
		for _, node := range frontier {
			for _, e := range s.relations {
				near := e.From
				if params.Direction == entity.DirectionTo {
					near = e.To
				}
				if near != node {
					continue
				}
				far := e.Far(params.Direction)
				if match(e, far) {
					hits = append(hits, hit{edge: e, level: level})
				}
				if !visited[far] {
					visited[far] = true
					next = append(next, far)
				}
			}
		}
		frontier = next
	}

	if params.FetchLastLevelOnly && len(hits) > 0 {
		deepest := hits[len(hits)-1].level
		hits = slices.DeleteFunc(hits, func(h hit) bool { return h.level != deepest })
	}
	return hits
}

func matchFilters(filters []entity.RelationFilter) func(entity.RelationEdge, entity.Ref) bool {
	return func(e entity.RelationEdge, far entity.Ref) bool {
		if len(filters) == 0 {
			return true
		}
		for _, f := range filters {
			if f.RelationType != "" && f.RelationType != e.Type {
				continue
			}
			if len(f.EntityTypes) > 0 && !slices.Contains(f.EntityTypes, far.EntityType) {
				continue
			}
			return true
		}
		return false
	}
}

// relationView implements remote.RelationService.
type relationView struct {
	store *Store
}

// FindByQuery returns the matching edges in traversal order.
func (v relationView) FindByQuery(ctx context.Context, q entity.RelationsQuery) ([]entity.RelationEdge, error) {
	if err := v.store.enter(ctx, OpRelations, q.Parameters.Root()); err != nil {
		return nil, err
	}

	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	hits := v.store.traverse(q.Parameters, matchFilters(q.Filters))
	edges := make([]entity.RelationEdge, 0, len(hits))
	for _, h := range hits {
		edges = append(edges, h.edge)
	}
	return edges, nil
}

// FindInfoByQuery returns the matching edges with endpoint names.
func (v relationView) FindInfoByQuery(ctx context.Context, q entity.RelationsQuery) ([]entity.RelationEdgeInfo, error) {
	edges, err := v.FindByQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	infos := make([]entity.RelationEdgeInfo, 0, len(edges))
	for _, e := range edges {
		infos = append(infos, entity.RelationEdgeInfo{
			RelationEdge: e,
			FromName:     v.store.entities[e.From].Name,
			ToName:       v.store.entities[e.To].Name,
		})
	}
	return infos, nil
}

// Searcher returns the search service for type t.
func (s *Store) Searcher(t entity.EntityType) *SearchService {
	return &SearchService{store: s, entityType: t}
}

// SearchService implements remote.Searcher for one entity type.
type SearchService struct {
	store      *Store
	entityType entity.EntityType
}

// FindByQuery returns the distinct entities reachable from the query root
// over relations of q.RelationType whose subtype is in q.SubTypes.
func (ss *SearchService) FindByQuery(ctx context.Context, q entity.SearchQuery) ([]entity.Entity, error) {
	if err := ss.store.enter(ctx, OpSearch, q.Parameters.Root()); err != nil {
		return nil, err
	}

	ss.store.mu.RLock()
	defer ss.store.mu.RUnlock()

	filter := []entity.RelationFilter{{RelationType: q.RelationType, EntityTypes: []entity.EntityType{ss.entityType}}}
	hits := ss.store.traverse(q.Parameters, matchFilters(filter))

	seen := make(map[entity.Ref]bool, len(hits))
	out := make([]entity.Entity, 0, len(hits))
	for _, h := range hits {
		far := h.edge.Far(q.Parameters.Direction)
		if seen[far] {
			continue
		}
		seen[far] = true
		e, ok := ss.store.entities[far]
		if !ok {
			continue
		}
		if len(q.SubTypes) > 0 && !slices.Contains(q.SubTypes, e.Type) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Compile-time interface satisfaction checks.
var (
	_ remote.RelationService = relationView{}
	_ remote.Searcher        = (*SearchService)(nil)
)
