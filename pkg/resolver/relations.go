package resolver

import (
	"context"
	"fmt"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
)

// root resolves the anchor of a graph query from state or configuration
// and substitutes viewer placeholders.
func root(r alias.Root, viewer entity.Viewer, state *alias.StateParams) (entity.Ref, bool) {
	ref := r.Entity
	if r.FromState {
		ref = state.EntityID(r.ParamName, r.Default)
	}
	if ref == nil {
		return entity.Ref{}, false
	}
	resolved := viewer.Substitute(*ref)
	if resolved.ID == "" {
		return entity.Ref{}, false
	}
	return resolved, true
}

func searchParameters(rootRef entity.Ref, d entity.Direction, maxLevel int, lastLevelOnly bool) entity.RelationsSearchParameters {
	return entity.RelationsSearchParameters{
		RootID:             rootRef.ID,
		RootType:           rootRef.EntityType,
		Direction:          d,
		MaxLevel:           entity.NormalizeMaxLevel(maxLevel),
		FetchLastLevelOnly: lastLevelOnly,
	}
}

// relationsQuery runs one relation query and fetches the far endpoint of
// each returned edge, keeping edge order.
func (e *Evaluator) relationsQuery(ctx context.Context, viewer entity.Viewer, state *alias.StateParams, f alias.RelationsQuery, maxItems int) ([]entity.Entity, error) {
	rootRef, ok := root(f.Root, viewer, state)
	if !ok {
		return nil, errNoRoot
	}
	if e.dir.Relations == nil {
		return nil, fmt.Errorf("%w: no relation service", alias.ErrMalformedFilter)
	}

	q := entity.RelationsQuery{
		Parameters: searchParameters(rootRef, f.Direction, f.MaxLevel, f.FetchLastLevelOnly),
		Filters:    f.Filters,
	}
	edges, err := e.dir.Relations.FindByQuery(ctx, q)
	e.config.Metrics.RecordRemoteCall(OpRelations, err)
	if err != nil {
		return nil, &RemoteError{Op: OpRelations, Ref: rootRef, Err: err}
	}
	if maxItems > 0 && len(edges) > maxItems {
		edges = edges[:maxItems]
	}

	refs := make([]entity.Ref, len(edges))
	for i, edge := range edges {
		refs[i] = edge.Far(f.Direction)
	}
	return e.fetchAll(ctx, refs)
}

// searchQuery runs a typed search; the backend returns entities directly.
// The result is truncated to maxItems when it is positive.
func (e *Evaluator) searchQuery(ctx context.Context, viewer entity.Viewer, state *alias.StateParams, f alias.SearchQuery, maxItems int) ([]entity.Entity, error) {
	rootRef, ok := root(f.Root, viewer, state)
	if !ok {
		return nil, errNoRoot
	}
	searcher, err := e.dir.Searcher(f.EntityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", alias.ErrMalformedFilter, err)
	}

	q := entity.SearchQuery{
		Parameters:   searchParameters(rootRef, f.Direction, f.MaxLevel, f.FetchLastLevelOnly),
		RelationType: f.RelationType,
		EntityType:   f.EntityType,
		SubTypes:     f.SubTypes,
	}
	found, err := searcher.FindByQuery(ctx, q)
	e.config.Metrics.RecordRemoteCall(OpSearch, err)
	if err != nil {
		return nil, &RemoteError{Op: OpSearch, Ref: rootRef, Err: err}
	}
	if maxItems > 0 && len(found) > maxItems {
		found = found[:maxItems]
	}
	return found, nil
}
