package resolver

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dashlink/dashlink-go/pkg/batch"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/paging"
	"github.com/dashlink/dashlink-go/pkg/remote"
)

// entityList fetches ids of type t and returns them in the order of ids.
// An id the backend does not know fails the whole list.
func (e *Evaluator) entityList(ctx context.Context, t entity.EntityType, ids []string) ([]entity.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	svc, err := e.service(t)
	if err != nil {
		return nil, err
	}

	var found []entity.Entity
	if bulk, ok := svc.(remote.BulkGetter); ok {
		found, err = bulk.GetMany(ctx, ids)
		e.config.Metrics.RecordRemoteCall(OpGetMany, err)
		if err != nil {
			return nil, &RemoteError{Op: OpGetMany, Ref: entity.Ref{EntityType: t}, Err: err}
		}
		if err := missingID(t, found, ids); err != nil {
			return nil, err
		}
	} else {
		refs := make([]entity.Ref, len(ids))
		for i, id := range ids {
			refs[i] = entity.NewRef(t, id)
		}
		found, err = e.fetchAll(ctx, refs)
		if err != nil {
			return nil, err
		}
	}

	return sortByIDs(found, ids), nil
}

// sortByIDs orders entities by the position of their id in ids.
func sortByIDs(found []entity.Entity, ids []string) []entity.Entity {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}
	out := make([]entity.Entity, 0, len(found))
	for _, ent := range found {
		if _, ok := pos[ent.ID.ID]; ok {
			out = append(out, ent)
		}
	}
	slices.SortStableFunc(out, func(a, b entity.Entity) int {
		return pos[a.ID.ID] - pos[b.ID.ID]
	})
	return out
}

// missingID returns a not-found RemoteError for the first id of ids that a
// bulk fetch did not return.
func missingID(t entity.EntityType, found []entity.Entity, ids []string) error {
	seen := make(map[string]bool, len(found))
	for _, ent := range found {
		seen[ent.ID.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			ref := entity.NewRef(t, id)
			return &RemoteError{Op: OpGetMany, Ref: ref, Err: &remote.NotFoundError{Ref: ref}}
		}
	}
	return nil
}

// fetchAll fetches refs concurrently in packs. The result keeps the order
// of refs; any failed fetch, including an unknown entity, fails the call.
func (e *Evaluator) fetchAll(ctx context.Context, refs []entity.Ref) ([]entity.Entity, error) {
	return batch.Map(ctx, e.config.PackSize, refs, func(ctx context.Context, ref entity.Ref) (entity.Entity, error) {
		return e.get(ctx, ref)
	})
}

// listByName lists entities of type t whose name starts with prefix,
// ignoring case. A viewer confined to its own tenant or customer only sees
// that one entity.
func (e *Evaluator) listByName(ctx context.Context, viewer entity.Viewer, t entity.EntityType, prefix, subType string, maxItems int) ([]entity.Entity, error) {
	if own, ok := viewer.OwnScope(t); ok {
		return e.ownEntity(ctx, own, prefix)
	}

	svc, err := e.service(t)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, link entity.PageLink) (entity.PageData, error) {
		page, err := svc.List(ctx, link, subType)
		e.config.Metrics.RecordRemoteCall(OpList, err)
		return page, err
	}

	var found []entity.Entity
	if maxItems > 0 {
		found, err = paging.First(ctx, fetch, entity.PageLink{Limit: maxItems, TextSearch: prefix})
	} else {
		found, err = paging.Drain(ctx, fetch, entity.PageLink{Limit: paging.DefaultPageSize, TextSearch: prefix})
	}
	if err != nil {
		return nil, &RemoteError{Op: OpList, Ref: entity.Ref{EntityType: t}, Err: err}
	}
	return found, nil
}

func (e *Evaluator) ownEntity(ctx context.Context, own entity.Ref, prefix string) ([]entity.Entity, error) {
	if own.ID == "" {
		return nil, nil
	}
	ent, err := e.get(ctx, own)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.ToLower(ent.Name), strings.ToLower(prefix)) {
		return nil, nil
	}
	return []entity.Entity{ent}, nil
}
