package resolver

import (
	"context"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
)

// AliasInfo is an alias together with its resolved entities.
type AliasInfo struct {
	Alias            alias.Alias
	StateEntity      bool
	EntityParamName  string
	ResolveMultiple  bool
	ResolvedEntities []entity.Info

	// CurrentEntity is the first resolved entity, or nil.
	CurrentEntity *entity.Info
}

// ResolveAlias resolves every entity of a. Empty results are not errors.
func (e *Evaluator) ResolveAlias(ctx context.Context, a alias.Alias, viewer entity.Viewer, state *alias.StateParams) (AliasInfo, error) {
	res, err := e.Resolve(ctx, a.Filter, viewer, state, AllItems, false)
	if err != nil {
		return AliasInfo{}, err
	}
	info := AliasInfo{
		Alias:            a,
		StateEntity:      res.StateEntity,
		EntityParamName:  res.EntityParamName,
		ResolveMultiple:  a.ResolveMultiple,
		ResolvedEntities: res.Entities,
	}
	if len(res.Entities) > 0 {
		current := res.Entities[0]
		info.CurrentEntity = &current
	}
	return info, nil
}

// CheckAlias reports whether a can resolve to at least one entity without
// navigation state. State-bound aliases are always valid.
func (e *Evaluator) CheckAlias(ctx context.Context, a alias.Alias, viewer entity.Viewer) bool {
	res, err := e.Resolve(ctx, a.Filter, viewer, nil, 1, true)
	if err != nil {
		e.debugLog("resolver: alias check failed", "alias", a.Name, "error", err)
		return false
	}
	return res.StateEntity || len(res.Entities) > 0
}
