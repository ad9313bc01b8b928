package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/batch"
	"github.com/dashlink/dashlink-go/pkg/entity"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/remote"
)

// AllItems as maxItems asks for every matching entity.
const AllItems = -1

// Remote operation names used in errors and metrics.
const (
	OpGet       = "get"
	OpGetMany   = "getMany"
	OpList      = "list"
	OpRelations = "relations"
	OpSearch    = "search"
)

// Config configures an Evaluator.
type Config struct {
	// PackSize bounds concurrent per-entity fetches. Zero uses
	// batch.DefaultPackSize.
	PackSize int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives one resolver event per resolution. May be nil.
	Events *dashlog.Emitter

	// Metrics records resolution outcomes. May be nil.
	Metrics *metrics.Metrics
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() Config {
	return Config{PackSize: batch.DefaultPackSize}
}

// Result is the outcome of resolving one filter.
type Result struct {
	// Entities in result order. Never nil.
	Entities []entity.Info

	// StateEntity reports whether the result depends on dashboard state.
	StateEntity bool

	// EntityParamName is the state parameter the filter reads, if any.
	EntityParamName string
}

// Evaluator resolves alias filters against a remote directory.
// It holds no per-call state and is safe for concurrent use.
type Evaluator struct {
	dir    *remote.Directory
	config Config
}

// New creates an evaluator with default configuration.
func New(dir *remote.Directory) *Evaluator {
	return NewWithConfig(dir, DefaultConfig())
}

// NewWithConfig creates an evaluator with custom configuration.
func NewWithConfig(dir *remote.Directory, config Config) *Evaluator {
	if config.PackSize <= 0 {
		config.PackSize = batch.DefaultPackSize
	}
	return &Evaluator{dir: dir, config: config}
}

// Resolve evaluates f for viewer. state carries dashboard navigation state
// and may be nil. A non-positive maxItems other than AllItems is treated as
// AllItems.
//
// Remote failures are returned as *RemoteError. When failOnEmpty is set an
// empty result returns ErrEmptyResult, except for StateEntity filters and
// malformed filters (including graph queries without a resolvable root),
// which always resolve without error.
func (e *Evaluator) Resolve(ctx context.Context, f alias.Filter, viewer entity.Viewer, state *alias.StateParams, maxItems int, failOnEmpty bool) (Result, error) {
	start := time.Now()
	res := Result{Entities: []entity.Info{}}

	var filterType string
	var entities []entity.Entity
	var err error
	if f == nil {
		err = fmt.Errorf("%w: no filter", alias.ErrMalformedFilter)
	} else {
		filterType = string(f.Type())
		res.StateEntity = alias.IsStateBound(f)
		res.EntityParamName = alias.StateParamName(f)
		if err = f.Validate(); err == nil {
			entities, err = e.evaluate(ctx, f, viewer, state, maxItems)
		}
	}

	outcome := dashlog.OutcomeOK
	switch {
	case errors.Is(err, alias.ErrMalformedFilter):
		e.debugLog("resolver: malformed filter resolves empty", "type", filterType, "error", err)
		outcome = dashlog.OutcomeMalformed
		err = nil
	case err != nil:
		e.record(filterType, maxItems, failOnEmpty, dashlog.OutcomeFailed, 0, res.StateEntity, time.Since(start))
		return Result{}, err
	case len(entities) == 0:
		outcome = dashlog.OutcomeEmpty
		if _, isState := f.(alias.StateEntity); failOnEmpty && !isState {
			err = ErrEmptyResult
		}
	}

	res.Entities = append(res.Entities, entity.InfosFromEntities(entities)...)
	e.record(filterType, maxItems, failOnEmpty, outcome, len(entities), res.StateEntity, time.Since(start))
	return res, err
}

func (e *Evaluator) evaluate(ctx context.Context, f alias.Filter, viewer entity.Viewer, state *alias.StateParams, maxItems int) ([]entity.Entity, error) {
	switch f := f.(type) {
	case alias.SingleEntity:
		return e.singleEntity(ctx, viewer.Substitute(f.Entity))
	case alias.EntityList:
		return e.entityList(ctx, f.EntityType, f.IDs)
	case alias.EntityName:
		return e.listByName(ctx, viewer, f.EntityType, f.NamePrefix, "", maxItems)
	case alias.TypeFilter:
		return e.listByName(ctx, viewer, f.EntityType, f.NamePrefix, f.SubType, maxItems)
	case alias.StateEntity:
		return e.stateEntity(ctx, viewer, state, f)
	case alias.RelationsQuery:
		return e.relationsQuery(ctx, viewer, state, f, maxItems)
	case alias.SearchQuery:
		return e.searchQuery(ctx, viewer, state, f, maxItems)
	}
	return nil, fmt.Errorf("%w: unsupported filter %T", alias.ErrMalformedFilter, f)
}

func (e *Evaluator) singleEntity(ctx context.Context, ref entity.Ref) ([]entity.Entity, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("%w: no id for %s", alias.ErrMalformedFilter, ref.EntityType)
	}
	ent, err := e.get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return []entity.Entity{ent}, nil
}

func (e *Evaluator) stateEntity(ctx context.Context, viewer entity.Viewer, state *alias.StateParams, f alias.StateEntity) ([]entity.Entity, error) {
	ref := state.EntityID(f.ParamName, f.Default)
	if ref == nil {
		return nil, nil
	}
	target := viewer.Substitute(*ref)
	if target.ID == "" {
		return nil, nil
	}
	ent, err := e.get(ctx, target)
	if err != nil {
		// State may point at an entity the viewer cannot see.
		e.debugLog("resolver: state entity unavailable", "entity", target.String(), "error", err)
		return nil, nil
	}
	return []entity.Entity{ent}, nil
}

// get fetches one entity through the directory.
func (e *Evaluator) get(ctx context.Context, ref entity.Ref) (entity.Entity, error) {
	svc, err := e.service(ref.EntityType)
	if err != nil {
		return entity.Entity{}, err
	}
	ent, err := svc.Get(ctx, ref.ID)
	e.config.Metrics.RecordRemoteCall(OpGet, err)
	if err != nil {
		return entity.Entity{}, &RemoteError{Op: OpGet, Ref: ref, Err: err}
	}
	return ent, nil
}

// service returns the entity service for t. A type the backend does not
// serve makes the filter malformed rather than failing the dashboard.
func (e *Evaluator) service(t entity.EntityType) (remote.EntityService, error) {
	svc, err := e.dir.EntityService(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", alias.ErrMalformedFilter, err)
	}
	return svc, nil
}

func (e *Evaluator) record(filterType string, maxItems int, failOnEmpty bool, outcome dashlog.Outcome, count int, stateEntity bool, d time.Duration) {
	e.config.Metrics.RecordResolve(filterType, outcome.String(), d)
	e.config.Events.Emit(dashlog.Event{
		Direction: dashlog.DirectionIn,
		Layer:     dashlog.LayerResolver,
		Category:  dashlog.CategoryResult,
		Resolve: &dashlog.ResolveEvent{
			FilterType:  filterType,
			MaxItems:    maxItems,
			FailOnEmpty: failOnEmpty,
			Outcome:     outcome,
			Count:       count,
			StateEntity: stateEntity,
			Duration:    d,
		},
	})
}

func (e *Evaluator) debugLog(msg string, args ...any) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, args...)
	}
}
