package resolver

import (
	"errors"
	"fmt"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
)

// ErrEmptyResult is returned when a resolution produced no entities and the
// caller asked to fail on empty.
var ErrEmptyResult = errors.New("alias resolved to no entities")

// errNoRoot marks a graph query whose root could not be resolved.
var errNoRoot = fmt.Errorf("%w: unresolvable root entity", alias.ErrMalformedFilter)

// RemoteError wraps a failed call to a remote collaborator.
type RemoteError struct {
	// Op is the remote operation (get, getMany, list, relations, search).
	Op string

	// Ref is the entity the call concerned. For list and bulk calls only
	// the entity type is set.
	Ref entity.Ref

	Err error
}

func (e *RemoteError) Error() string {
	if e.Ref.ID != "" {
		return fmt.Sprintf("remote %s %s: %v", e.Op, e.Ref, e.Err)
	}
	if e.Ref.EntityType != "" {
		return fmt.Sprintf("remote %s %s: %v", e.Op, e.Ref.EntityType, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
