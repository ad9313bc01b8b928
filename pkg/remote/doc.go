// Package remote declares the collaborators the resolver and the
// subscription manager reach over the network.
//
// Every call that blocks takes a context.Context. Implementations are
// expected to be safe for concurrent use; the resolver issues up to one pack
// of calls at a time.
//
// A Directory bundles the per-entity-type services for one backend. The
// memstore package provides an in-memory implementation of every interface
// in this package.
package remote
