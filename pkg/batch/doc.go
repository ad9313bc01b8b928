// Package batch runs large sets of independent remote calls in packs.
//
// A pack is a consecutive slice of at most DefaultPackSize tasks. Tasks
// within a pack run concurrently; packs run strictly one after another, so
// the backend never sees more than one pack of requests in flight. Results
// are returned in input order no matter in which order tasks finish.
//
// The first task error cancels the context of its pack, the pack is drained,
// and no later pack is started. The whole call then fails with that error.
package batch
