// Package subscription multiplexes attribute subscriptions.
//
// Many widgets may watch the same entity attributes. The Manager keeps at
// most one upstream push subscription per (entity, scope) pair and fans
// updates out to every local observer.
//
// # Keys and Reference Counting
//
// A Key is the entity type, entity id and scope concatenated. Subscribe
// opens the upstream subscription on the first call for a key and only
// counts further calls. Unsubscribe drops one count; the last one closes the
// upstream handle and discards the value table.
//
// # Value Table
//
// Each key owns a value table of attribute rows in first-seen order. A push
// frame overwrites the rows for the keys it carries and appends rows for new
// keys; rows absent from the frame are left untouched. Frames are applied
// in delivery order.
//
// # Priming and Live Updates
//
// FetchAndWatch returns the current values and registers an observer. The
// first call for a key primes the table with one remote fetch; calls made
// while that fetch is in flight share it, and later calls are served from
// the table without a network call. Every registration starts PRIMING and
// becomes LIVE once it has been served its first page. LIVE registrations
// receive a freshly computed page after each push frame.
//
// A failed priming fetch is not an error: the caller gets an empty page and
// the subscription stays attached, so the next FetchAndWatch retries. The
// priming fetch is not bound to the caller that started it: a cancelled
// caller leaves it running for the others, and Close cancels it.
package subscription
