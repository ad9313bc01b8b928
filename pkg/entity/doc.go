// Package entity defines the data model shared by alias resolution and
// attribute subscriptions.
//
// An entity is addressed by a Ref: the pair of its EntityType and its opaque
// string id. Remote services return full Entity records; resolution turns
// them into immutable Info values that carry only what dashboards display.
//
// # Pagination
//
// Listing endpoints take a PageLink and return PageData. A PageData either
// carries the PageLink for the following page in NextPageLink or reports that
// no further page exists through HasNext. The paging package walks these
// links without recursion.
//
// # Relations
//
// Relation queries walk the entity graph starting at a root entity, following
// edges FROM the root (outgoing) or TO the root (incoming), up to a maximum
// depth. MaxLevel values of zero or less mean unbounded and are normalized to
// UnboundedLevel before a query is sent.
package entity
