// Package httpapi serves a Session over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/v1/aliases
//	GET    /api/v1/aliases/{aliasId}
//	GET    /api/v1/aliases/{aliasId}/check
//	POST   /api/v1/resolve?maxItems=N&failOnEmpty=true
//	GET    /api/v1/state
//	PUT    /api/v1/state
//	GET    /api/v1/entities/{entityType}/{entityId}/attributes/{scope}
//	GET    /api/v1/entities/{entityType}/{entityId}/keys/{scope}
//	GET    /api/v1/subscriptions
//	POST   /api/v1/subscriptions
//	DELETE /api/v1/subscriptions/{key}
//
// Errors are returned as {"error": "..."} with a status derived from the
// error kind.
package httpapi
