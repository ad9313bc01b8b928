// Package service exposes the alias and attribute operations a dashboard
// consumer uses.
//
// A Session binds one viewer to one backend directory. It owns an alias
// evaluator and an attribute subscription manager, so every registry lives
// inside the session and two sessions never share state:
//
//	sess, err := service.NewSession(dir, service.DefaultConfig())
//	...
//	info, err := sess.ResolveAlias(ctx, "a1b2...")
//	page, w, err := sess.GetEntityAttributes(ctx, ref, entity.ScopeServer,
//		subscription.Query{Order: subscription.OrderKey}, onData)
//	...
//	sess.UnsubscribeForEntityAttributes(w.Key)
//
// Placeholder entity types (CURRENT_TENANT, CURRENT_CUSTOMER, CURRENT_USER)
// are replaced with the viewer's own entities before any remote call.
package service
