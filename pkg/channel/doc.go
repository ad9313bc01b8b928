// Package channel implements the telemetry push channel.
//
// A Client turns attribute subscriptions into subscription commands. Each
// subscription gets a command id (cmdId); updates carry that id back as
// their subscriptionId and are routed to the frame callback registered for
// it. Attribute scopes use the attrSubCmds family and LATEST_TELEMETRY the
// tsSubCmds family.
//
// The Client only needs a Sender. Connect dials a websocket endpoint, wires
// a Client to it and runs the read loop:
//
//	ch, err := channel.Connect(ctx, "ws://host/api/ws/plugins/telemetry", channel.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
//
//	handle, err := ch.Subscribe(ref, entity.ScopeServer, onFrame)
//
// When the connection drops, a Channel created with Config.Reconnect
// redials with exponential backoff and resends the subscribe command of
// every open subscription under its original cmdId. Commands issued while
// disconnected are deferred to that replay.
//
// Client satisfies remote.PushChannel, so a subscription.Manager can use it
// as its upstream.
package channel
