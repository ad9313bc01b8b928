// Package wire defines the push-channel message format for attribute and
// telemetry subscriptions.
//
// The client sends a CommandWrapper carrying attribute and time series
// subscription commands. Each command has a client-chosen CmdID; the server
// answers with Update messages whose SubscriptionID echoes that CmdID.
//
// # Frames
//
// An Update carries a Frame: for every key that changed, the samples as
// [ts, value] pairs. Frames keep the key order of the encoded message so
// that consumers can append newly seen keys in a stable order:
//
//	{"subscriptionId": 7, "data": {"ssid": [[1700000000000, "lab"]], "temp": [[1700000000000, 21.5]]}}
//
// # Codecs
//
// Two codecs are available. JSONCodec speaks the text protocol used by
// dashboard backends. CBORCodec encodes the same structures with integer
// keys for compact binary transports and captured traffic.
package wire
