package wire

import (
	"strings"
)

// CommandScope distinguishes the two subscription command families.
type CommandScope uint8

const (
	// CommandAttributes subscribes to an attribute scope.
	CommandAttributes CommandScope = 0
	// CommandTimeseries subscribes to the latest time series values.
	CommandTimeseries CommandScope = 1
)

// String returns the command family name.
func (c CommandScope) String() string {
	switch c {
	case CommandAttributes:
		return "ATTRIBUTES"
	case CommandTimeseries:
		return "TIMESERIES"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionCmd opens or closes one upstream subscription.
type SubscriptionCmd struct {
	CmdID       int    `json:"cmdId" cbor:"1,keyasint"`
	EntityType  string `json:"entityType" cbor:"2,keyasint"`
	EntityID    string `json:"entityId" cbor:"3,keyasint"`
	Scope       string `json:"scope,omitempty" cbor:"4,keyasint,omitempty"`
	Keys        string `json:"keys,omitempty" cbor:"5,keyasint,omitempty"`
	Unsubscribe bool   `json:"unsubscribe,omitempty" cbor:"6,keyasint,omitempty"`
}

// KeyList returns the comma separated Keys field as a slice.
func (c SubscriptionCmd) KeyList() []string {
	if c.Keys == "" {
		return nil
	}
	return strings.Split(c.Keys, ",")
}

// CommandWrapper is the envelope for commands sent by the client.
type CommandWrapper struct {
	AttrSubCmds []SubscriptionCmd `json:"attrSubCmds,omitempty" cbor:"1,keyasint,omitempty"`
	TsSubCmds   []SubscriptionCmd `json:"tsSubCmds,omitempty" cbor:"2,keyasint,omitempty"`
}

// Add appends cmd to the family selected by scope.
func (w *CommandWrapper) Add(scope CommandScope, cmd SubscriptionCmd) {
	if scope == CommandTimeseries {
		w.TsSubCmds = append(w.TsSubCmds, cmd)
		return
	}
	w.AttrSubCmds = append(w.AttrSubCmds, cmd)
}

// IsEmpty reports whether the wrapper carries no command.
func (w CommandWrapper) IsEmpty() bool {
	return len(w.AttrSubCmds) == 0 && len(w.TsSubCmds) == 0
}

// Update is a server message for one subscription.
type Update struct {
	SubscriptionID int    `json:"subscriptionId" cbor:"1,keyasint"`
	ErrorCode      int    `json:"errorCode,omitempty" cbor:"2,keyasint,omitempty"`
	ErrorMsg       string `json:"errorMsg,omitempty" cbor:"3,keyasint,omitempty"`
	Data           Frame  `json:"data,omitempty" cbor:"4,keyasint,omitempty"`
}

// IsError reports whether the server rejected the subscription.
func (u Update) IsError() bool {
	return u.ErrorCode != 0
}
