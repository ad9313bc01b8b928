package log

import (
	"time"
)

// Event represents an engine event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the session that emitted the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow relative to the backend.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Entity the event concerns, if any.
	EntityType string `cbor:"6,keyasint,omitempty"`
	EntityID   string `cbor:"7,keyasint,omitempty"`

	// Scope is the attribute scope for subscription events.
	Scope string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Resolve     *ResolveEvent     `cbor:"10,keyasint,omitempty"` // Resolver layer
	Frame       *FrameEvent       `cbor:"11,keyasint,omitempty"` // Multiplexer and channel
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Registration/subscription state
	Command     *CommandEvent     `cbor:"13,keyasint,omitempty"` // Channel layer
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the backend.
	DirectionIn Direction = 0
	// DirectionOut indicates a request sent to the backend.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerResolver is alias filter evaluation.
	LayerResolver Layer = 0
	// LayerMultiplexer is the shared subscription registry.
	LayerMultiplexer Layer = 1
	// LayerChannel is the push channel client.
	LayerChannel Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerResolver:
		return "RESOLVER"
	case LayerMultiplexer:
		return "MULTIPLEXER"
	case LayerChannel:
		return "CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRequest indicates a request issued by the engine.
	CategoryRequest Category = 0
	// CategoryResult indicates a completed request.
	CategoryResult Category = 1
	// CategoryFrame indicates a push frame.
	CategoryFrame Category = 2
	// CategoryState indicates a state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "REQUEST"
	case CategoryResult:
		return "RESULT"
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Outcome classifies how a resolution ended.
type Outcome uint8

const (
	OutcomeOK        Outcome = 0
	OutcomeEmpty     Outcome = 1
	OutcomeMalformed Outcome = 2
	OutcomeFailed    Outcome = 3
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResolveEvent captures one alias filter resolution.
type ResolveEvent struct {
	FilterType  string        `cbor:"1,keyasint"`
	MaxItems    int           `cbor:"2,keyasint"`
	FailOnEmpty bool          `cbor:"3,keyasint,omitempty"`
	Outcome     Outcome       `cbor:"4,keyasint"`
	Count       int           `cbor:"5,keyasint"`
	StateEntity bool          `cbor:"6,keyasint,omitempty"`
	Duration    time.Duration `cbor:"7,keyasint"`
}

// FrameEvent captures a push frame.
type FrameEvent struct {
	// SubscriptionKey is the multiplexer key the frame was applied to.
	SubscriptionKey string `cbor:"1,keyasint,omitempty"`

	// CmdID is the channel subscription id the frame arrived on.
	CmdID int `cbor:"2,keyasint,omitempty"`

	// Keys lists the keys carried by the frame in frame order.
	Keys []string `cbor:"3,keyasint,omitempty"`

	// Size is the encoded message size in bytes.
	Size int `cbor:"4,keyasint,omitempty"`

	// Data is the raw message (may be truncated for large messages).
	Data []byte `cbor:"5,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures registration and subscription lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityUpstream is a shared upstream subscription.
	StateEntityUpstream StateEntity = 0
	// StateEntityRegistration is one observer registration.
	StateEntityRegistration StateEntity = 1
	// StateEntityChannel is the push channel connection.
	StateEntityChannel StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityUpstream:
		return "UPSTREAM"
	case StateEntityRegistration:
		return "REGISTRATION"
	case StateEntityChannel:
		return "CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent captures a push-channel subscription command.
type CommandEvent struct {
	CmdID       int    `cbor:"1,keyasint"`
	Family      string `cbor:"2,keyasint"`
	Unsubscribe bool   `cbor:"3,keyasint,omitempty"`
	Keys        string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
