package log

import (
	"time"

	"github.com/google/uuid"
)

// Logger is the interface applications implement to receive engine events.
// Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records an event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking stalls the
	// resolver or the push delivery path that emitted it.
	Log(event Event)
}

// NoopLogger discards all events. Use when capture is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Emitter stamps events with a session id and timestamp before handing them
// to a Logger. A nil *Emitter discards events.
type Emitter struct {
	logger    Logger
	sessionID string
	now       func() time.Time
}

// NewEmitter creates an emitter. A nil logger discards events; an empty
// sessionID gets a generated one.
func NewEmitter(logger Logger, sessionID string) *Emitter {
	if logger == nil {
		logger = NoopLogger{}
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &Emitter{logger: logger, sessionID: sessionID, now: time.Now}
}

// SessionID returns the id stamped on every event.
func (e *Emitter) SessionID() string {
	if e == nil {
		return ""
	}
	return e.sessionID
}

// Emit fills Timestamp and SessionID and logs the event.
func (e *Emitter) Emit(event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	event.SessionID = e.sessionID
	e.logger.Log(event)
}

// EmitError logs an error event for layer.
func (e *Emitter) EmitError(layer Layer, context string, err error) {
	if e == nil || err == nil {
		return
	}
	e.Emit(Event{
		Layer:    layer,
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: layer, Message: err.Error(), Context: context},
	})
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
