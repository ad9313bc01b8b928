package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes engine events to an slog.Logger.
// Useful for development when you want to see events in the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.EntityType != "" {
		attrs = append(attrs, slog.String("entity", event.EntityType+":"+event.EntityID))
	}
	if event.Scope != "" {
		attrs = append(attrs, slog.String("scope", event.Scope))
	}

	switch {
	case event.Resolve != nil:
		attrs = append(attrs,
			slog.String("filter", event.Resolve.FilterType),
			slog.String("outcome", event.Resolve.Outcome.String()),
			slog.Int("count", event.Resolve.Count),
			slog.Int("max_items", event.Resolve.MaxItems),
			slog.Duration("duration", event.Resolve.Duration),
		)
		if event.Resolve.StateEntity {
			attrs = append(attrs, slog.Bool("state_entity", true))
		}
	case event.Frame != nil:
		attrs = append(attrs, slog.Any("keys", event.Frame.Keys))
		if event.Frame.SubscriptionKey != "" {
			attrs = append(attrs, slog.String("sub_key", event.Frame.SubscriptionKey))
		}
		if event.Frame.CmdID != 0 {
			attrs = append(attrs, slog.Int("cmd_id", event.Frame.CmdID))
		}
		if event.Frame.Size > 0 {
			attrs = append(attrs, slog.Int("size", event.Frame.Size))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("state_entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.Int("cmd_id", event.Command.CmdID),
			slog.String("family", event.Command.Family),
			slog.Bool("unsubscribe", event.Command.Unsubscribe),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), a.level, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
