// Package commands implements the dashlink-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dashlink/dashlink-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	SessionID string
	EntityID  string
	Scope     string
}

// Matches reports whether the event passes every criterion of f.
func (f ViewFilter) Matches(event log.Event) bool {
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	lf := log.Filter{
		SessionID: f.SessionID,
		Layer:     f.Layer,
		Category:  f.Category,
		EntityID:  f.EntityID,
		Scope:     f.Scope,
	}
	return lf.Matches(event)
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s\n",
		ts, shortenID(event.SessionID), event.Direction.String(), event.Layer.String(), typeLabel(event))

	if event.EntityType != "" || event.EntityID != "" {
		fmt.Fprintf(w, "  Entity: %s/%s", event.EntityType, event.EntityID)
		if event.Scope != "" {
			fmt.Fprintf(w, "  Scope: %s", event.Scope)
		}
		fmt.Fprintln(w)
	}

	switch {
	case event.Resolve != nil:
		formatResolveDetails(w, event.Resolve)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload an event carries.
func typeLabel(event log.Event) string {
	switch {
	case event.Resolve != nil:
		return "Resolve"
	case event.Frame != nil:
		return "Frame"
	case event.Command != nil:
		if event.Command.Unsubscribe {
			return "Unsubscribe"
		}
		return "Subscribe"
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatResolveDetails(w io.Writer, r *log.ResolveEvent) {
	fmt.Fprintf(w, "  Filter: %s  MaxItems: %d", r.FilterType, r.MaxItems)
	if r.FailOnEmpty {
		fmt.Fprint(w, "  failOnEmpty")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Outcome: %s  Count: %d  Duration: %s\n", r.Outcome.String(), r.Count, formatDuration(r.Duration))
	if r.StateEntity {
		fmt.Fprintln(w, "  StateEntity: true")
	}
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	if frame.SubscriptionKey != "" {
		fmt.Fprintf(w, "  Key: %s\n", frame.SubscriptionKey)
	}
	if frame.CmdID != 0 {
		fmt.Fprintf(w, "  CmdID: %d\n", frame.CmdID)
	}
	if len(frame.Keys) > 0 {
		fmt.Fprintf(w, "  Keys: %s\n", strings.Join(frame.Keys, ", "))
	}
	if frame.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	}
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatCommandDetails(w io.Writer, cmd *log.CommandEvent) {
	fmt.Fprintf(w, "  CmdID: %d  Family: %s\n", cmd.CmdID, cmd.Family)
	if cmd.Keys != "" {
		fmt.Fprintf(w, "  Keys: %s\n", cmd.Keys)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "resolver":
		return log.LayerResolver, nil
	case "multiplexer":
		return log.LayerMultiplexer, nil
	case "channel":
		return log.LayerChannel, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be resolver, multiplexer, or channel)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "request":
		return log.CategoryRequest, nil
	case "result":
		return log.CategoryResult, nil
	case "frame":
		return log.CategoryFrame, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be request, result, frame, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.Matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}
