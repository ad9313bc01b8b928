package channel

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dashlink/dashlink-go/pkg/entity"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// Client errors.
var (
	ErrClientClosed        = errors.New("channel client is closed")
	ErrUnknownSubscription = errors.New("update for unknown subscription")
)

// Sender delivers an encoded command batch to the backend.
type Sender interface {
	Send(data []byte) error
}

// Config configures a Client.
type Config struct {
	// Codec encodes commands and decodes updates. Nil uses JSON.
	Codec wire.Codec

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives channel events. May be nil.
	Events *dashlog.Emitter

	// Metrics records commands and updates. May be nil.
	Metrics *metrics.Metrics

	// Reconnect makes a Channel redial after the connection drops and
	// resend the subscribe command of every open subscription.
	Reconnect bool

	// Backoff spaces redial attempts.
	Backoff BackoffConfig
}

// DefaultConfig returns the default channel configuration.
func DefaultConfig() Config {
	return Config{Codec: wire.JSONCodec{}, Reconnect: true}
}

// route is one open subscription.
type route struct {
	cmd     wire.SubscriptionCmd
	family  wire.CommandScope
	onFrame func(wire.Frame)
}

// Client sends subscription commands and routes updates.
type Client struct {
	mu sync.RWMutex

	sender Sender
	config Config

	// Command ID generator
	nextCmdID int32

	routes map[int]*route
	closed bool
}

// NewClient creates a client with default configuration.
func NewClient(sender Sender) *Client {
	return NewClientWithConfig(sender, DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(sender Sender, config Config) *Client {
	if config.Codec == nil {
		config.Codec = wire.JSONCodec{}
	}
	return &Client{
		sender: sender,
		config: config,
		routes: make(map[int]*route),
	}
}

// Codec returns the codec used on the wire.
func (c *Client) Codec() wire.Codec {
	return c.config.Codec
}

// nextID generates the next command ID.
func (c *Client) nextID() int {
	return int(atomic.AddInt32(&c.nextCmdID, 1))
}

// familyFor maps an attribute scope onto its command family.
func familyFor(scope entity.AttributeScope) wire.CommandScope {
	if scope.IsTelemetry() {
		return wire.CommandTimeseries
	}
	return wire.CommandAttributes
}

// Subscribe sends a subscribe command for ref and scope. onFrame receives
// the data of every update routed to the subscription, on the goroutine
// that calls HandleMessage.
func (c *Client) Subscribe(ref entity.Ref, scope entity.AttributeScope, onFrame func(wire.Frame)) (remote.Handle, error) {
	r := &route{
		cmd: wire.SubscriptionCmd{
			CmdID:      c.nextID(),
			EntityType: string(ref.EntityType),
			EntityID:   ref.ID,
			Scope:      string(scope),
		},
		family:  familyFor(scope),
		onFrame: onFrame,
	}

	// Register before sending so an immediate update is routed.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.routes[r.cmd.CmdID] = r
	c.mu.Unlock()

	if err := c.send(r.family, r.cmd); err != nil {
		c.mu.Lock()
		delete(c.routes, r.cmd.CmdID)
		c.mu.Unlock()
		return nil, err
	}
	return &handle{client: c, cmdID: r.cmd.CmdID}, nil
}

// unsubscribe removes the route and sends the unsubscribe command.
func (c *Client) unsubscribe(cmdID int) error {
	c.mu.Lock()
	r, ok := c.routes[cmdID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.routes, cmdID)
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return nil
	}
	cmd := r.cmd
	cmd.Unsubscribe = true
	return c.send(r.family, cmd)
}

// send delivers cmd to the current sender. Without a sender the command is
// dropped; subscribe commands are replayed by attach.
func (c *Client) send(family wire.CommandScope, cmd wire.SubscriptionCmd) error {
	c.mu.RLock()
	sender := c.sender
	c.mu.RUnlock()
	if sender == nil {
		c.debugLog("channel: command deferred until reconnect", "cmdId", cmd.CmdID, "unsubscribe", cmd.Unsubscribe)
		return nil
	}
	return c.sendTo(sender, family, cmd)
}

func (c *Client) sendTo(sender Sender, family wire.CommandScope, cmd wire.SubscriptionCmd) error {
	var batch wire.CommandWrapper
	batch.Add(family, cmd)
	data, err := c.config.Codec.EncodeCommands(batch)
	if err != nil {
		return err
	}
	if err := sender.Send(data); err != nil {
		c.config.Events.EmitError(dashlog.LayerChannel, "send command", err)
		return err
	}

	c.config.Metrics.RecordCommand(commandFamily(family), cmd.Unsubscribe)
	c.config.Events.Emit(dashlog.Event{
		Direction:  dashlog.DirectionOut,
		Layer:      dashlog.LayerChannel,
		Category:   dashlog.CategoryRequest,
		EntityType: cmd.EntityType,
		EntityID:   cmd.EntityID,
		Scope:      cmd.Scope,
		Command: &dashlog.CommandEvent{
			CmdID:       cmd.CmdID,
			Family:      commandFamily(family),
			Unsubscribe: cmd.Unsubscribe,
			Keys:        cmd.Keys,
		},
	})
	return nil
}

func commandFamily(f wire.CommandScope) string {
	if f == wire.CommandTimeseries {
		return "tsSubCmds"
	}
	return "attrSubCmds"
}

// HandleMessage decodes one update and hands its data to the subscription
// it is addressed to. Error updates are logged and dropped.
func (c *Client) HandleMessage(data []byte) error {
	update, err := c.config.Codec.DecodeUpdate(data)
	if err != nil {
		c.config.Metrics.RecordUpdate("error")
		c.config.Events.EmitError(dashlog.LayerChannel, "decode update", err)
		return err
	}

	c.mu.RLock()
	r, ok := c.routes[update.SubscriptionID]
	c.mu.RUnlock()

	if !ok {
		c.config.Metrics.RecordUpdate("unrouted")
		c.debugLog("channel: update for unknown subscription", "subscriptionId", update.SubscriptionID)
		return ErrUnknownSubscription
	}
	if update.IsError() {
		c.config.Metrics.RecordUpdate("error")
		c.debugLog("channel: subscription error",
			"subscriptionId", update.SubscriptionID,
			"code", update.ErrorCode,
			"message", update.ErrorMsg)
		c.config.Events.EmitError(dashlog.LayerChannel, "subscription "+r.cmd.EntityID, errors.New(update.ErrorMsg))
		return nil
	}

	c.config.Metrics.RecordUpdate("ok")
	c.config.Events.Emit(dashlog.Event{
		Direction:  dashlog.DirectionIn,
		Layer:      dashlog.LayerChannel,
		Category:   dashlog.CategoryFrame,
		EntityType: r.cmd.EntityType,
		EntityID:   r.cmd.EntityID,
		Scope:      r.cmd.Scope,
		Frame: &dashlog.FrameEvent{
			CmdID: update.SubscriptionID,
			Keys:  update.Data.Keys(),
			Size:  len(data),
		},
	})
	if len(update.Data) > 0 && r.onFrame != nil {
		r.onFrame(update.Data)
	}
	return nil
}

// detach drops the sender. Commands issued until the next attach are
// deferred.
func (c *Client) detach() {
	c.mu.Lock()
	c.sender = nil
	c.mu.Unlock()
}

// attach installs sender and resends the subscribe command of every open
// subscription in command id order.
func (c *Client) attach(sender Sender) error {
	c.mu.Lock()
	c.sender = sender
	routes := make([]*route, 0, len(c.routes))
	for _, r := range c.routes {
		routes = append(routes, r)
	}
	c.mu.Unlock()

	slices.SortFunc(routes, func(a, b *route) int { return a.cmd.CmdID - b.cmd.CmdID })

	var errs []error
	for _, r := range routes {
		if err := c.sendTo(sender, r.family, r.cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Active returns the number of open subscriptions.
func (c *Client) Active() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}

// Close drops every subscription without sending unsubscribe commands.
// Later Subscribe calls fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.routes = make(map[int]*route)
	return nil
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

// handle closes one subscription.
type handle struct {
	client *Client
	cmdID  int
	closed atomic.Bool
}

// Close unsubscribes. Only the first call sends a command.
func (h *handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.client.unsubscribe(h.cmdID)
}

// Compile-time interface satisfaction checks.
var (
	_ remote.PushChannel = (*Client)(nil)
	_ remote.Handle      = (*handle)(nil)
)
