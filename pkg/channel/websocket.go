package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	dashlog "github.com/dashlink/dashlink-go/pkg/log"
)

// DefaultHandshakeTimeout bounds the websocket opening handshake.
const DefaultHandshakeTimeout = 45 * time.Second

// Conn is a websocket connection usable as a Sender. Writes are serialized;
// reads happen only in ReadLoop.
type Conn struct {
	ws      *websocket.Conn
	binary  bool
	writeMu sync.Mutex
	closed  atomic.Bool
}

// Dial opens a websocket connection to url. Binary selects binary frames
// for outgoing messages.
func Dial(ctx context.Context, url string, binary bool) (*Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, binary: binary}, nil
}

// Send writes one message.
func (c *Conn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	kind := websocket.TextMessage
	if c.binary {
		kind = websocket.BinaryMessage
	}
	return c.ws.WriteMessage(kind, data)
}

// ReadLoop passes every received message to handle until the connection
// closes or ctx is done. A normal or local close returns nil.
func (c *Conn) ReadLoop(ctx context.Context, handle func([]byte) error) error {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		// Per-message errors do not end the loop.
		_ = handle(data)
	}
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.ws.Close()
	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		return errors.Join(werr, err)
	}
	return err
}

// State is the connection state of a Channel.
type State int

const (
	// StateConnected means the websocket is open.
	StateConnected State = iota
	// StateReconnecting means the connection dropped and a redial is pending.
	StateReconnecting
	// StateClosed means the channel is closed for good.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Channel is a Client bound to a websocket connection with a running read
// loop. With Config.Reconnect set, a dropped connection is redialed with
// backoff and open subscriptions are resent.
type Channel struct {
	*Client

	url     string
	backoff *Backoff

	mu      sync.Mutex
	conn    *Conn
	state   State
	closing bool

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Connect dials url and starts routing updates to a new Client.
func Connect(ctx context.Context, url string, config Config) (*Channel, error) {
	client := NewClientWithConfig(nil, config)
	conn, err := Dial(ctx, url, client.Codec().Binary())
	if err != nil {
		return nil, err
	}
	if err := client.attach(conn); err != nil {
		conn.Close()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	ch := &Channel{
		Client:  client,
		url:     url,
		backoff: NewBackoff(config.Backoff),
		conn:    conn,
		state:   StateConnected,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go ch.run(loopCtx)
	return ch, nil
}

// run reads from the current connection and redials when it drops.
func (ch *Channel) run(ctx context.Context) {
	defer close(ch.done)
	defer ch.setState(StateClosed, "")

	for {
		ch.mu.Lock()
		conn := ch.conn
		ch.mu.Unlock()

		err := conn.ReadLoop(ctx, ch.Client.HandleMessage)
		ch.Client.debugLog("channel: read loop ended", "error", err)
		if !ch.Client.config.Reconnect || ch.isClosing() || ctx.Err() != nil {
			ch.err = err
			return
		}

		ch.Client.detach()
		conn.Close()
		reason := "connection closed"
		if err != nil {
			reason = err.Error()
		}
		ch.setState(StateReconnecting, reason)

		if !ch.redial(ctx) {
			ch.err = err
			return
		}
	}
}

// redial dials until it succeeds or ctx is done. It reports whether a new
// connection is installed.
func (ch *Channel) redial(ctx context.Context) bool {
	for {
		delay := ch.backoff.Next()
		ch.Client.debugLog("channel: redial scheduled", "delay", delay, "attempt", ch.backoff.Attempts())
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}

		dialCtx, cancel := context.WithTimeout(ctx, DefaultHandshakeTimeout)
		conn, err := Dial(dialCtx, ch.url, ch.Client.Codec().Binary())
		cancel()
		ch.Client.config.Metrics.RecordRedial(err)
		if err != nil {
			ch.Client.config.Events.EmitError(dashlog.LayerChannel, "redial", err)
			continue
		}

		ch.mu.Lock()
		if ch.closing {
			ch.mu.Unlock()
			conn.Close()
			return false
		}
		ch.conn = conn
		ch.mu.Unlock()

		ch.backoff.Reset()
		if err := ch.Client.attach(conn); err != nil {
			ch.Client.config.Events.EmitError(dashlog.LayerChannel, "resubscribe", err)
		}
		ch.setState(StateConnected, "")
		return true
	}
}

func (ch *Channel) isClosing() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closing
}

func (ch *Channel) setState(state State, reason string) {
	ch.mu.Lock()
	old := ch.state
	ch.state = state
	ch.mu.Unlock()
	if old == state {
		return
	}

	ch.Client.debugLog("channel: state changed", "from", old, "to", state, "reason", reason)
	ch.Client.config.Events.Emit(dashlog.Event{
		Layer:    dashlog.LayerChannel,
		Category: dashlog.CategoryState,
		StateChange: &dashlog.StateChangeEvent{
			Entity:   dashlog.StateEntityChannel,
			OldState: old.String(),
			NewState: state.String(),
			Reason:   reason,
		},
	})
}

// State returns the connection state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Done is closed when the channel has stopped for good.
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

// Err returns why the read loop ended. Valid after Done is closed.
func (ch *Channel) Err() error {
	return ch.err
}

// Close closes the client and the connection and waits for the read loop.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	ch.closing = true
	conn := ch.conn
	ch.mu.Unlock()

	ch.Client.Close()
	err := conn.Close()
	ch.cancel()
	<-ch.done
	return err
}
