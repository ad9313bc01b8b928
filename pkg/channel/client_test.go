package channel

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// recordingSender records every batch sent.
type recordingSender struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (s *recordingSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, data)
	return nil
}

func (s *recordingSender) batches(t *testing.T, codec wire.Codec) []wire.CommandWrapper {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.CommandWrapper, 0, len(s.sent))
	for _, data := range s.sent {
		w, err := codec.DecodeCommands(data)
		require.NoError(t, err)
		out = append(out, w)
	}
	return out
}

var device = entity.NewRef(entity.TypeDevice, "dev-1")

func encodeUpdate(t *testing.T, codec wire.Codec, u wire.Update) []byte {
	t.Helper()
	data, err := codec.EncodeUpdate(u)
	require.NoError(t, err)
	return data
}

func TestSubscribeSendsCommandFamilies(t *testing.T) {
	sender := &recordingSender{}
	c := NewClient(sender)

	_, err := c.Subscribe(device, entity.ScopeServer, nil)
	require.NoError(t, err)
	_, err = c.Subscribe(device, entity.ScopeLatestTelemetry, nil)
	require.NoError(t, err)

	batches := sender.batches(t, wire.JSONCodec{})
	require.Len(t, batches, 2)

	require.Len(t, batches[0].AttrSubCmds, 1)
	assert.Empty(t, batches[0].TsSubCmds)
	assert.Equal(t, wire.SubscriptionCmd{
		CmdID:      1,
		EntityType: "DEVICE",
		EntityID:   "dev-1",
		Scope:      "SERVER_SCOPE",
	}, batches[0].AttrSubCmds[0])

	require.Len(t, batches[1].TsSubCmds, 1)
	assert.Equal(t, 2, batches[1].TsSubCmds[0].CmdID)
	assert.Equal(t, 2, c.Active())
}

func TestHandleMessageRoutesBySubscriptionID(t *testing.T) {
	for _, codec := range []wire.Codec{wire.JSONCodec{}, wire.CBORCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Codec = codec
			c := NewClientWithConfig(&recordingSender{}, cfg)

			var got1, got2 []wire.Frame
			_, err := c.Subscribe(device, entity.ScopeServer, func(f wire.Frame) { got1 = append(got1, f) })
			require.NoError(t, err)
			_, err = c.Subscribe(device, entity.ScopeShared, func(f wire.Frame) { got2 = append(got2, f) })
			require.NoError(t, err)

			frame := wire.Frame{}.Add("ssid", 100, "A").Add("rssi", 100, "-60")
			require.NoError(t, c.HandleMessage(encodeUpdate(t, codec, wire.Update{SubscriptionID: 2, Data: frame})))

			assert.Empty(t, got1)
			require.Len(t, got2, 1)
			assert.Equal(t, []string{"ssid", "rssi"}, got2[0].Keys())
		})
	}
}

func TestHandleMessageUnknownSubscription(t *testing.T) {
	c := NewClient(&recordingSender{})
	err := c.HandleMessage(encodeUpdate(t, wire.JSONCodec{}, wire.Update{SubscriptionID: 42}))
	assert.ErrorIs(t, err, ErrUnknownSubscription)
}

func TestHandleMessageErrorUpdateIsDropped(t *testing.T) {
	c := NewClient(&recordingSender{})
	called := false
	_, err := c.Subscribe(device, entity.ScopeServer, func(wire.Frame) { called = true })
	require.NoError(t, err)

	err = c.HandleMessage(encodeUpdate(t, wire.JSONCodec{}, wire.Update{
		SubscriptionID: 1,
		ErrorCode:      2,
		ErrorMsg:       "no permission",
		Data:           wire.Frame{}.Add("x", 1, 1),
	}))
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 1, c.Active())
}

func TestHandleMessageMalformed(t *testing.T) {
	c := NewClient(&recordingSender{})
	assert.Error(t, c.HandleMessage([]byte("{not json")))
}

func TestHandleCloseSendsUnsubscribeOnce(t *testing.T) {
	sender := &recordingSender{}
	c := NewClient(sender)
	h, err := c.Subscribe(device, entity.ScopeLatestTelemetry, func(wire.Frame) { t.Error("frame after close") })
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	batches := sender.batches(t, wire.JSONCodec{})
	require.Len(t, batches, 2)
	require.Len(t, batches[1].TsSubCmds, 1)
	unsub := batches[1].TsSubCmds[0]
	assert.True(t, unsub.Unsubscribe)
	assert.Equal(t, 1, unsub.CmdID)
	assert.Equal(t, 0, c.Active())

	err = c.HandleMessage(encodeUpdate(t, wire.JSONCodec{}, wire.Update{SubscriptionID: 1, Data: wire.Frame{}.Add("t", 1, 1)}))
	assert.ErrorIs(t, err, ErrUnknownSubscription)
}

func TestSubscribeSendFailure(t *testing.T) {
	boom := errors.New("broken pipe")
	c := NewClient(&recordingSender{err: boom})

	_, err := c.Subscribe(device, entity.ScopeServer, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Active())
}

func TestClosedClient(t *testing.T) {
	sender := &recordingSender{}
	c := NewClient(sender)
	h, err := c.Subscribe(device, entity.ScopeServer, nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	_, err = c.Subscribe(device, entity.ScopeServer, nil)
	assert.ErrorIs(t, err, ErrClientClosed)

	// Closing a handle after the client is a no-op.
	require.NoError(t, h.Close())
	assert.Len(t, sender.batches(t, wire.JSONCodec{}), 1)
}

func TestDetachedClientDefersCommands(t *testing.T) {
	first := &recordingSender{}
	c := NewClient(first)

	h, err := c.Subscribe(device, entity.ScopeServer, nil)
	require.NoError(t, err)
	require.Len(t, first.batches(t, wire.JSONCodec{}), 1)

	c.detach()
	_, err = c.Subscribe(device, entity.ScopeLatestTelemetry, nil)
	require.NoError(t, err, "subscribe while detached is deferred")
	gone, err := c.Subscribe(device, entity.ScopeClient, nil)
	require.NoError(t, err)
	require.NoError(t, gone.Close())
	assert.Len(t, first.batches(t, wire.JSONCodec{}), 1)

	second := &recordingSender{}
	require.NoError(t, c.attach(second))

	batches := second.batches(t, wire.JSONCodec{})
	require.Len(t, batches, 2)
	require.Len(t, batches[0].AttrSubCmds, 1)
	assert.Equal(t, 1, batches[0].AttrSubCmds[0].CmdID)
	require.Len(t, batches[1].TsSubCmds, 1)
	assert.Equal(t, 2, batches[1].TsSubCmds[0].CmdID)

	require.NoError(t, h.Close())
	batches = second.batches(t, wire.JSONCodec{})
	require.Len(t, batches, 3)
	assert.True(t, batches[2].AttrSubCmds[0].Unsubscribe)
}

func TestAttachReportsReplayFailures(t *testing.T) {
	c := NewClient(&recordingSender{})
	_, err := c.Subscribe(device, entity.ScopeServer, nil)
	require.NoError(t, err)

	broken := &recordingSender{err: errors.New("write: broken pipe")}
	err = c.attach(broken)
	assert.ErrorContains(t, err, "broken pipe")
	assert.Equal(t, 1, c.Active())
}
