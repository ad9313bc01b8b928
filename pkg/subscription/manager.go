package subscription

import (
	"context"
	"sync"

	"github.com/dashlink/dashlink-go/pkg/entity"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// registration is one observer of a key.
type registration struct {
	id       WatchID
	query    Query
	onUpdate func(Page)
	state    State
}

// entry is the shared state of one key.
type entry struct {
	key   Key
	ref   entity.Ref
	scope entity.AttributeScope

	handle  remote.Handle
	ready   chan struct{} // closed once the upstream open finished
	openErr error
	removed bool

	subscribers int
	table       *Table

	// primed is set after the first successful priming fetch.
	primed  bool
	priming chan struct{} // non-nil while a priming fetch is in flight

	watches []*registration
}

// Manager multiplexes attribute subscriptions for one client session.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config Config

	attrs remote.AttributeService
	push  remote.PushChannel

	entries map[Key]*entry
	watches map[WatchID]*entry
	nextID  WatchID
	closed  bool

	// stop cancels in-flight priming fetches on Close.
	stop     context.Context
	stopFunc context.CancelFunc
}

// NewManager creates a subscription manager with default configuration.
func NewManager(attrs remote.AttributeService, push remote.PushChannel) *Manager {
	return NewManagerWithConfig(attrs, push, DefaultConfig())
}

// NewManagerWithConfig creates a subscription manager with custom
// configuration.
func NewManagerWithConfig(attrs remote.AttributeService, push remote.PushChannel, config Config) *Manager {
	stop, stopFunc := context.WithCancel(context.Background())
	return &Manager{
		config:   config,
		attrs:    attrs,
		push:     push,
		entries:  make(map[Key]*entry),
		watches:  make(map[WatchID]*entry),
		stop:     stop,
		stopFunc: stopFunc,
	}
}

// Subscribe adds a local subscriber for ref and scope and returns its key.
// The first subscriber opens the upstream subscription; concurrent callers
// for the same key wait for that open instead of issuing their own.
func (m *Manager) Subscribe(ref entity.Ref, scope entity.AttributeScope) (Key, error) {
	if m.push == nil {
		return "", remote.ErrNoPushChannel
	}
	key := NewKey(ref, scope)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	if e, ok := m.entries[key]; ok {
		e.subscribers++
		m.mu.Unlock()
		m.config.Metrics.SubscriberAdded()

		<-e.ready
		if e.openErr != nil {
			m.config.Metrics.SubscriberRemoved()
			return "", e.openErr
		}
		return key, nil
	}

	e := &entry{
		key:         key,
		ref:         ref,
		scope:       scope,
		ready:       make(chan struct{}),
		subscribers: 1,
		table:       NewTable(),
	}
	m.entries[key] = e
	m.mu.Unlock()
	m.config.Metrics.SubscriberAdded()

	// Open outside the lock; the push channel may deliver a frame before
	// Subscribe returns.
	handle, err := m.push.Subscribe(ref, scope, func(frame wire.Frame) {
		m.applyFrame(e, frame)
	})

	m.mu.Lock()
	var closeNow remote.Handle
	switch {
	case err != nil:
		e.openErr = err
		if m.entries[key] == e {
			delete(m.entries, key)
		}
		e.removed = true
	case e.removed:
		// Every subscriber left while the open was in flight.
		closeNow = handle
	default:
		e.handle = handle
	}
	close(e.ready)
	m.mu.Unlock()

	if err != nil {
		m.config.Metrics.SubscriberRemoved()
		m.config.Events.EmitError(dashlog.LayerMultiplexer, "subscribe "+string(key), err)
		return "", err
	}
	m.config.Metrics.UpstreamOpened()
	m.emitState(e, dashlog.StateEntityUpstream, "", "OPEN", "")
	if closeNow != nil {
		m.closeUpstream(e, closeNow)
	}
	return key, nil
}

// Unsubscribe drops one local subscriber of key. The last subscriber closes
// the upstream subscription and removes the entry with its registrations.
// An in-flight priming fetch is not cancelled; its result is dropped.
func (m *Manager) Unsubscribe(key Key) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return ErrNotSubscribed
	}
	e.subscribers--
	if e.subscribers > 0 {
		m.mu.Unlock()
		m.config.Metrics.SubscriberRemoved()
		return nil
	}

	delete(m.entries, key)
	e.removed = true
	for _, reg := range e.watches {
		delete(m.watches, reg.id)
	}
	e.watches = nil
	handle := e.handle
	e.handle = nil
	m.mu.Unlock()

	m.config.Metrics.SubscriberRemoved()
	if handle != nil {
		m.closeUpstream(e, handle)
	}
	return nil
}

func (m *Manager) closeUpstream(e *entry, h remote.Handle) {
	if err := h.Close(); err != nil {
		m.debugLog("subscription: upstream close failed", "key", e.key, "error", err)
	}
	m.config.Metrics.UpstreamClosed()
	m.emitState(e, dashlog.StateEntityUpstream, "OPEN", "CLOSED", "")
}

// FetchAndWatch returns the current values of key shaped by query and
// registers onUpdate for later push updates. onUpdate may be nil.
//
// Values come from the table when it has been primed. Otherwise one priming
// fetch runs, shared with concurrent callers for the same key. The fetch is
// not bound to any one caller: a caller whose ctx ends stops waiting and is
// unwatched while the fetch goes on for the others. Only Close cancels it.
// A failed fetch yields an empty page and no error.
func (m *Manager) FetchAndWatch(ctx context.Context, key Key, query Query, onUpdate func(Page)) (Page, WatchID, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return Page{}, 0, ErrNotSubscribed
	}
	m.nextID++
	reg := &registration{id: m.nextID, query: query, onUpdate: onUpdate, state: StatePriming}
	e.watches = append(e.watches, reg)
	m.watches[reg.id] = e

	if e.primed {
		page := m.goLive(e, reg)
		m.mu.Unlock()
		m.config.Metrics.RecordPriming(metrics.SourceCache, nil)
		return page, reg.id, nil
	}

	wait := e.priming
	if wait == nil {
		wait = make(chan struct{})
		e.priming = wait
		go m.prime(ctx, e, wait)
	}
	m.mu.Unlock()

	select {
	case <-wait:
	case <-ctx.Done():
		m.Unwatch(reg.id)
		return Page{}, 0, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !e.primed {
		// Priming failed; stay attached so the next fetch retries.
		reg.state = StateLive
		return EmptyPage(), reg.id, nil
	}
	return m.goLive(e, reg), reg.id, nil
}

// prime runs the priming fetch for e and merges the result if the entry
// still exists. The fetch keeps the values of ctx but not its cancellation.
func (m *Manager) prime(ctx context.Context, e *entry, done chan struct{}) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	unlink := context.AfterFunc(m.stop, cancel)
	defer unlink()

	var attrs []entity.Attribute
	var err error
	if m.attrs == nil {
		err = remote.ErrUnsupportedType
	} else {
		attrs, err = m.attrs.GetValues(ctx, e.ref, e.scope, nil)
	}
	m.config.Metrics.RecordPriming(metrics.SourceUpstream, err)
	if err != nil {
		m.debugLog("subscription: priming fetch failed", "key", e.key, "error", err)
		m.config.Events.EmitError(dashlog.LayerMultiplexer, "prime "+string(e.key), err)
	}

	m.mu.Lock()
	if err == nil && !e.removed {
		e.table.ApplyPrimed(attrs)
		e.primed = true
	}
	e.priming = nil
	close(done)
	m.mu.Unlock()
}

// goLive serves reg its first page and switches it to live updates.
// Callers hold the lock.
func (m *Manager) goLive(e *entry, reg *registration) Page {
	page := reg.query.Apply(e.table.rows)
	if reg.state != StateLive {
		reg.state = StateLive
		m.emitState(e, dashlog.StateEntityRegistration, StatePriming.String(), StateLive.String(), "")
	}
	return page
}

// Unwatch removes one registration.
func (m *Manager) Unwatch(id WatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.watches[id]
	if !ok {
		return ErrWatchNotFound
	}
	delete(m.watches, id)
	for i, reg := range e.watches {
		if reg.id == id {
			e.watches = append(e.watches[:i], e.watches[i+1:]...)
			break
		}
	}
	return nil
}

// applyFrame merges a push frame into e's table and notifies every live
// registration. Callbacks run outside the lock.
func (m *Manager) applyFrame(e *entry, frame wire.Frame) {
	type notification struct {
		fn   func(Page)
		page Page
	}

	m.mu.Lock()
	if e.removed {
		m.mu.Unlock()
		return
	}
	e.table.ApplyFrame(frame)
	var notify []notification
	for _, reg := range e.watches {
		if reg.state != StateLive || reg.onUpdate == nil {
			continue
		}
		notify = append(notify, notification{fn: reg.onUpdate, page: reg.query.Apply(e.table.rows)})
	}
	m.mu.Unlock()

	m.config.Metrics.RecordFrame(string(e.scope))
	m.config.Events.Emit(dashlog.Event{
		Direction:  dashlog.DirectionIn,
		Layer:      dashlog.LayerMultiplexer,
		Category:   dashlog.CategoryFrame,
		EntityType: string(e.ref.EntityType),
		EntityID:   e.ref.ID,
		Scope:      string(e.scope),
		Frame:      &dashlog.FrameEvent{SubscriptionKey: string(e.key), Keys: frame.Keys()},
	})

	for _, n := range notify {
		n.fn(n.page)
	}
}

// Values returns a copy of the value table of key.
func (m *Manager) Values(key Key) ([]entity.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotSubscribed
	}
	return e.table.Rows(), nil
}

// Subscribers returns the number of local subscribers of key.
func (m *Manager) Subscribers(key Key) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.entries[key]; ok {
		return e.subscribers
	}
	return 0
}

// Count returns the number of upstream subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Keys returns the keys of all upstream subscriptions.
func (m *Manager) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Close tears down every subscription. Later Subscribe calls fail with
// ErrClosed.
func (m *Manager) Close() error {
	m.stopFunc()

	m.mu.Lock()
	m.closed = true
	var open []*entry
	for key, e := range m.entries {
		delete(m.entries, key)
		e.removed = true
		if e.handle != nil {
			open = append(open, e)
		}
	}
	m.watches = make(map[WatchID]*entry)
	m.mu.Unlock()

	for _, e := range open {
		m.closeUpstream(e, e.handle)
	}
	return nil
}

func (m *Manager) emitState(e *entry, what dashlog.StateEntity, oldState, newState, reason string) {
	m.config.Events.Emit(dashlog.Event{
		Layer:      dashlog.LayerMultiplexer,
		Category:   dashlog.CategoryState,
		EntityType: string(e.ref.EntityType),
		EntityID:   e.ref.ID,
		Scope:      string(e.scope),
		StateChange: &dashlog.StateChangeEvent{
			Entity:   what,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}
