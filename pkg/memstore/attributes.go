package memstore

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// GetValues returns the requested keys in request order, or the whole table
// in insertion order when keys is empty. Unknown keys are skipped.
func (s *Store) GetValues(ctx context.Context, ref entity.Ref, scope entity.AttributeScope, keys []string) ([]entity.Attribute, error) {
	if err := s.enter(ctx, OpGetValues, ref); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	table := s.tables[tableKey{ref, scope}]
	if len(keys) == 0 {
		return slices.Clone(table), nil
	}
	out := make([]entity.Attribute, 0, len(keys))
	for _, k := range keys {
		if i := slices.IndexFunc(table, func(a entity.Attribute) bool { return a.Key == k }); i >= 0 {
			out = append(out, table[i])
		}
	}
	return out, nil
}

// GetKeys lists the keys of a table in insertion order.
func (s *Store) GetKeys(ctx context.Context, ref entity.Ref, scope entity.AttributeScope) ([]string, error) {
	if err := s.enter(ctx, OpGetKeys, ref); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	table := s.tables[tableKey{ref, scope}]
	keys := make([]string, 0, len(table))
	for _, a := range table {
		keys = append(keys, a.Key)
	}
	return keys, nil
}

// SetAttributes writes values into a table without notifying subscribers.
func (s *Store) SetAttributes(ref entity.Ref, scope entity.AttributeScope, attrs ...entity.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(tableKey{ref, scope}, attrs)
}

// write upserts attrs. Callers hold the write lock.
func (s *Store) write(key tableKey, attrs []entity.Attribute) {
	table := s.tables[key]
	for _, a := range attrs {
		if i := slices.IndexFunc(table, func(x entity.Attribute) bool { return x.Key == a.Key }); i >= 0 {
			table[i] = a
		} else {
			table = append(table, a)
		}
	}
	s.tables[key] = table
}

// Publish writes every key of frame into the table and delivers the frame to
// the subscribers of (ref, scope) on the calling goroutine, in subscription
// order.
func (s *Store) Publish(ref entity.Ref, scope entity.AttributeScope, frame wire.Frame) {
	key := tableKey{ref, scope}

	s.mu.Lock()
	attrs := make([]entity.Attribute, 0, len(frame))
	for _, ks := range frame {
		if latest, ok := ks.Latest(); ok {
			attrs = append(attrs, entity.Attribute{Key: ks.Key, Value: latest.Value, LastUpdateTs: latest.Ts})
		}
	}
	s.write(key, attrs)
	subs := slices.Clone(s.subs[key])
	s.mu.Unlock()

	for _, h := range subs {
		h.deliver(frame)
	}
}

// Subscribe registers onFrame for frames published on (ref, scope).
func (s *Store) Subscribe(ref entity.Ref, scope entity.AttributeScope, onFrame func(wire.Frame)) (remote.Handle, error) {
	if err := s.enter(context.Background(), OpSubscribe, ref); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	h := &handle{store: s, id: s.nextSubID, key: tableKey{ref, scope}, onFrame: onFrame}
	s.subs[h.key] = append(s.subs[h.key], h)
	return h, nil
}

// Subscribers returns the number of open subscriptions on (ref, scope).
func (s *Store) Subscribers(ref entity.Ref, scope entity.AttributeScope) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[tableKey{ref, scope}])
}

// handle is an open subscription. Deliveries are serialized per handle.
type handle struct {
	store   *Store
	id      uint64
	key     tableKey
	onFrame func(wire.Frame)

	deliverMu sync.Mutex
	closed    atomic.Bool
}

func (h *handle) deliver(frame wire.Frame) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.closed.Load() {
		return
	}
	h.onFrame(frame)
}

// Close removes the subscription. It is safe to call Close multiple times,
// including from within the frame callback.
func (h *handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}

	s := h.store
	s.mu.Lock()
	s.calls[OpUnsubscribe]++
	s.subs[h.key] = slices.DeleteFunc(s.subs[h.key], func(x *handle) bool { return x.id == h.id })
	if len(s.subs[h.key]) == 0 {
		delete(s.subs, h.key)
	}
	s.mu.Unlock()
	return nil
}
