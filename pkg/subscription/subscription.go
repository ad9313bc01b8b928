package subscription

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/dashlink/dashlink-go/pkg/entity"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// Subscription errors.
var (
	ErrNotSubscribed = errors.New("no subscription for key")
	ErrWatchNotFound = errors.New("watch not found")
	ErrClosed        = errors.New("subscription manager closed")
)

// Key identifies one upstream subscription.
type Key string

// NewKey returns the key for ref and scope.
func NewKey(ref entity.Ref, scope entity.AttributeScope) Key {
	return Key(string(ref.EntityType) + ref.ID + string(scope))
}

// WatchID identifies one observer registration.
type WatchID uint64

// State is the lifecycle state of a registration.
type State uint8

const (
	// StatePriming means the registration has not been served yet.
	StatePriming State = iota

	// StateLive means the registration receives push updates.
	StateLive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePriming:
		return "PRIMING"
	case StateLive:
		return "LIVE"
	default:
		return "UNKNOWN"
	}
}

// Config holds subscription manager configuration.
type Config struct {
	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives multiplexer events. May be nil.
	Events *dashlog.Emitter

	// Metrics records subscription gauges and counters. May be nil.
	Metrics *metrics.Metrics
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{}
}

// Table is the value table of one subscription key. Rows keep the order in
// which their keys were first seen. Table is not safe for concurrent use;
// the Manager guards it.
type Table struct {
	rows  []entity.Attribute
	index map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns the row for key.
func (t *Table) Get(key string) (entity.Attribute, bool) {
	i, ok := t.index[key]
	if !ok {
		return entity.Attribute{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of all rows in table order.
func (t *Table) Rows() []entity.Attribute {
	return slices.Clone(t.rows)
}

// ApplyFrame merges a push frame: the latest sample of each key overwrites
// its row in place or appends a new row. Keys with no samples are skipped.
// It returns the number of rows written.
func (t *Table) ApplyFrame(frame wire.Frame) int {
	n := 0
	for _, ks := range frame {
		sample, ok := ks.Latest()
		if !ok {
			continue
		}
		t.put(entity.Attribute{Key: ks.Key, Value: sample.Value, LastUpdateTs: sample.Ts})
		n++
	}
	return n
}

// ApplyPrimed merges rows from a priming fetch. A fetched row never
// replaces a row with a newer timestamp, since a push may have landed while
// the fetch was in flight.
func (t *Table) ApplyPrimed(attrs []entity.Attribute) {
	for _, a := range attrs {
		if cur, ok := t.Get(a.Key); ok && cur.LastUpdateTs > a.LastUpdateTs {
			continue
		}
		t.put(a)
	}
}

func (t *Table) put(a entity.Attribute) {
	if i, ok := t.index[a.Key]; ok {
		t.rows[i] = a
		return
	}
	t.index[a.Key] = len(t.rows)
	t.rows = append(t.rows, a)
}

// Sort orders for Query.Order.
const (
	OrderKey           = "key"
	OrderKeyDesc       = "-key"
	OrderTimestamp     = "lastUpdateTs"
	OrderTimestampDesc = "-lastUpdateTs"
)

// Query selects the view of a table a registration is served.
type Query struct {
	// Search keeps rows whose key starts with it, ignoring case.
	Search string

	// Order is one of the Order constants; empty keeps table order.
	Order string

	// Limit is the page size; zero or less returns every row on one page.
	Limit int

	// Page is the zero-based page index.
	Page int
}

// Page is one page of attribute rows.
type Page struct {
	Data          []entity.Attribute `json:"data"`
	TotalElements int                `json:"totalElements"`
	TotalPages    int                `json:"totalPages"`
	HasNext       bool               `json:"hasNext"`
}

// EmptyPage returns a page with no rows.
func EmptyPage() Page {
	return Page{Data: []entity.Attribute{}}
}

// Apply filters, sorts and paginates rows. rows is not modified.
func (q Query) Apply(rows []entity.Attribute) Page {
	search := strings.ToLower(q.Search)
	data := make([]entity.Attribute, 0, len(rows))
	for _, r := range rows {
		if search == "" || strings.HasPrefix(strings.ToLower(r.Key), search) {
			data = append(data, r)
		}
	}

	switch q.Order {
	case OrderKey:
		slices.SortStableFunc(data, func(a, b entity.Attribute) int { return strings.Compare(a.Key, b.Key) })
	case OrderKeyDesc:
		slices.SortStableFunc(data, func(a, b entity.Attribute) int { return strings.Compare(b.Key, a.Key) })
	case OrderTimestamp:
		slices.SortStableFunc(data, func(a, b entity.Attribute) int { return cmp.Compare(a.LastUpdateTs, b.LastUpdateTs) })
	case OrderTimestampDesc:
		slices.SortStableFunc(data, func(a, b entity.Attribute) int { return cmp.Compare(b.LastUpdateTs, a.LastUpdateTs) })
	}

	total := len(data)
	if q.Limit <= 0 {
		pages := 0
		if total > 0 {
			pages = 1
		}
		return Page{Data: data, TotalElements: total, TotalPages: pages}
	}

	pages := (total + q.Limit - 1) / q.Limit
	start := min(max(q.Page, 0)*q.Limit, total)
	end := min(start+q.Limit, total)
	return Page{
		Data:          slices.Clone(data[start:end]),
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       end < total,
	}
}
