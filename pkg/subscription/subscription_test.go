package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

func TestNewKey(t *testing.T) {
	key := NewKey(entity.NewRef(entity.TypeDevice, "abc"), entity.ScopeServer)
	assert.Equal(t, Key("DEVICEabcSERVER_SCOPE"), key)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "PRIMING", StatePriming.String())
	assert.Equal(t, "LIVE", StateLive.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

// ============================================================================
// Table
// ============================================================================

func TestTableMergeRule(t *testing.T) {
	tbl := NewTable()

	tbl.ApplyFrame(wire.Frame{}.Add("ssid", 100, "A"))
	tbl.ApplyFrame(wire.Frame{}.Add("temp", 110, 5))

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, entity.Attribute{Key: "ssid", Value: "A", LastUpdateTs: 100}, rows[0])
	assert.Equal(t, entity.Attribute{Key: "temp", Value: 5, LastUpdateTs: 110}, rows[1])

	n := tbl.ApplyFrame(wire.Frame{}.Add("ssid", 120, "B"))
	assert.Equal(t, 1, n)

	rows = tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, entity.Attribute{Key: "ssid", Value: "B", LastUpdateTs: 120}, rows[0])
	assert.Equal(t, entity.Attribute{Key: "temp", Value: 5, LastUpdateTs: 110}, rows[1])
}

func TestTableFrameKeepsFrameOrderForNewKeys(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFrame(wire.Frame{}.Add("b", 1, 1).Add("a", 1, 2).Add("c", 1, 3))

	var keys []string
	for _, r := range tbl.Rows() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
}

func TestTableSkipsKeysWithoutSamples(t *testing.T) {
	tbl := NewTable()
	frame := wire.Frame{{Key: "empty"}}.Add("x", 1, true)

	assert.Equal(t, 1, tbl.ApplyFrame(frame))
	_, ok := tbl.Get("empty")
	assert.False(t, ok)
}

func TestTablePrimedNeverRollsBack(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyFrame(wire.Frame{}.Add("temp", 200, 30))

	tbl.ApplyPrimed([]entity.Attribute{
		{Key: "temp", Value: 20, LastUpdateTs: 100},
		{Key: "ssid", Value: "A", LastUpdateTs: 100},
	})

	temp, _ := tbl.Get("temp")
	assert.Equal(t, 30, temp.Value)
	ssid, ok := tbl.Get("ssid")
	require.True(t, ok)
	assert.Equal(t, "A", ssid.Value)

	// Equal timestamps take the fetched value.
	tbl.ApplyPrimed([]entity.Attribute{{Key: "temp", Value: 31, LastUpdateTs: 200}})
	temp, _ = tbl.Get("temp")
	assert.Equal(t, 31, temp.Value)
}

// ============================================================================
// Query
// ============================================================================

func queryRows() []entity.Attribute {
	return []entity.Attribute{
		{Key: "temperature", Value: 21.5, LastUpdateTs: 300},
		{Key: "humidity", Value: 40, LastUpdateTs: 100},
		{Key: "Temp_max", Value: 30, LastUpdateTs: 200},
		{Key: "active", Value: true, LastUpdateTs: 400},
	}
}

func pageKeys(p Page) []string {
	keys := make([]string, len(p.Data))
	for i, a := range p.Data {
		keys[i] = a.Key
	}
	return keys
}

func TestQueryApply(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		keys    []string
		total   int
		pages   int
		hasNext bool
	}{
		{"all in table order", Query{}, []string{"temperature", "humidity", "Temp_max", "active"}, 4, 1, false},
		{"search ignores case", Query{Search: "TEMP"}, []string{"temperature", "Temp_max"}, 2, 1, false},
		{"order by key", Query{Order: OrderKey}, []string{"Temp_max", "active", "humidity", "temperature"}, 4, 1, false},
		{"order by key desc", Query{Order: OrderKeyDesc}, []string{"temperature", "humidity", "active", "Temp_max"}, 4, 1, false},
		{"order by ts", Query{Order: OrderTimestamp}, []string{"humidity", "Temp_max", "temperature", "active"}, 4, 1, false},
		{"order by ts desc", Query{Order: OrderTimestampDesc}, []string{"active", "temperature", "Temp_max", "humidity"}, 4, 1, false},
		{"first page", Query{Order: OrderTimestamp, Limit: 3}, []string{"humidity", "Temp_max", "temperature"}, 4, 2, true},
		{"last page", Query{Order: OrderTimestamp, Limit: 3, Page: 1}, []string{"active"}, 4, 2, false},
		{"page past end", Query{Limit: 3, Page: 5}, []string{}, 4, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := queryRows()
			p := tt.query.Apply(rows)
			assert.Equal(t, tt.keys, pageKeys(p))
			assert.Equal(t, tt.total, p.TotalElements)
			assert.Equal(t, tt.pages, p.TotalPages)
			assert.Equal(t, tt.hasNext, p.HasNext)
			assert.Equal(t, queryRows(), rows, "input must not be modified")
		})
	}
}

func TestQueryApplyEmpty(t *testing.T) {
	p := Query{}.Apply(nil)
	assert.NotNil(t, p.Data)
	assert.Zero(t, p.TotalPages)
	assert.Equal(t, EmptyPage(), p)
}
