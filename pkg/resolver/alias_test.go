package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/memstore"
)

func TestResolveAlias(t *testing.T) {
	store := memstore.New()
	store.Put(dev("d1", "sensor 1", ""))
	store.Put(dev("d2", "sensor 2", ""))
	ev := New(store.Directory())

	a := alias.Alias{
		ID:              "al-1",
		Name:            "Sensors",
		ResolveMultiple: true,
		Filter:          alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "sensor"},
	}
	info, err := ev.ResolveAlias(context.Background(), a, tenantAdmin, nil)
	require.NoError(t, err)
	assert.True(t, info.ResolveMultiple)
	assert.Equal(t, []string{"d1", "d2"}, ids(info.ResolvedEntities))
	require.NotNil(t, info.CurrentEntity)
	assert.Equal(t, "d1", info.CurrentEntity.ID)
	assert.Equal(t, "al-1", info.Alias.ID)
}

func TestResolveAliasEmptyHasNoCurrentEntity(t *testing.T) {
	ev := New(memstore.New().Directory())

	info, err := ev.ResolveAlias(context.Background(), alias.Alias{
		Name:   "state",
		Filter: alias.StateEntity{ParamName: "p"},
	}, tenantAdmin, nil)
	require.NoError(t, err)
	assert.Nil(t, info.CurrentEntity)
	assert.True(t, info.StateEntity)
	assert.Equal(t, "p", info.EntityParamName)
}

func TestCheckAlias(t *testing.T) {
	store := memstore.New()
	store.Put(dev("d1", "sensor 1", ""))
	store.Put(dev("d2", "sensor 2", ""))
	ev := New(store.Directory())
	ctx := context.Background()

	tests := []struct {
		name   string
		filter alias.Filter
		want   bool
	}{
		{"matching name", alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "sensor"}, true},
		{"no match", alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "pump"}, false},
		{"state bound", alias.StateEntity{}, true},
		{"missing entity", alias.SingleEntity{Entity: entity.NewRef(entity.TypeDevice, "gone")}, false},
		{"malformed", alias.EntityList{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ev.CheckAlias(ctx, alias.Alias{Name: tt.name, Filter: tt.filter}, tenantAdmin))
		})
	}

	// maxItems is 1, so a check lists a single page.
	store.ResetCalls()
	ev.CheckAlias(ctx, alias.Alias{Filter: alias.EntityName{EntityType: entity.TypeDevice, NamePrefix: "s"}}, tenantAdmin)
	assert.Equal(t, 1, store.Calls(memstore.OpList))
}
