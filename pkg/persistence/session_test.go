package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/subscription"
)

func TestSessionStore(t *testing.T) {
	pump := entity.NewRef(entity.TypeDevice, "pump-1")
	state := &SessionState{
		Dashboard: "pumps.json",
		Viewer: entity.Viewer{
			Authority: entity.AuthorityTenantAdmin,
			TenantID:  "t1",
		},
		State: (&alias.StateParams{}).WithEntity(pump),
		Subscriptions: []SubscriptionRecord{
			{Entity: pump, Scope: entity.ScopeServer},
			{Entity: pump, Scope: entity.ScopeLatestTelemetry},
		},
	}

	for _, name := range []string{"session.json", "session.yaml"} {
		t.Run(name, func(t *testing.T) {
			store := NewSessionStore(filepath.Join(t.TempDir(), name))

			if err := store.Save(state); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := store.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if got.Version != SessionVersion {
				t.Errorf("Version = %d, want %d", got.Version, SessionVersion)
			}
			if got.SavedAt.IsZero() {
				t.Error("SavedAt not set")
			}
			if got.Viewer != state.Viewer {
				t.Errorf("Viewer = %+v, want %+v", got.Viewer, state.Viewer)
			}
			if got.State == nil || got.State.Entity == nil || *got.State.Entity != pump {
				t.Errorf("State = %+v, want entity %v", got.State, pump)
			}
			if len(got.Subscriptions) != 2 {
				t.Fatalf("len(Subscriptions) = %d, want 2", len(got.Subscriptions))
			}
			if key := got.Subscriptions[1].Key(); key != subscription.NewKey(pump, entity.ScopeLatestTelemetry) {
				t.Errorf("Subscriptions[1].Key() = %q", key)
			}
		})
	}

	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "none.json"))
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil", got)
		}
	})

	t.Run("SavedAtKept", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		if err := store.Save(&SessionState{SavedAt: at}); err != nil {
			t.Fatal(err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if !got.SavedAt.Equal(at) {
			t.Errorf("SavedAt = %v, want %v", got.SavedAt, at)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		_ = store.Save(&SessionState{})

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after Clear() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() after Clear() = %v, want nil", got)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})
}
