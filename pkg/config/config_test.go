package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "json", cfg.Channel.Codec)
	assert.Equal(t, 100, cfg.Resolver.PackSize)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "dashlink.yaml", "http:\n  addr: \":9100\"\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "dashlink.yaml", `
backend:
  fixture: fixtures/plant.yaml
channel:
  url: ws://localhost:8080/api/ws
  codec: cbor
  reconnect: false
viewer:
  authority: customer_user
  tenant_id: t1
  customer_id: c1
log:
  level: debug
  protocol_file: /tmp/session.dlog
resolver:
  pack_size: 20
dashboard: pumps.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fixtures/plant.yaml", cfg.Backend.Fixture)
	assert.Equal(t, "ws://localhost:8080/api/ws", cfg.Channel.URL)
	assert.Equal(t, wire.CBORCodec{}, cfg.Codec())
	assert.False(t, cfg.Channel.Reconnect)
	assert.Equal(t, entity.Viewer{
		Authority:  entity.AuthorityCustomerUser,
		TenantID:   "t1",
		CustomerID: "c1",
	}, cfg.Viewer)
	assert.Equal(t, "/tmp/session.dlog", cfg.Log.ProtocolFile)
	assert.Equal(t, 20, cfg.Resolver.PackSize)
	assert.Equal(t, "pumps.json", cfg.Dashboard)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "dashlink.yaml", "channel:\n  codec: cbor\nresolver:\n  pack_size: 20\n")
	t.Setenv("DASHLINK_CHANNEL_CODEC", "json")
	t.Setenv("DASHLINK_RESOLVER_PACK_SIZE", "5")
	t.Setenv("DASHLINK_VIEWER_TENANT_ID", "tenant-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Channel.Codec)
	assert.Equal(t, 5, cfg.Resolver.PackSize)
	assert.Equal(t, "tenant-env", cfg.Viewer.TenantID)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown codec", "channel:\n  codec: xml\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"zero pack size", "resolver:\n  pack_size: 0\n"},
		{"unknown authority", "viewer:\n  authority: guest\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "dashlink.yaml", tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
