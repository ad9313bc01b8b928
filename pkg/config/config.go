package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/dashlink/dashlink-go/pkg/batch"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DASHLINK"

// DefaultFileName is the configuration file looked up when no path is
// given, without extension.
const DefaultFileName = "dashlink"

// Config is the runtime configuration.
type Config struct {
	Backend  BackendConfig
	Channel  ChannelConfig
	Viewer   entity.Viewer
	Log      LogConfig
	HTTP     HTTPConfig
	Resolver ResolverConfig

	// Dashboard is the dashboard file to open.
	Dashboard string

	// Session is the file the interactive session state is kept in.
	Session string
}

// BackendConfig selects the entity backend.
type BackendConfig struct {
	// Fixture is a YAML fixture loaded into the in-memory backend.
	Fixture string
}

// ChannelConfig configures the push channel.
type ChannelConfig struct {
	// URL is the websocket endpoint. Empty uses the in-memory backend's
	// push channel.
	URL string

	// Codec is the wire codec name: json or cbor.
	Codec string

	// Reconnect redials a dropped channel and resends open subscriptions.
	Reconnect bool
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the slog level name.
	Level string

	// ProtocolFile is the path of the CBOR event log. Empty disables it.
	ProtocolFile string
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	// Addr is the listen address of the API and /metrics. Empty disables
	// the server.
	Addr string
}

// ResolverConfig tunes alias resolution.
type ResolverConfig struct {
	// PackSize bounds the concurrent requests of one pack.
	PackSize int
}

// keys lists every configuration key bound to the environment.
var keys = []string{
	"backend.fixture",
	"channel.url",
	"channel.codec",
	"channel.reconnect",
	"viewer.authority",
	"viewer.tenant_id",
	"viewer.customer_id",
	"viewer.user_id",
	"log.level",
	"log.protocol_file",
	"http.addr",
	"resolver.pack_size",
	"dashboard",
	"session",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Channel: ChannelConfig{Codec: wire.JSONCodec{}.Name(), Reconnect: true},
		Viewer: entity.Viewer{
			Authority: entity.AuthorityTenantAdmin,
		},
		Log:      LogConfig{Level: "info"},
		Resolver: ResolverConfig{PackSize: batch.DefaultPackSize},
	}
}

// Load reads the configuration. A non-empty path must name a readable
// file; with an empty path, dashlink.yaml is read from the working
// directory when present.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return cfg, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, err
			}
		}
	}

	// Override defaults if values exist
	setString(v, "backend.fixture", &cfg.Backend.Fixture)
	setString(v, "channel.url", &cfg.Channel.URL)
	setString(v, "channel.codec", &cfg.Channel.Codec)
	if v.IsSet("channel.reconnect") {
		cfg.Channel.Reconnect = v.GetBool("channel.reconnect")
	}
	if v.IsSet("viewer.authority") {
		cfg.Viewer.Authority = entity.Authority(strings.ToUpper(v.GetString("viewer.authority")))
	}
	setString(v, "viewer.tenant_id", &cfg.Viewer.TenantID)
	setString(v, "viewer.customer_id", &cfg.Viewer.CustomerID)
	setString(v, "viewer.user_id", &cfg.Viewer.UserID)
	setString(v, "log.level", &cfg.Log.Level)
	setString(v, "log.protocol_file", &cfg.Log.ProtocolFile)
	setString(v, "http.addr", &cfg.HTTP.Addr)
	if v.IsSet("resolver.pack_size") {
		cfg.Resolver.PackSize = v.GetInt("resolver.pack_size")
	}
	setString(v, "dashboard", &cfg.Dashboard)
	setString(v, "session", &cfg.Session)

	return cfg, cfg.Validate()
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if _, err := wire.CodecByName(c.Channel.Codec); err != nil {
		return fmt.Errorf("channel.codec: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Resolver.PackSize <= 0 {
		return fmt.Errorf("resolver.pack_size: must be positive, got %d", c.Resolver.PackSize)
	}
	switch c.Viewer.Authority {
	case entity.AuthoritySysAdmin, entity.AuthorityTenantAdmin, entity.AuthorityCustomerUser:
	default:
		return fmt.Errorf("viewer.authority: unknown authority %q", c.Viewer.Authority)
	}
	return nil
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Codec returns the configured wire codec.
func (c Config) Codec() wire.Codec {
	codec, err := wire.CodecByName(c.Channel.Codec)
	if err != nil {
		return wire.JSONCodec{}
	}
	return codec
}
