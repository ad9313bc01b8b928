// Package config loads the runtime configuration of the dashlink tools.
//
// Values come from built-in defaults, an optional YAML file and
// DASHLINK_ prefixed environment variables, in increasing precedence.
// Nested keys map to environment variables by replacing dots with
// underscores: channel.url is read from DASHLINK_CHANNEL_URL.
package config
