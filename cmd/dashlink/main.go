// Command dashlink runs a dashboard client session against an entity
// backend.
//
// It loads a dashboard, upgrades legacy alias layouts, resolves entity
// aliases for a configured viewer and multiplexes attribute subscriptions.
// The session is served over an HTTP API and optionally driven from an
// interactive shell.
//
// Usage:
//
//	dashlink [flags]
//
// Flags:
//
//	-config string        Configuration file path (default: ./dashlink.yaml if present)
//	-fixture string       YAML fixture for the in-memory backend
//	-dashboard string     Dashboard file (JSON or YAML)
//	-channel string       Websocket push channel URL
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  File to write the CBOR event log to
//	-http-addr string     Listen address of the HTTP API and /metrics
//	-session string       Session state file restored on start
//	-interactive          Enable interactive command mode
//
// Examples:
//
//	# Explore a fixture interactively
//	dashlink -fixture plant.yaml -dashboard plant.json -interactive
//
//	# Serve the API against a live push channel with event capture
//	dashlink -config dashlink.yaml -http-addr :8080 -protocol-log session.dlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dashlink/dashlink-go/cmd/dashlink/interactive"
	"github.com/dashlink/dashlink-go/pkg/channel"
	"github.com/dashlink/dashlink-go/pkg/config"
	"github.com/dashlink/dashlink-go/pkg/httpapi"
	dashlog "github.com/dashlink/dashlink-go/pkg/log"
	"github.com/dashlink/dashlink-go/pkg/memstore"
	"github.com/dashlink/dashlink-go/pkg/metrics"
	"github.com/dashlink/dashlink-go/pkg/migrate"
	"github.com/dashlink/dashlink-go/pkg/persistence"
	"github.com/dashlink/dashlink-go/pkg/service"
)

// Flags holds command-line overrides of the configuration file.
type Flags struct {
	ConfigFile  string
	Fixture     string
	Dashboard   string
	ChannelURL  string
	LogLevel    string
	ProtocolLog string
	HTTPAddr    string
	Session     string
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Fixture, "fixture", "", "YAML fixture for the in-memory backend")
	flag.StringVar(&flags.Dashboard, "dashboard", "", "Dashboard file (JSON or YAML)")
	flag.StringVar(&flags.ChannelURL, "channel", "", "Websocket push channel URL")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "File to write the CBOR event log to")
	flag.StringVar(&flags.HTTPAddr, "http-addr", "", "Listen address of the HTTP API and /metrics")
	flag.StringVar(&flags.Session, "session", "", "Session state file restored on start")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Enable interactive command mode")
}

// apply overrides cfg with every flag that was set.
func (f Flags) apply(cfg *config.Config) {
	set := func(v string, dst *string) {
		if v != "" {
			*dst = v
		}
	}
	set(f.Fixture, &cfg.Backend.Fixture)
	set(f.Dashboard, &cfg.Dashboard)
	set(f.ChannelURL, &cfg.Channel.URL)
	set(f.LogLevel, &cfg.Log.Level)
	set(f.ProtocolLog, &cfg.Log.ProtocolFile)
	set(f.HTTPAddr, &cfg.HTTP.Addr)
	set(f.Session, &cfg.Session)
}

// logOutput is the writer slog writes to. It is switched to the shell's
// writer once interactive mode starts.
type logOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *logOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}

func (o *logOutput) set(w io.Writer) {
	o.mu.Lock()
	o.w = w
	o.mu.Unlock()
}

func main() {
	flag.Parse()

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, flags.Interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, interactiveMode bool) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	out := &logOutput{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	logger.Info("dashlink starting", "viewer", cfg.Viewer.Authority, "codec", cfg.Channel.Codec)

	// Event capture
	eventLoggers := []dashlog.Logger{dashlog.NewSlogAdapter(logger)}
	if cfg.Log.ProtocolFile != "" {
		fl, err := dashlog.NewFileLogger(cfg.Log.ProtocolFile)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fl.Close()
		eventLoggers = append(eventLoggers, fl)
		logger.Info("capturing events", "file", cfg.Log.ProtocolFile)
	}
	events := dashlog.NewEmitter(dashlog.NewMultiLogger(eventLoggers...), "")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Backend
	store := memstore.New()
	if cfg.Backend.Fixture != "" {
		store, err = memstore.NewFromFixture(cfg.Backend.Fixture)
		if err != nil {
			return err
		}
		logger.Info("fixture loaded", "file", cfg.Backend.Fixture)
	}
	dir := store.Directory()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushStore := store
	if cfg.Channel.URL != "" {
		chCfg := channel.DefaultConfig()
		chCfg.Codec = cfg.Codec()
		chCfg.Logger = logger
		chCfg.Events = events
		chCfg.Metrics = m
		chCfg.Reconnect = cfg.Channel.Reconnect
		dialCtx, cancelDial := context.WithTimeout(ctx, 10*time.Second)
		ch, err := channel.Connect(dialCtx, cfg.Channel.URL, chCfg)
		cancelDial()
		if err != nil {
			return fmt.Errorf("connect push channel: %w", err)
		}
		defer ch.Close()
		dir.Push = ch
		pushStore = nil
		logger.Info("push channel connected", "url", cfg.Channel.URL, "reconnect", cfg.Channel.Reconnect)

		go func() {
			select {
			case <-ch.Done():
				logger.Warn("push channel closed", "error", ch.Err())
			case <-ctx.Done():
			}
		}()
	}

	// Session
	svcCfg := service.DefaultConfig()
	svcCfg.Viewer = cfg.Viewer
	svcCfg.PackSize = cfg.Resolver.PackSize
	svcCfg.Logger = logger
	svcCfg.Events = events
	svcCfg.Metrics = m
	sess, err := service.NewSession(dir, svcCfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	migCfg := migrate.DefaultConfig()
	migCfg.Logger = logger
	migrator := migrate.NewWithConfig(migCfg)
	doc, err := loadDashboard(cfg.Dashboard, migrator, sess, logger)
	if err != nil {
		return err
	}

	var sessions *persistence.SessionStore
	var saved *persistence.SessionState
	if cfg.Session != "" {
		sessions = persistence.NewSessionStore(cfg.Session)
		saved, err = sessions.Load()
		if err != nil {
			logger.Warn("session state unreadable", "file", cfg.Session, "error", err)
			saved = nil
		}
		if saved != nil && saved.Viewer != cfg.Viewer {
			logger.Warn("session was saved for another viewer", "saved", saved.Viewer.Authority)
		}
	}

	// HTTP API
	var server *http.Server
	if cfg.HTTP.Addr != "" {
		apiCfg := httpapi.DefaultConfig()
		apiCfg.Gatherer = reg
		apiCfg.Logger = logger
		server = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.New(sess, apiCfg).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("http api listening", "addr", cfg.HTTP.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http api failed", "error", err)
				cancel()
			}
		}()
	}

	// Run interactive mode or wait for signal
	var shell *interactive.Shell
	if interactiveMode {
		shell, err = interactive.New(interactive.Options{
			Session:       sess,
			Store:         pushStore,
			Dashboard:     doc,
			DashboardPath: cfg.Dashboard,
			Migrator:      migrator,
			Sessions:      sessions,
		})
		if err != nil {
			return err
		}
		// Redirect log output through readline to avoid interfering with input
		out.set(shell.Stdout())
		if err := shell.Restore(ctx, saved); err != nil {
			logger.Warn("session restore incomplete", "error", err)
		}
		go shell.Run(ctx, cancel)
	} else if saved != nil {
		sess.SetState(saved.State)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
		// Context was cancelled (e.g., by interactive quit command)
	}

	logger.Info("shutting down")

	if shell != nil && sessions != nil {
		if err := sessions.Save(shell.Snapshot()); err != nil {
			logger.Warn("failed to save session", "error", err)
		}
	}

	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http api shutdown", "error", err)
		}
	}
	return nil
}

// loadDashboard reads, migrates and installs the aliases of the dashboard
// at path. An empty path loads nothing.
func loadDashboard(path string, migrator *migrate.Migrator, sess *service.Session, logger *slog.Logger) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	doc, err := persistence.NewDashboardStore(path).Load()
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("load dashboard: %s: %w", path, os.ErrNotExist)
	}

	report := migrator.Dashboard(doc)
	if report.Changed() {
		logger.Info("dashboard upgraded in memory; use migrate to save it", "changes", len(report.Changes))
	}

	aliases, err := migrate.DashboardAliases(doc)
	if err != nil {
		logger.Warn("skipped malformed aliases", "error", err)
	}
	sess.SetAliases(aliases)
	logger.Info("dashboard loaded", "file", path, "aliases", len(aliases))
	return doc, nil
}
