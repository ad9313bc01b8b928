// Package interactive provides the interactive command-line interface
// for dashlink.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/memstore"
	"github.com/dashlink/dashlink-go/pkg/migrate"
	"github.com/dashlink/dashlink-go/pkg/persistence"
	"github.com/dashlink/dashlink-go/pkg/resolver"
	"github.com/dashlink/dashlink-go/pkg/service"
	"github.com/dashlink/dashlink-go/pkg/subscription"
	"github.com/dashlink/dashlink-go/pkg/wire"
)

// Options are the collaborators of a Shell.
type Options struct {
	Session *service.Session

	// Store is the in-memory backend. Nil when the push channel is remote;
	// the push command is then unavailable.
	Store *memstore.Store

	// Dashboard is the loaded dashboard document and DashboardPath the file
	// it came from. Both may be empty.
	Dashboard     map[string]any
	DashboardPath string

	// Migrator upgrades the dashboard for the migrate command.
	Migrator *migrate.Migrator

	// Sessions saves the session on save-session. May be nil.
	Sessions *persistence.SessionStore
}

// watch is one open attribute subscription of the shell.
type watch struct {
	ref   entity.Ref
	scope entity.AttributeScope
	id    subscription.WatchID
}

// Shell handles interactive mode for dashlink.
type Shell struct {
	opts Options
	out  io.Writer
	rl   *readline.Instance

	mu      sync.Mutex
	watches map[subscription.Key]watch
}

// New creates a shell reading commands through readline.
func New(opts Options) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dashlink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(opts, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(opts Options, out io.Writer) *Shell {
	return &Shell{
		opts:    opts,
		out:     out,
		watches: make(map[subscription.Key]watch),
	}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Exec(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns false when the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "aliases", "ls":
		s.cmdAliases()

	case "resolve", "r":
		s.cmdResolve(ctx, args)

	case "check":
		s.cmdCheck(ctx, args)

	case "filter", "f":
		s.cmdFilter(ctx, strings.TrimSpace(strings.TrimPrefix(input, parts[0])))

	case "state":
		s.cmdState(args)

	case "param":
		s.cmdParam(args)

	case "attrs", "a":
		s.cmdAttrs(ctx, args)

	case "watch", "w":
		s.cmdWatch(ctx, args)

	case "unwatch", "u":
		s.cmdUnwatch(args)

	case "subs":
		s.cmdSubs()

	case "keys", "k":
		s.cmdKeys(ctx, args)

	case "push", "p":
		s.cmdPush(args)

	case "migrate":
		s.cmdMigrate(args)

	case "save-session", "save":
		s.cmdSaveSession()

	case "status":
		s.cmdStatus()

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Dashlink Commands:
  Aliases:
    aliases                           - List dashboard aliases
    resolve <alias|all>               - Resolve an alias by id or name
    check <alias>                     - Check whether an alias resolves
    filter <json>                     - Resolve an ad-hoc filter

  Dashboard State:
    state [<type> <id>]               - Show or set the state entity
    param <name> <type> <id>          - Set a named state parameter

  Attributes:
    attrs <type> <id> <scope> [search] - Read attributes once
    watch <type> <id> <scope>          - Subscribe and print updates
    unwatch <key>                      - Drop a subscription
    subs                               - List subscriptions
    keys <type> <id> <scope> [prefix]  - List attribute keys
    push <type> <id> <scope> k=v...    - Publish a frame (in-memory backend)

  General:
    migrate [out]                     - Upgrade the dashboard and save it
    save-session                      - Save navigation state and subscriptions
    status                            - Show session status
    help                              - Show this help
    quit                              - Exit

  Scopes: server, shared, client, latest_telemetry`)
}

func (s *Shell) cmdAliases() {
	aliases := s.opts.Session.Aliases()
	if len(aliases) == 0 {
		fmt.Fprintln(s.out, "No aliases loaded")
		return
	}
	fmt.Fprintf(s.out, "Aliases (%d):\n", len(aliases))
	for _, a := range aliases {
		kind := "none"
		if a.Filter != nil {
			kind = string(a.Filter.Type())
		}
		multi := ""
		if a.ResolveMultiple {
			multi = " [multiple]"
		}
		fmt.Fprintf(s.out, "  %-20s %-36s %s%s\n", a.Name, a.ID, kind, multi)
	}
}

func (s *Shell) cmdResolve(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: resolve <alias|all>")
		return
	}
	if strings.EqualFold(args[0], "all") {
		infos, err := s.opts.Session.ResolveAliases(ctx)
		ids := make([]string, 0, len(infos))
		for id := range infos {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			s.printAliasInfo(infos[id])
		}
		if err != nil {
			fmt.Fprintf(s.out, "Errors: %v\n", err)
		}
		return
	}

	a, ok := s.findAlias(args[0])
	if !ok {
		return
	}
	info, err := s.opts.Session.ResolveAlias(ctx, a.ID)
	if err != nil {
		fmt.Fprintf(s.out, "Resolve error: %v\n", err)
		return
	}
	s.printAliasInfo(info)
}

func (s *Shell) printAliasInfo(info resolver.AliasInfo) {
	fmt.Fprintf(s.out, "%s (%s): %d entities", info.Alias.Name, info.Alias.ID, len(info.ResolvedEntities))
	if info.StateEntity {
		fmt.Fprint(s.out, " [state")
		if info.EntityParamName != "" {
			fmt.Fprintf(s.out, ":%s", info.EntityParamName)
		}
		fmt.Fprint(s.out, "]")
	}
	fmt.Fprintln(s.out)
	s.printEntities(info.ResolvedEntities)
}

func (s *Shell) printEntities(infos []entity.Info) {
	for _, e := range infos {
		fmt.Fprintf(s.out, "  %-12s %-36s %s\n", e.EntityType, e.ID, e.Name)
	}
}

func (s *Shell) cmdCheck(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: check <alias>")
		return
	}
	a, ok := s.findAlias(args[0])
	if !ok {
		return
	}
	if s.opts.Session.CheckAlias(ctx, a.ID) {
		fmt.Fprintf(s.out, "%s: ok\n", a.Name)
	} else {
		fmt.Fprintf(s.out, "%s: no entities\n", a.Name)
	}
}

func (s *Shell) cmdFilter(ctx context.Context, raw string) {
	if raw == "" {
		fmt.Fprintln(s.out, `Usage: filter {"type":"entityName","entityType":"DEVICE","entityNameFilter":"Pump"}`)
		return
	}
	f, err := alias.DecodeFilter([]byte(raw))
	if err != nil {
		fmt.Fprintf(s.out, "Invalid filter: %v\n", err)
		return
	}
	res, err := s.opts.Session.ResolveAliasFilter(ctx, f, resolver.AllItems, false)
	if err != nil {
		fmt.Fprintf(s.out, "Resolve error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%d entities\n", len(res.Entities))
	s.printEntities(res.Entities)
}

func (s *Shell) findAlias(ref string) (alias.Alias, bool) {
	a, ok := s.opts.Session.FindAlias(ref)
	if !ok {
		fmt.Fprintf(s.out, "Alias not found: %s\n", ref)
	}
	return a, ok
}

func (s *Shell) cmdState(args []string) {
	if len(args) == 0 {
		state := s.opts.Session.State()
		if state == nil {
			fmt.Fprintln(s.out, "State: (empty)")
			return
		}
		if state.Entity != nil {
			fmt.Fprintf(s.out, "State entity: %s\n", state.Entity)
		}
		names := make([]string, 0, len(state.Params))
		for name := range state.Params {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "  %s = %v\n", name, state.Params[name])
		}
		return
	}

	ref, err := parseRef(args)
	if err != nil {
		fmt.Fprintf(s.out, "Usage: state <type> <id> (%v)\n", err)
		return
	}
	s.opts.Session.SetState(s.opts.Session.State().WithEntity(ref))
	fmt.Fprintf(s.out, "State entity set to %s\n", ref)
}

func (s *Shell) cmdParam(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: param <name> <type> <id>")
		return
	}
	ref, err := parseRef(args[1:])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid entity: %v\n", err)
		return
	}
	s.opts.Session.SetState(s.opts.Session.State().WithParam(args[0], ref))
	fmt.Fprintf(s.out, "State param %s set to %s\n", args[0], ref)
}

func (s *Shell) cmdAttrs(ctx context.Context, args []string) {
	ref, scope, err := parseTarget(args)
	if err != nil {
		fmt.Fprintf(s.out, "Usage: attrs <type> <id> <scope> [search] (%v)\n", err)
		return
	}
	query := subscription.Query{Order: subscription.OrderKey}
	if len(args) > 3 {
		query.Search = args[3]
	}

	page, w, err := s.opts.Session.GetEntityAttributes(ctx, ref, scope, query, nil)
	if err != nil {
		fmt.Fprintf(s.out, "Attributes error: %v\n", err)
		return
	}
	_ = s.opts.Session.Unwatch(w.ID)
	_ = s.opts.Session.UnsubscribeForEntityAttributes(w.Key)
	s.printPage(page)
}

func (s *Shell) cmdWatch(ctx context.Context, args []string) {
	ref, scope, err := parseTarget(args)
	if err != nil {
		fmt.Fprintf(s.out, "Usage: watch <type> <id> <scope> (%v)\n", err)
		return
	}
	key, err := s.Watch(ctx, ref, scope)
	if err != nil {
		fmt.Fprintf(s.out, "Watch error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Watching %s\n", key)
}

// Watch subscribes to ref and scope, prints the current values and prints
// every later update. A second watch of the same key is a no-op.
func (s *Shell) Watch(ctx context.Context, ref entity.Ref, scope entity.AttributeScope) (subscription.Key, error) {
	ref = s.opts.Session.Viewer().Substitute(ref)
	key := subscription.NewKey(ref, scope)

	s.mu.Lock()
	_, exists := s.watches[key]
	s.mu.Unlock()
	if exists {
		return key, nil
	}

	query := subscription.Query{Order: subscription.OrderKey}
	page, w, err := s.opts.Session.GetEntityAttributes(ctx, ref, scope, query, func(p subscription.Page) {
		fmt.Fprintf(s.out, "[UPDATE] %s\n", key)
		s.printPage(p)
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.watches[key] = watch{ref: ref, scope: scope, id: w.ID}
	s.mu.Unlock()

	s.printPage(page)
	return key, nil
}

func (s *Shell) cmdUnwatch(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: unwatch <key>")
		return
	}
	key := subscription.Key(args[0])

	s.mu.Lock()
	w, ok := s.watches[key]
	delete(s.watches, key)
	s.mu.Unlock()
	if !ok {
		fmt.Fprintf(s.out, "Not watching %s\n", key)
		return
	}

	_ = s.opts.Session.Unwatch(w.id)
	if err := s.opts.Session.UnsubscribeForEntityAttributes(key); err != nil {
		fmt.Fprintf(s.out, "Unsubscribe error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Stopped watching %s\n", key)
}

func (s *Shell) cmdSubs() {
	keys := s.opts.Session.Subscriptions()
	if len(keys) == 0 {
		fmt.Fprintln(s.out, "No subscriptions")
		return
	}
	fmt.Fprintf(s.out, "Subscriptions (%d):\n", len(keys))
	for _, k := range keys {
		rows, _ := s.opts.Session.Values(k)
		fmt.Fprintf(s.out, "  %s (%d values)\n", k, len(rows))
	}
}

func (s *Shell) cmdKeys(ctx context.Context, args []string) {
	ref, scope, err := parseTarget(args)
	if err != nil {
		fmt.Fprintf(s.out, "Usage: keys <type> <id> <scope> [prefix] (%v)\n", err)
		return
	}
	prefix := ""
	if len(args) > 3 {
		prefix = args[3]
	}
	keys, err := s.opts.Session.GetEntityKeys(ctx, ref, scope, prefix)
	if err != nil {
		fmt.Fprintf(s.out, "Keys error: %v\n", err)
		return
	}
	if len(keys) == 0 {
		fmt.Fprintln(s.out, "No keys")
		return
	}
	fmt.Fprintln(s.out, strings.Join(keys, ", "))
}

func (s *Shell) cmdPush(args []string) {
	if s.opts.Store == nil {
		fmt.Fprintln(s.out, "push needs the in-memory backend")
		return
	}
	ref, scope, err := parseTarget(args)
	if err != nil || len(args) < 4 {
		fmt.Fprintln(s.out, "Usage: push <type> <id> <scope> key=value...")
		return
	}

	ts := time.Now().UnixMilli()
	var frame wire.Frame
	for _, kv := range args[3:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			fmt.Fprintf(s.out, "Invalid pair: %s\n", kv)
			return
		}
		frame = frame.Add(k, ts, parseValue(v))
	}
	ref = s.opts.Session.Viewer().Substitute(ref)
	s.opts.Store.Publish(ref, scope, frame)
	fmt.Fprintf(s.out, "Published %d keys to %s\n", len(frame), subscription.NewKey(ref, scope))
}

func (s *Shell) cmdMigrate(args []string) {
	if s.opts.Dashboard == nil {
		fmt.Fprintln(s.out, "No dashboard loaded")
		return
	}
	out := s.opts.DashboardPath
	if len(args) > 0 {
		out = args[0]
	}
	if out == "" {
		fmt.Fprintln(s.out, "Usage: migrate <out>")
		return
	}

	report := s.opts.Migrator.Dashboard(s.opts.Dashboard)
	for _, c := range report.Changes {
		fmt.Fprintf(s.out, "  %s\n", c)
	}
	if err := persistence.SaveAs(out, s.opts.Dashboard); err != nil {
		fmt.Fprintf(s.out, "Save error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Dashboard written to %s\n", out)
}

// Snapshot returns the state save-session stores.
func (s *Shell) Snapshot() *persistence.SessionState {
	s.mu.Lock()
	records := make([]persistence.SubscriptionRecord, 0, len(s.watches))
	for _, w := range s.watches {
		records = append(records, persistence.SubscriptionRecord{Entity: w.ref, Scope: w.scope})
	}
	s.mu.Unlock()
	slices.SortFunc(records, func(a, b persistence.SubscriptionRecord) int {
		return strings.Compare(string(a.Key()), string(b.Key()))
	})

	return &persistence.SessionState{
		Dashboard:     s.opts.DashboardPath,
		Viewer:        s.opts.Session.Viewer(),
		State:         s.opts.Session.State(),
		Subscriptions: records,
	}
}

// Restore applies a saved session: the navigation state and every stored
// subscription. Subscriptions that fail are reported and skipped.
func (s *Shell) Restore(ctx context.Context, state *persistence.SessionState) error {
	if state == nil {
		return nil
	}
	s.opts.Session.SetState(state.State)

	var errs []error
	for _, rec := range state.Subscriptions {
		if _, err := s.Watch(ctx, rec.Entity, rec.Scope); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Key(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Shell) cmdSaveSession() {
	if s.opts.Sessions == nil {
		fmt.Fprintln(s.out, "No session file configured")
		return
	}
	if err := s.opts.Sessions.Save(s.Snapshot()); err != nil {
		fmt.Fprintf(s.out, "Save error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Session saved")
}

func (s *Shell) cmdStatus() {
	st := s.opts.Session.Status()
	fmt.Fprintln(s.out, "Session Status:")
	fmt.Fprintf(s.out, "  Session:       %s\n", st.SessionID)
	fmt.Fprintf(s.out, "  Viewer:        %s", st.Viewer.Authority)
	if st.Viewer.TenantID != "" {
		fmt.Fprintf(s.out, " tenant=%s", st.Viewer.TenantID)
	}
	if st.Viewer.CustomerID != "" {
		fmt.Fprintf(s.out, " customer=%s", st.Viewer.CustomerID)
	}
	fmt.Fprintln(s.out)
	fmt.Fprintf(s.out, "  Aliases:       %d\n", st.Aliases)
	fmt.Fprintf(s.out, "  Subscriptions: %d\n", st.Subscriptions)
	if st.State != nil && st.State.Entity != nil {
		fmt.Fprintf(s.out, "  State entity:  %s\n", st.State.Entity)
	}
	if s.opts.DashboardPath != "" {
		fmt.Fprintf(s.out, "  Dashboard:     %s\n", s.opts.DashboardPath)
	}
}

func (s *Shell) printPage(p subscription.Page) {
	if len(p.Data) == 0 {
		fmt.Fprintln(s.out, "  (no values)")
		return
	}
	for _, a := range p.Data {
		ts := time.UnixMilli(a.LastUpdateTs).UTC().Format(time.RFC3339)
		fmt.Fprintf(s.out, "  %-24s %-20v %s\n", a.Key, a.Value, ts)
	}
	if p.HasNext {
		fmt.Fprintf(s.out, "  ... %d of %d\n", len(p.Data), p.TotalElements)
	}
}

// parseRef parses "<type> <id>".
func parseRef(args []string) (entity.Ref, error) {
	if len(args) < 2 {
		return entity.Ref{}, errors.New("missing entity type or id")
	}
	t, err := entity.ParseType(args[0])
	if err != nil {
		return entity.Ref{}, err
	}
	return entity.NewRef(t, args[1]), nil
}

// parseTarget parses "<type> <id> <scope>".
func parseTarget(args []string) (entity.Ref, entity.AttributeScope, error) {
	if len(args) < 3 {
		return entity.Ref{}, "", errors.New("missing entity or scope")
	}
	ref, err := parseRef(args)
	if err != nil {
		return entity.Ref{}, "", err
	}
	scope, err := parseScope(args[2])
	if err != nil {
		return entity.Ref{}, "", err
	}
	return ref, scope, nil
}

// parseScope accepts a full scope name or its short form.
func parseScope(s string) (entity.AttributeScope, error) {
	switch strings.ToLower(s) {
	case "server":
		return entity.ScopeServer, nil
	case "shared":
		return entity.ScopeShared, nil
	case "client":
		return entity.ScopeClient, nil
	case "telemetry", "latest", "latest_telemetry":
		return entity.ScopeLatestTelemetry, nil
	}
	return entity.ParseScope(s)
}

// parseValue reads a pushed value as a YAML scalar so numbers and booleans
// keep their type.
func parseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any:
		return s
	}
	return v
}
