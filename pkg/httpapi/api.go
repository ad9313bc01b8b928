package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dashlink/dashlink-go/pkg/alias"
	"github.com/dashlink/dashlink-go/pkg/entity"
	"github.com/dashlink/dashlink-go/pkg/remote"
	"github.com/dashlink/dashlink-go/pkg/resolver"
	"github.com/dashlink/dashlink-go/pkg/service"
	"github.com/dashlink/dashlink-go/pkg/subscription"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Config configures an API.
type Config struct {
	// Gatherer backs /metrics. If nil, /metrics is not served.
	Gatherer prometheus.Gatherer

	// Timeout bounds each request. Zero disables the limit.
	Timeout time.Duration

	// Logger is the optional request logger.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// API serves one session.
type API struct {
	sess   *service.Session
	config Config
}

// New creates an API for sess.
func New(sess *service.Session, config Config) *API {
	return &API{sess: sess, config: config}
}

// Router returns the HTTP handler with every route mounted.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)
	if a.config.Timeout > 0 {
		r.Use(middleware.Timeout(a.config.Timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if a.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.config.Gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", a.listAliases)
			r.Get("/{aliasId}", a.resolveAlias)
			r.Get("/{aliasId}/check", a.checkAlias)
		})
		r.Post("/resolve", a.resolveFilter)
		r.Get("/state", a.getState)
		r.Put("/state", a.putState)
		r.Route("/entities/{entityType}/{entityId}", func(r chi.Router) {
			r.Get("/attributes/{scope}", a.getAttributes)
			r.Get("/keys/{scope}", a.getKeys)
		})
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", a.listSubscriptions)
			r.Post("/", a.subscribe)
			r.Delete("/{key}", a.unsubscribe)
		})
	})
	return r
}

// aliasInfo is the response shape of a resolved alias.
type aliasInfo struct {
	Alias            alias.Alias   `json:"alias"`
	StateEntity      bool          `json:"stateEntity"`
	EntityParamName  string        `json:"entityParamName,omitempty"`
	ResolveMultiple  bool          `json:"resolveMultiple"`
	ResolvedEntities []entity.Info `json:"resolvedEntities"`
	CurrentEntity    *entity.Info  `json:"currentEntity"`
}

func toAliasInfo(info resolver.AliasInfo) aliasInfo {
	entities := info.ResolvedEntities
	if entities == nil {
		entities = []entity.Info{}
	}
	return aliasInfo{
		Alias:            info.Alias,
		StateEntity:      info.StateEntity,
		EntityParamName:  info.EntityParamName,
		ResolveMultiple:  info.ResolveMultiple,
		ResolvedEntities: entities,
		CurrentEntity:    info.CurrentEntity,
	}
}

// resolveResult is the response shape of a filter resolution.
type resolveResult struct {
	Entities        []entity.Info `json:"entities"`
	StateEntity     bool          `json:"stateEntity"`
	EntityParamName string        `json:"entityParamName,omitempty"`
}

// subscribeRequest opens an attribute subscription.
type subscribeRequest struct {
	EntityType entity.EntityType     `json:"entityType"`
	EntityID   string                `json:"entityId"`
	Scope      entity.AttributeScope `json:"scope"`
}

func (a *API) listAliases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.sess.Aliases())
}

func (a *API) resolveAlias(w http.ResponseWriter, r *http.Request) {
	info, err := a.sess.ResolveAlias(r.Context(), chi.URLParam(r, "aliasId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAliasInfo(info))
}

func (a *API) checkAlias(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "aliasId")
	if _, ok := a.sess.Alias(id); !ok {
		a.writeError(w, r, service.ErrAliasNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": a.sess.CheckAlias(r.Context(), id)})
}

func (a *API) resolveFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	maxItems := resolver.AllItems
	if s := q.Get("maxItems"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("maxItems: "+err.Error()))
			return
		}
		maxItems = n
	}
	failOnEmpty := q.Get("failOnEmpty") == "true"

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	f, err := alias.DecodeFilter(data)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.sess.ResolveAliasFilter(r.Context(), f, maxItems, failOnEmpty)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResult{
		Entities:        res.Entities,
		StateEntity:     res.StateEntity,
		EntityParamName: res.EntityParamName,
	})
}

func (a *API) getState(w http.ResponseWriter, _ *http.Request) {
	state := a.sess.State()
	if state == nil {
		state = &alias.StateParams{}
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) putState(w http.ResponseWriter, r *http.Request) {
	var state alias.StateParams
	if err := decodeBody(w, r, &state); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	a.sess.SetState(&state)
	writeJSON(w, http.StatusOK, &state)
}

// entityScope reads the entity and scope path parameters.
func entityScope(r *http.Request) (entity.Ref, entity.AttributeScope, error) {
	t, err := entity.ParseType(chi.URLParam(r, "entityType"))
	if err != nil {
		return entity.Ref{}, "", err
	}
	scope, err := entity.ParseScope(chi.URLParam(r, "scope"))
	if err != nil {
		return entity.Ref{}, "", err
	}
	return entity.NewRef(t, chi.URLParam(r, "entityId")), scope, nil
}

func (a *API) getAttributes(w http.ResponseWriter, r *http.Request) {
	ref, scope, err := entityScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	q := r.URL.Query()
	query := subscription.Query{
		Search: q.Get("search"),
		Order:  q.Get("order"),
	}
	if query.Limit, err = intParam(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("limit: "+err.Error()))
		return
	}
	if query.Page, err = intParam(q.Get("page")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("page: "+err.Error()))
		return
	}

	// One-shot read: the registration and the subscriber are dropped once
	// the page is served. Other subscribers keep the values cached.
	page, watch, err := a.sess.GetEntityAttributes(r.Context(), ref, scope, query, nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.sess.Unwatch(watch.ID)
	_ = a.sess.UnsubscribeForEntityAttributes(watch.Key)
	writeJSON(w, http.StatusOK, page)
}

func (a *API) getKeys(w http.ResponseWriter, r *http.Request) {
	ref, scope, err := entityScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	keys, err := a.sess.GetEntityKeys(r.Context(), ref, scope, r.URL.Query().Get("search"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (a *API) listSubscriptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.sess.Subscriptions())
}

func (a *API) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	scope, err := entity.ParseScope(string(req.Scope))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	key, err := a.sess.SubscribeForEntityAttributes(entity.NewRef(req.EntityType, req.EntityID), scope)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]subscription.Key{"key": key})
}

func (a *API) unsubscribe(w http.ResponseWriter, r *http.Request) {
	key := subscription.Key(chi.URLParam(r, "key"))
	if err := a.sess.UnsubscribeForEntityAttributes(key); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	var remoteErr *resolver.RemoteError
	switch {
	case errors.Is(err, service.ErrAliasNotFound),
		errors.Is(err, subscription.ErrNotSubscribed),
		errors.Is(err, resolver.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, alias.ErrMalformedFilter),
		errors.Is(err, service.ErrInvalidRef):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrNoAttributes),
		errors.Is(err, remote.ErrNoPushChannel):
		return http.StatusServiceUnavailable
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && a.config.Logger != nil {
		a.config.Logger.Error("httpapi: request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// logRequests logs every request at debug level.
func (a *API) logRequests(next http.Handler) http.Handler {
	if a.config.Logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.config.Logger.Debug("httpapi: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
