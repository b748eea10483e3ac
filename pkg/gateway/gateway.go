// Package gateway is the HTTP API serving scope snapshots to clients.
// It fronts a store backend with snapshot caching and maps domain errors
// to HTTP statuses.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/cache"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/store"
)

// Defaults applied by Options.ValidateAndSetDefaults.
const (
	DefaultAddr            = ":8080"
	DefaultCacheTTL        = time.Minute
	DefaultShutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// Store is the backing dataset. Required.
	Store store.Store

	// Cache holds marshaled snapshots. Defaults to the null cache.
	Cache cache.Cache

	// Keyer derives snapshot cache keys. Defaults to the standard keyer.
	Keyer cache.Keyer

	// CacheTTL bounds snapshot staleness. Defaults to DefaultCacheTTL.
	CacheTTL time.Duration

	// Logger receives request logs. Defaults to a discarding logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Store == nil {
		return errors.New(errors.ErrCodeInvalidInput, "store is required")
	}
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Server serves the graph API.
type Server struct {
	opts Options
	mux  chi.Router
}

// New creates a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	s := &Server{opts: opts}
	s.mux = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler, exposed for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("gateway listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleBaseline)
		r.Get("/graph/focus/{scopeID}", s.handleFocus)
		r.Post("/nodes", s.handleCreateNode)
		r.Post("/admin/seed", s.handleReseed)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, "", func(ctx context.Context) (*graph.Snapshot, error) {
		return s.opts.Store.BaselineScope(ctx)
	})
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "scopeID")
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "malformed scope id %q", raw))
		return
	}
	s.serveSnapshot(w, r, id.String(), func(ctx context.Context) (*graph.Snapshot, error) {
		return s.opts.Store.FocusScope(ctx, id)
	})
}

// serveSnapshot answers from the cache when possible, otherwise builds the
// snapshot and caches the marshaled bytes.
func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request, scope string, build func(context.Context) (*graph.Snapshot, error)) {
	ctx := r.Context()
	key := s.opts.Keyer.SnapshotKey(scope)

	if data, hit, err := s.opts.Cache.Get(ctx, key); err == nil && hit {
		writeJSONBytes(w, http.StatusOK, data)
		return
	}

	snap, err := build(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := graph.MarshalSnapshot(snap)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot"))
		return
	}
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		s.opts.Logger.Warn("snapshot cache write failed", "err", err)
	}
	writeJSONBytes(w, http.StatusOK, data)
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var in store.CreateNodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}

	node, err := s.opts.Store.CreateNode(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.invalidate(r.Context(), "")
	if in.ParentID != nil {
		s.invalidate(r.Context(), in.ParentID.String())
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleReseed(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Store.Reseed(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	// A reseed rewrites every scope, so focus entries must go too. Only the
	// baseline key is enumerable; focus entries age out via TTL.
	s.invalidate(r.Context(), "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) invalidate(ctx context.Context, scope string) {
	if err := s.opts.Cache.Delete(ctx, s.opts.Keyer.SnapshotKey(scope)); err != nil {
		s.opts.Logger.Warn("cache invalidation failed", "scope", scope, "err", err)
	}
}

// =============================================================================
// Responses
// =============================================================================

// errorBody is the JSON error payload. Clients rely on the code field to
// recover the structured error.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.opts.Logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSlug, errors.ErrCodeInvalidFormat, errors.ErrCodeCycle:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeScopeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicate:
		return http.StatusConflict
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONBytes(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
