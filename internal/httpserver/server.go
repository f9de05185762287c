// internal/httpserver/server.go
//
// HTTP server wiring for the History Guesser backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints: POST /game/new, then (session token required)
//     POST /game/guess and GET /game/state.
//   - Idle session eviction while the server runs.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the session cookie works).
//   - The session token is an HS256 JWT naming the game id; it is returned in
//     the /game/new body and set as a cookie.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/metrics"
	"github.com/robalobadob/historyguesser/internal/store"
)

// Options carries the server's tunables.
type Options struct {
	ClientOrigin  string        // allowed CORS origin
	CorpusSize    int           // id range for random and daily targets
	DailySalt     string        // salt for the daily target
	SessionSecret string        // HS256 key for session tokens
	SessionTTL    time.Duration // idle time before a session is dropped
	CookieName    string
	Production    bool // secure cookies
}

// Server bundles router, session store, game resolver and metrics.
type Server struct {
	r        *chi.Mux
	store    store.Store
	resolver *game.Resolver
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, res *game.Resolver, m *metrics.Metrics, opts Options) *Server {
	if m == nil {
		m = metrics.New()
	}
	if opts.CookieName == "" {
		opts.CookieName = "history_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	s := &Server{r: chi.NewRouter(), store: st, resolver: res, metrics: m, opts: opts, now: time.Now}
	m.TrackActiveSessions(st.Len)

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(30 * time.Second)) // bound handler time (source retries included)
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.With(jsonContentType).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"historyguesser","endpoints":["/health","/metrics","POST /game/new","POST /game/guess","GET /game/state"]}`))
	})
	s.r.With(jsonContentType).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", m.Handler())

	// --- game ---
	s.r.Route("/game", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Post("/new", s.handleNewGame)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/guess", s.handleGuess)
			r.Get("/state", s.handleState)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions are swept in the background meanwhile.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLoop(ctx)

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepLoop drops sessions idle for longer than SessionTTL.
func (s *Server) sweepLoop(ctx context.Context) {
	interval := s.opts.SessionTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Sweep(ctx, s.now().Add(-s.opts.SessionTTL)); n > 0 {
				log.Info().Int("evicted", n).Int("live", s.store.Len()).Msg("swept idle sessions")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}
