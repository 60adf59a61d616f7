package httpserver

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/catalogsync"
	"github.com/Clark-Hu/moviewatch/internal/config"
	"github.com/Clark-Hu/moviewatch/internal/identity"
	"github.com/Clark-Hu/moviewatch/internal/logger"
	"github.com/Clark-Hu/moviewatch/internal/movies"
	"github.com/Clark-Hu/moviewatch/internal/reviews"
	"github.com/Clark-Hu/moviewatch/internal/watchlist"
)

// HealthChecker reports whether backing storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type poolStater interface {
	Stats() *pgxpool.Stat
}

type healthResponse struct {
	Status string     `json:"status"`
	Pool   *poolStats `json:"pool,omitempty"`
}

type poolStats struct {
	Total    int32 `json:"total_conns"`
	Idle     int32 `json:"idle_conns"`
	Acquired int32 `json:"acquired_conns"`
	Max      int32 `json:"max_conns"`
}

// Deps are the services the HTTP layer delegates to.
type Deps struct {
	Health    HealthChecker
	Identity  *identity.Gateway
	Movies    *movies.Service
	Watchlist *watchlist.Manager
	Reviews   *reviews.Manager
	Sync      *catalogsync.Service
	Templates *Templates
	Static    fs.FS
	Logger    *logger.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	health    HealthChecker
	identity  *identity.Gateway
	movies    *movies.Service
	watchlist *watchlist.Manager
	reviews   *reviews.Manager
	sync      *catalogsync.Service
	templates *Templates
	static    fs.FS
	logger    *logger.Logger
	router    chi.Router
	httpSrv   *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP rewrites RemoteAddr from client-controlled headers, which the
	// auth throttle keys on. Only enable it behind a proxy that sets them.
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	s := &Server{
		cfg:       cfg,
		health:    deps.Health,
		identity:  deps.Identity,
		movies:    deps.Movies,
		watchlist: deps.Watchlist,
		reviews:   deps.Reviews,
		sync:      deps.Sync,
		templates: deps.Templates,
		static:    deps.Static,
		logger:    log,
		router:    r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	if s.static != nil {
		s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))
	}

	s.router.Route("/sync", func(r chi.Router) {
		r.Post("/movies", s.handleSyncMovies)
		r.Post("/genres", s.handleSyncGenres)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.withIdentity)

		r.Get("/", s.handleHome)
		r.Get("/signup", s.handleSignupForm)
		r.Post("/signup", s.limitAuthAttempts(s.handleSignup))
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.limitAuthAttempts(s.handleLogin))
		r.Get("/movies", s.handleListMovies)
		r.Get("/movies/{movieID}", s.handleMovieDetail)
		r.Get("/genres", s.handleListGenres)
		r.Get("/genres/{genreID}", s.handleGenreMovies)
		r.Get("/search", s.handleSearch)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/logout", s.handleLogout)
			r.Post("/logout", s.handleLogout)
			r.Get("/profile", s.handleProfile)
			r.Post("/movies/{movieID}/reviews", s.handleSubmitReview)
			r.Post("/reviews/{reviewID}/delete", s.handleDeleteReview)
			r.Get("/watchlist", s.handleWatchlist)
			r.Post("/watchlist", s.handleAddToWatchlist)
			r.Post("/watchlist/{movieID}/remove", s.handleRemoveFromWatchlist)
			r.Post("/watchlist/{movieID}/status", s.handleUpdateWatchStatus)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn("http: health check failed", "error", err)
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	resp := healthResponse{Status: "ok"}
	if ps, ok := s.health.(poolStater); ok {
		if st := ps.Stats(); st != nil {
			resp.Pool = &poolStats{
				Total:    st.TotalConns(),
				Idle:     st.IdleConns(),
				Acquired: st.AcquiredConns(),
				Max:      st.MaxConns(),
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}
