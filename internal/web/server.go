// Package web serves the prediction form over HTTP: an HTML page driven by
// plain form posts and a JSON API over the same controller.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-predictform/internal/logging"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/render"
	"github.com/goliatone/go-predictform/pkg/renderers/vanilla"
)

const (
	defaultSessionTTL = 30 * time.Minute
	defaultSettle     = 500 * time.Millisecond
)

// Server serves the form page and the JSON API.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	form       model.FormModel
	page       render.Renderer
	sessions   *sessionStore
	logger     logging.Logger
	settle     time.Duration

	// baseCtx outlives individual requests so submissions started by a post
	// keep running after the redirect. Shutdown cancels it.
	baseCtx context.Context
	stop    context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and session logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(logger)
	}
}

// WithSessionTTL sets how long an idle browser session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessions.setTTL(ttl)
		}
	}
}

// WithSettle sets how long a form post waits for a fast prediction before
// redirecting to the page. Zero redirects immediately.
func WithSettle(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// New creates a Server listening on addr. Each browser session gets its own
// controller from factory; page renders the HTML form.
func New(addr string, form model.FormModel, factory ControllerFactory, page render.Renderer, opts ...Option) (*Server, error) {
	if factory == nil {
		return nil, errors.New("web: controller factory is required")
	}
	if page == nil {
		return nil, errors.New("web: page renderer is required")
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		router:   chi.NewRouter(),
		form:     form,
		page:     page,
		sessions: newSessionStore(factory, defaultSessionTTL),
		logger:   logging.Nop(),
		settle:   defaultSettle,
		baseCtx:  ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/", s.handleSubmit)
	s.router.Post("/alert/dismiss", s.handleDismissAlert)
	s.router.Post("/modal/close", s.handleCloseModal)

	assets := http.FileServer(http.FS(vanilla.AssetsFS()))
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", assets))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/form", s.handleAPIForm)
		r.Get("/state", s.handleAPIState)
		r.Put("/fields/{name}", s.handleAPIField)
		r.Post("/submit", s.handleAPISubmit)
		r.Post("/alert/dismiss", s.handleAPIDismissAlert)
		r.Post("/modal/close", s.handleAPICloseModal)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown cancels in-flight submissions and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("web: [%s] %s %s -> %d (%s)",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
