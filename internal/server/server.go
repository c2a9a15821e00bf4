package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"inkwell/internal/media"
	"inkwell/internal/store"
	"inkwell/internal/worker"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CleanupQueue receives images that were uploaded for an article that
// could not be saved.
type CleanupQueue interface {
	Push(ctx context.Context, job worker.Job) error
}

type Option func(*Server)

// WithCleanupQueue hands orphaned images to q when deleting them inline fails.
func WithCleanupQueue(q CleanupQueue) Option {
	return func(s *Server) { s.cleanup = q }
}

// WithPagination sets the default and maximum list window.
func WithPagination(def, max int) Option {
	return func(s *Server) {
		s.defaultPerPage = def
		s.maxPerPage = max
	}
}

// WithMaxUploadSize caps the size of a create request body.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) { s.maxUploadSize = n }
}

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

type Server struct {
	store   store.Store
	media   media.Uploader
	cleanup CleanupQueue
	logger  *zap.Logger
	router  *mux.Router
	handler http.Handler

	mu     sync.Mutex
	server *http.Server

	defaultPerPage int
	maxPerPage     int
	maxUploadSize  int64
	corsOrigins    []string
}

func NewServer(st store.Store, uploader media.Uploader, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		store:          st,
		media:          uploader,
		logger:         logger.With(zap.String("component", "api")),
		router:         mux.NewRouter(),
		defaultPerPage: 10,
		maxPerPage:     100,
		maxUploadSize:  10 << 20,
		corsOrigins:    []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	s.handler = s.middleware(s.router)
	return s
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	s.router.HandleFunc("/api/articles", s.handleCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/articles", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/api/articles/{id}", s.handleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/api/articles/{id}", s.handleUpdate).Methods(http.MethodPut)
	s.router.HandleFunc("/api/articles/{id}", s.handleDelete).Methods(http.MethodDelete)

	// Hosts that serve their own files (the local badger host) get a route.
	if h, ok := s.media.(http.Handler); ok {
		s.router.PathPrefix("/media/").Handler(h).Methods(http.MethodGet, http.MethodHead)
	}
}

// middleware wraps the router rather than using router.Use so that
// unmatched requests, including CORS preflights, pass through it too.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = render.SetContentType(render.ContentTypeJSON)(h)
	h = middleware.Recoverer(h)
	h = s.logRequests(h)
	h = middleware.RequestID(h)
	return cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	})(h)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start launches the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("Web server listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Route is one entry of the route table.
type Route struct {
	Methods []string
	Path    string
}

func (r Route) String() string {
	return strings.Join(r.Methods, ",") + " " + r.Path
}

// Routes lists every registered route in registration order.
func (s *Server) Routes() ([]Route, error) {
	var routes []Route
	err := s.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		routes = append(routes, Route{Methods: methods, Path: tpl})
		return nil
	})
	return routes, err
}
