// Package server wires the oauth registry into an HTTP host: a gorilla/mux
// router with the login routes, provider discovery and a health check.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/gobeaver/beaver-social/oauth"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP host of the login flows.
type Server struct {
	cfg          Config
	registry     *oauth.Registry
	handlers     map[string]*oauth.Handler
	health       Pinger
	callbackBase string
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck makes /healthz ping p.
func WithHealthCheck(p Pinger) Option {
	return func(s *Server) {
		s.health = p
	}
}

// WithCallbackBase fixes the public callback base instead of deriving it
// from each request.
func WithCallbackBase(base string) Option {
	return func(s *Server) {
		s.callbackBase = base
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server for every flow in registry.
func New(cfg Config, registry *oauth.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		handlers: make(map[string]*oauth.Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var responder oauth.IdentityResponder = oauth.JSONIdentity
	if cfg.JWTKey != "" {
		responder = TokenResponder{Key: []byte(cfg.JWTKey), TTL: cfg.JWTTTL, Logger: s.logger}
	} else {
		s.logger.Warn("JWT_TOKEN not set, logins answer with the raw identity")
	}

	hopts := []oauth.HandlerOption{oauth.WithIdentityResponder(responder)}
	if s.callbackBase != "" {
		hopts = append(hopts, oauth.WithCallbackBase(s.callbackBase))
	}
	for _, name := range registry.Names() {
		flow, err := registry.Flow(name)
		if err != nil {
			continue
		}
		s.handlers[name] = oauth.NewHandler(flow, hopts...)
	}
	return s
}

// Handler returns the router with all routes and middleware attached.
func (s *Server) Handler() http.Handler {
	mw := Middleware{Logger: s.logger}
	prefix := "/" + strings.Trim(s.cfg.RoutePrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	router := mux.NewRouter()
	router.Use(mw.Recovery)
	router.Use(mw.AccessLogger)
	router.Use(mw.Security)

	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(prefix, s.providers).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/{provider}", s.login).Methods(http.MethodGet)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		oauth.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.cfg.Addr, "providers", s.registry.Names())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("interruption detected, gracefully shutting down the server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	h, ok := s.handlers[name]
	if !ok {
		_, err := s.registry.Flow(name)
		oauth.WriteError(w, err)
		return
	}
	h.ServeHTTP(w, r)
}

func (s *Server) providers(w http.ResponseWriter, _ *http.Request) {
	oauth.WriteJSON(w, http.StatusOK, s.registry.Infos())
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "health check failed", "err", err)
			oauth.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	oauth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
