package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edupost/edupost-client/internal/auth"
	"github.com/edupost/edupost-client/internal/config"
	"github.com/edupost/edupost-client/internal/http/handlers"
	"github.com/edupost/edupost-client/internal/middleware"
	"github.com/edupost/edupost-client/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.ServerConfig, users storage.UserStore, posts storage.PostStore) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Router(cfg, users, posts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Router builds the devserver's handler tree.
func Router(cfg config.ServerConfig, users storage.UserStore, posts storage.PostStore) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	r.Handle("/metrics", promhttp.Handler())
	handlers.NewAuthHandler(users, tokens).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		handlers.NewUserHandler(users).Register(r)
		handlers.NewPostHandler(posts, users).Register(r)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
