// Package server provides the local HTTP bridge: a JSON endpoint for
// inbound session messages and an SSE stream of session events. It lets
// editor integrations drive a debugging session without linking Go code.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/internal/router"
	"github.com/debugmate-ai/debugmate/internal/session"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

// Server is the HTTP bridge for one session.
type Server struct {
	cfg     *types.Config
	router  *chi.Mux
	httpSrv *http.Server

	bus       *event.Bus
	sess      *session.Session
	msgRouter *router.Router
	backend   *client.Client
	log       zerolog.Logger
}

// New creates a server around an existing session and message router.
func New(cfg *types.Config, bus *event.Bus, sess *session.Session, msgRouter *router.Router, backend *client.Client) *Server {
	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		bus:       bus,
		sess:      sess,
		msgRouter: msgRouter,
		backend:   backend,
		log:       logging.Component("server"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the SSE stream is long-lived.
	}

	s.log.Info().Str("addr", addr).Msg("bridge listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the chi router, used by tests to serve without a listener.
func (s *Server) Router() *chi.Mux {
	return s.router
}
