package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session routes
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/message", s.postMessage)
		r.Get("/current", s.getCurrent)
		r.Get("/last", s.getLast)
		r.Post("/close", s.closeSession)
	})

	// Event streaming (SSE)
	r.Get("/event", s.events)

	// Backend health proxy
	r.Get("/backend/ping", s.pingBackend)

	// Local health and config
	r.Get("/healthz", s.healthz)
	r.Get("/config", s.getConfig)
}
