// Package server exposes the HTTP surface of the tenant-routed HR backend:
// login and session endpoints plus tenant-scoped business routes. Handlers
// never open database connections themselves; every tenant query runs against
// the pool produced by the resolver.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/resolver"
)

// Config holds server configuration.
type Config struct {
	// SessionSecret signs session JWTs. Must be at least 32 bytes.
	SessionSecret []byte

	// SessionTTL is the lifetime of issued sessions.
	SessionTTL time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	resolver *resolver.Resolver
	cfg      Config
}

// New creates a Server around a resolver.
func New(res *resolver.Resolver, cfg Config) *Server {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Server{
		resolver: res,
		cfg:      cfg,
	}
}

// Routes registers all handlers on the mux. Session-gated routes are wrapped
// with the session middleware; /auth/login, /auth/logout and /health are
// public.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", s.LoginHandler)
	mux.HandleFunc("POST /auth/logout", s.LogoutHandler)
	mux.HandleFunc("GET /health", s.HealthHandler)

	requireSession := s.RequireSession()
	mux.Handle("GET /api/me", requireSession(http.HandlerFunc(s.MeHandler)))
	mux.Handle("GET /api/employees", requireSession(http.HandlerFunc(s.ListEmployeesHandler)))
	mux.Handle("GET /api/applications", requireSession(http.HandlerFunc(s.ListApplicationsHandler)))
}

// HealthHandler reports liveness. Unauthenticated.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
