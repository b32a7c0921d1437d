package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/resolver"
	"github.com/talentwire/talentwire/internal/session"
)

// RequireSession gates a route on a verified session cookie. The token's
// signature is always checked here; unverified parses never cross this
// boundary because routing doubles as the authorization gate. On success the
// claims and the resolved tenant pool are stored in the request context.
func (s *Server) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := session.TokenFromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "please log in")
				return
			}

			claims, err := session.VerifyToken(s.cfg.SessionSecret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "please log in")
				return
			}

			db, err := s.resolver.ResolveClaims(r.Context(), claims)
			if err != nil {
				switch {
				case errors.Is(err, resolver.ErrInvalidIdentity):
					writeError(w, http.StatusUnauthorized, "please log in")
				case errors.Is(err, resolver.ErrNoActiveSubscription):
					writeError(w, http.StatusForbidden, "no active subscription")
				default:
					log.Error().Err(err).Msg("Tenant resolution failed for session")
					writeError(w, http.StatusServiceUnavailable, "system error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims, db)))
		})
	}
}
