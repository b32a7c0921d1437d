package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/directory"
	httpmiddleware "github.com/talentwire/talentwire/internal/http"
	"github.com/talentwire/talentwire/internal/resolver"
	"github.com/talentwire/talentwire/internal/session"
	"github.com/talentwire/talentwire/internal/telemetry"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Identity string `json:"identity"`
	Kind     string `json:"kind"` // "username" or "email", defaults to username
	Password string `json:"password"`
}

type loginResponse struct {
	EmployeeID string `json:"employee_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	RoleName   string `json:"role_name"`
}

// LoginHandler is the pre-login path: the identity is a raw user-supplied
// string, resolved to a tenant pool before any credential check. The password
// is verified against the tenant database's employees table and a signed
// session cookie is issued on success. Failures do not reveal whether the
// identity exists or which subscription condition failed.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	metrics := telemetry.GetMetrics()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := directory.IdentityKind(req.Kind)
	if req.Kind == "" {
		kind = directory.IdentityUsername
	}
	if req.Identity == "" || req.Password == "" || !kind.Valid() {
		writeError(w, http.StatusBadRequest, "identity and password are required")
		return
	}

	db, err := s.resolver.Resolve(r.Context(), resolver.Identity{Kind: kind, Value: req.Identity})
	if err != nil {
		metrics.LoginFailuresTotal.Add(r.Context(), 1)
		switch {
		case errors.Is(err, resolver.ErrInvalidIdentity), errors.Is(err, resolver.ErrNoActiveSubscription):
			// same response for unknown identity and inactive subscription
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			log.Error().Err(err).Msg("Tenant resolution failed during login")
			writeError(w, http.StatusServiceUnavailable, "system error")
		}
		return
	}

	var column string
	if kind == directory.IdentityEmail {
		column = "email"
	} else {
		column = "username"
	}

	query := `
		SELECT employee_id, org_id, username, full_name, role_name, password_hash
		FROM employees
		WHERE ` + column + ` = $1 AND active
	`

	var (
		employeeID   string
		orgID        string
		username     string
		fullName     string
		roleName     string
		passwordHash string
	)
	err = db.QueryRow(r.Context(), query, req.Identity).Scan(
		&employeeID, &orgID, &username, &fullName, &roleName, &passwordHash,
	)
	if err != nil {
		metrics.LoginFailuresTotal.Add(r.Context(), 1)
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Error().Err(err).Msg("Failed to read employee record during login")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		metrics.LoginFailuresTotal.Add(r.Context(), 1)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claims := &session.Claims{
		OrgID:      orgID,
		EmployeeID: employeeID,
		Username:   username,
		RoleName:   roleName,
	}

	token, err := session.IssueToken(s.cfg.SessionSecret, claims, s.cfg.SessionTTL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}

	metrics.LoginsTotal.Add(r.Context(), 1)
	log.Info().
		Str("employee_id", employeeID).
		Str("ip", httpmiddleware.ClientIPFromContext(r.Context())).
		Msg("Employee logged in")

	http.SetCookie(w, session.NewCookie(token, s.cfg.SessionTTL))
	writeJSON(w, http.StatusOK, loginResponse{
		EmployeeID: employeeID,
		Username:   username,
		FullName:   fullName,
		RoleName:   roleName,
	})
}

// LogoutHandler clears the session cookie.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, session.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// MeHandler echoes the verified claims of the current session.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "please log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"org_id":      claims.OrgID,
		"employee_id": claims.EmployeeID,
		"username":    claims.Username,
		"role_name":   claims.RoleName,
	})
}
