package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type employeeRow struct {
	EmployeeID string `json:"employee_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	RoleName   string `json:"role_name"`
	Active     bool   `json:"active"`
}

// ListEmployeesHandler lists the employees of the caller's tenant. All rows
// come from the tenant database resolved for this session.
func (s *Server) ListEmployeesHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := TenantDBFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "please log in")
		return
	}

	query := `
		SELECT employee_id, username, email, full_name, role_name, active
		FROM employees
		ORDER BY created_at
	`

	rows, err := db.Query(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list employees")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}
	defer rows.Close()

	employees := []employeeRow{}
	for rows.Next() {
		var e employeeRow
		if err := rows.Scan(&e.EmployeeID, &e.Username, &e.Email, &e.FullName, &e.RoleName, &e.Active); err != nil {
			log.Error().Err(err).Msg("Failed to scan employee")
			writeError(w, http.StatusServiceUnavailable, "system error")
			return
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error iterating employees")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

type applicationRow struct {
	ApplicationID  string    `json:"application_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	Position       string    `json:"position"`
	Status         string    `json:"status"`
	AppliedAt      time.Time `json:"applied_at"`
}

// ListApplicationsHandler lists job applications in the caller's tenant.
func (s *Server) ListApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	db, ok := TenantDBFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "please log in")
		return
	}

	query := `
		SELECT application_id, candidate_name, candidate_email, position, status, applied_at
		FROM job_applications
		ORDER BY applied_at DESC
	`

	rows, err := db.Query(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list applications")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}
	defer rows.Close()

	applications := []applicationRow{}
	for rows.Next() {
		var a applicationRow
		if err := rows.Scan(&a.ApplicationID, &a.CandidateName, &a.CandidateEmail, &a.Position, &a.Status, &a.AppliedAt); err != nil {
			log.Error().Err(err).Msg("Failed to scan application")
			writeError(w, http.StatusServiceUnavailable, "system error")
			return
		}
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error iterating applications")
		writeError(w, http.StatusServiceUnavailable, "system error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"applications": applications})
}
