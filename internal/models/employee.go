package models

import (
	"time"

	"github.com/google/uuid"
)

// DirectoryEmployee is the routing record for an employee in the metadata
// directory. It links a login identity (username or email) to an organization
// so lookups can find the owning subscriber. The employee's full HR record,
// including the password hash, lives in the tenant database.
type DirectoryEmployee struct {
	EmployeeID uuid.UUID // UUIDv7
	OrgID      uuid.UUID
	Username   string
	Email      string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
