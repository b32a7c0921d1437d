package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is the administrative account owning one organization.
// Subscribers live in the metadata directory, never in tenant databases.
type Subscriber struct {
	SubscriberID uuid.UUID // UUIDv7
	OrgID        uuid.UUID // UUIDv7, one organization per subscriber
	Name         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
