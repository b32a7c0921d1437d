package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan names the tenant database serving a subscriber and the
// privileged credential pair used to reach it. One active plan per subscriber
// is expected; lookups take the first active match.
type SubscriptionPlan struct {
	PlanID       uuid.UUID // UUIDv7
	SubscriberID uuid.UUID
	DatabaseName string
	DBUser       string
	DBPassword   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
