package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talentwire/talentwire/internal/models"
)

// Sentinel errors for directory operations
var (
	// ErrNoActiveSubscription means the identity did not resolve to an active
	// employee, subscriber, and plan. It deliberately does not reveal which
	// of the three conditions failed.
	ErrNoActiveSubscription = errors.New("no active subscription")

	ErrSubscriberNotFound      = errors.New("subscriber not found")
	ErrSubscriberAlreadyExists = errors.New("subscriber already exists")
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEmployeeAlreadyExists   = errors.New("employee already exists")
	ErrPlanNotFound            = errors.New("subscription plan not found")
)

// IdentityKind selects which employee column a pre-login lookup matches on.
type IdentityKind string

const (
	IdentityUsername IdentityKind = "username"
	IdentityEmail    IdentityKind = "email"
)

// Valid reports whether the kind is one of the defined lookup kinds.
func (k IdentityKind) Valid() bool {
	return k == IdentityUsername || k == IdentityEmail
}

// Directory is the metadata directory: the single shared mapping from an
// employee identity to the tenant database serving it. Lookups require all
// three of employee, subscriber, and plan to be active; any inactive link
// yields ErrNoActiveSubscription rather than a partial route.
type Directory interface {
	// LookupRoute resolves an identity to a tenant route.
	// Returns ErrNoActiveSubscription when no active three-way match exists.
	LookupRoute(ctx context.Context, kind IdentityKind, identity string) (*models.TenantRoute, error)

	// CreateSubscriber registers a new subscriber and its organization.
	// Returns ErrSubscriberAlreadyExists on duplicate ID or name.
	CreateSubscriber(ctx context.Context, sub *models.Subscriber) error

	// CreatePlan attaches a subscription plan to a subscriber.
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error

	// CreateEmployee registers an employee routing record.
	// Returns ErrEmployeeAlreadyExists on duplicate username or email.
	CreateEmployee(ctx context.Context, emp *models.DirectoryEmployee) error

	// ListSubscribers returns all subscribers, newest first.
	ListSubscribers(ctx context.Context) ([]*models.Subscriber, error)

	// SetSubscriberActive flips a subscriber's active flag.
	// Returns ErrSubscriberNotFound if the subscriber doesn't exist.
	SetSubscriberActive(ctx context.Context, subscriberID uuid.UUID, active bool) error

	// SetEmployeeActive flips an employee's active flag.
	SetEmployeeActive(ctx context.Context, employeeID uuid.UUID, active bool) error

	// SetPlanActive flips a plan's active flag.
	// Returns ErrPlanNotFound if the plan doesn't exist.
	SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error

	// ProvisionTenant writes the subscriber, plan, and first employee records
	// as one atomic unit. Either all three land or none do.
	ProvisionTenant(ctx context.Context, sub *models.Subscriber, plan *models.SubscriptionPlan, emp *models.DirectoryEmployee) error
}
