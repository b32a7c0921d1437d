package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/models"
)

// Directory implements directory.Directory using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type Directory struct {
	mu sync.RWMutex

	employees   map[uuid.UUID]*models.DirectoryEmployee // employee_id -> record
	subscribers map[uuid.UUID]*models.Subscriber        // subscriber_id -> record
	plans       []*models.SubscriptionPlan              // insertion order, first active match wins
}

// New creates a new in-memory metadata directory.
func New() *Directory {
	return &Directory{
		employees:   make(map[uuid.UUID]*models.DirectoryEmployee),
		subscribers: make(map[uuid.UUID]*models.Subscriber),
	}
}

// LookupRoute resolves an identity through the employee -> subscriber -> plan
// chain, requiring every link to be active.
func (d *Directory) LookupRoute(ctx context.Context, kind directory.IdentityKind, identity string) (*models.TenantRoute, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var emp *models.DirectoryEmployee
	for _, e := range d.employees {
		if !e.Active {
			continue
		}
		if (kind == directory.IdentityUsername && e.Username == identity) ||
			(kind == directory.IdentityEmail && e.Email == identity) {
			emp = e
			break
		}
	}
	if emp == nil {
		return nil, directory.ErrNoActiveSubscription
	}

	var sub *models.Subscriber
	for _, s := range d.subscribers {
		if s.Active && s.OrgID == emp.OrgID {
			sub = s
			break
		}
	}
	if sub == nil {
		return nil, directory.ErrNoActiveSubscription
	}

	for _, p := range d.plans {
		if p.Active && p.SubscriberID == sub.SubscriberID {
			return &models.TenantRoute{
				DatabaseName: p.DatabaseName,
				User:         p.DBUser,
				Password:     p.DBPassword,
			}, nil
		}
	}

	return nil, directory.ErrNoActiveSubscription
}

// CreateSubscriber registers a new subscriber.
func (d *Directory) CreateSubscriber(ctx context.Context, sub *models.Subscriber) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[sub.SubscriberID]; exists {
		return directory.ErrSubscriberAlreadyExists
	}

	clone := *sub
	d.subscribers[sub.SubscriberID] = &clone

	return nil
}

// CreatePlan attaches a subscription plan to a subscriber.
func (d *Directory) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[plan.SubscriberID]; !exists {
		return directory.ErrSubscriberNotFound
	}

	clone := *plan
	d.plans = append(d.plans, &clone)

	return nil
}

// CreateEmployee registers an employee routing record.
func (d *Directory) CreateEmployee(ctx context.Context, emp *models.DirectoryEmployee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.employees {
		if e.Username == emp.Username || e.Email == emp.Email {
			return directory.ErrEmployeeAlreadyExists
		}
	}

	clone := *emp
	d.employees[emp.EmployeeID] = &clone

	return nil
}

// ListSubscribers returns all subscribers, newest first.
func (d *Directory) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subs := make([]*models.Subscriber, 0, len(d.subscribers))
	for _, s := range d.subscribers {
		clone := *s
		subs = append(subs, &clone)
	}

	// newest first by creation time
	for i := range subs {
		for j := i + 1; j < len(subs); j++ {
			if subs[j].CreatedAt.After(subs[i].CreatedAt) {
				subs[i], subs[j] = subs[j], subs[i]
			}
		}
	}

	return subs, nil
}

// SetSubscriberActive flips a subscriber's active flag.
func (d *Directory) SetSubscriberActive(ctx context.Context, subscriberID uuid.UUID, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, exists := d.subscribers[subscriberID]
	if !exists {
		return directory.ErrSubscriberNotFound
	}

	sub.Active = active
	sub.UpdatedAt = time.Now()

	return nil
}

// SetEmployeeActive flips an employee's active flag.
func (d *Directory) SetEmployeeActive(ctx context.Context, employeeID uuid.UUID, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	emp, exists := d.employees[employeeID]
	if !exists {
		return directory.ErrEmployeeNotFound
	}

	emp.Active = active
	emp.UpdatedAt = time.Now()

	return nil
}

// ProvisionTenant writes the subscriber, plan, and first employee atomically.
func (d *Directory) ProvisionTenant(ctx context.Context, sub *models.Subscriber, plan *models.SubscriptionPlan, emp *models.DirectoryEmployee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[sub.SubscriberID]; exists {
		return directory.ErrSubscriberAlreadyExists
	}
	for _, e := range d.employees {
		if e.Username == emp.Username || e.Email == emp.Email {
			return directory.ErrEmployeeAlreadyExists
		}
	}

	subClone := *sub
	planClone := *plan
	empClone := *emp
	d.subscribers[sub.SubscriberID] = &subClone
	d.plans = append(d.plans, &planClone)
	d.employees[emp.EmployeeID] = &empClone

	return nil
}

// SetPlanActive flips a plan's active flag.
func (d *Directory) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.plans {
		if p.PlanID == planID {
			p.Active = active
			p.UpdatedAt = time.Now()
			return nil
		}
	}

	return directory.ErrPlanNotFound
}
