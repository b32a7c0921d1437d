package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/models"
)

// Directory implements directory.Directory against the metadata database.
type Directory struct {
	pool *pgxpool.Pool
}

// Config holds directory configuration.
type Config struct {
	// AutoMigrate runs metadata schema migrations on startup.
	AutoMigrate bool
}

// New creates a PostgreSQL-backed metadata directory sharing the given pool.
func New(ctx context.Context, pool *pgxpool.Pool, cfg Config) (*Directory, error) {
	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to run metadata migrations: %w", err)
		}
	}

	return &Directory{pool: pool}, nil
}

// LookupRoute resolves an identity through the three-way active join.
// The metadata connection is acquired and released inside this call on every
// exit path, including query failures.
func (d *Directory) LookupRoute(ctx context.Context, kind directory.IdentityKind, identity string) (*models.TenantRoute, error) {
	var column string
	switch kind {
	case directory.IdentityUsername:
		column = "username"
	case directory.IdentityEmail:
		column = "email"
	default:
		return nil, fmt.Errorf("unknown identity kind %q", kind)
	}

	// column comes from the switch above, never from caller input
	query := fmt.Sprintf(`
		SELECT p.database_name, p.db_user, p.db_password
		FROM employees e
		JOIN subscribers s ON s.org_id = e.org_id
		JOIN subscription_plans p ON p.subscriber_id = s.subscriber_id
		WHERE e.%s = $1 AND e.active AND s.active AND p.active
		ORDER BY p.created_at
		LIMIT 1
	`, column)

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire metadata connection: %w", err)
	}
	defer conn.Release()

	var route models.TenantRoute
	err = conn.QueryRow(ctx, query, identity).Scan(
		&route.DatabaseName,
		&route.User,
		&route.Password,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to look up tenant route: %w", err)
	}

	return &route, nil
}

// CreateSubscriber registers a new subscriber and its organization.
func (d *Directory) CreateSubscriber(ctx context.Context, sub *models.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			subscriber_id, org_id, name, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := d.pool.Exec(ctx, query,
		sub.SubscriberID,
		sub.OrgID,
		sub.Name,
		sub.Active,
		sub.CreatedAt,
		sub.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrSubscriberAlreadyExists
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	log.Debug().
		Str("subscriber_id", sub.SubscriberID.String()).
		Str("name", sub.Name).
		Msg("Created subscriber")

	return nil
}

// CreatePlan attaches a subscription plan to a subscriber.
func (d *Directory) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			plan_id, subscriber_id, database_name, db_user, db_password,
			active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := d.pool.Exec(ctx, query,
		plan.PlanID,
		plan.SubscriberID,
		plan.DatabaseName,
		plan.DBUser,
		plan.DBPassword,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return directory.ErrSubscriberNotFound
		}
		return fmt.Errorf("failed to create subscription plan: %w", err)
	}

	log.Debug().
		Str("plan_id", plan.PlanID.String()).
		Str("database_name", plan.DatabaseName).
		Msg("Created subscription plan")

	return nil
}

// CreateEmployee registers an employee routing record.
func (d *Directory) CreateEmployee(ctx context.Context, emp *models.DirectoryEmployee) error {
	query := `
		INSERT INTO employees (
			employee_id, org_id, username, email, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := d.pool.Exec(ctx, query,
		emp.EmployeeID,
		emp.OrgID,
		emp.Username,
		emp.Email,
		emp.Active,
		emp.CreatedAt,
		emp.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrEmployeeAlreadyExists
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	return nil
}

// ListSubscribers returns all subscribers, newest first.
func (d *Directory) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	query := `
		SELECT subscriber_id, org_id, name, active, created_at, updated_at
		FROM subscribers
		ORDER BY created_at DESC
	`

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		err := rows.Scan(
			&sub.SubscriberID,
			&sub.OrgID,
			&sub.Name,
			&sub.Active,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subs, nil
}

// ProvisionTenant writes the subscriber, plan, and first employee records in
// a single transaction, so a half-provisioned tenant never becomes visible to
// lookups.
func (d *Directory) ProvisionTenant(ctx context.Context, sub *models.Subscriber, plan *models.SubscriptionPlan, emp *models.DirectoryEmployee) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin provisioning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO subscribers (subscriber_id, org_id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sub.SubscriberID, sub.OrgID, sub.Name, sub.Active, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrSubscriberAlreadyExists
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscription_plans (plan_id, subscriber_id, database_name, db_user, db_password, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, plan.PlanID, plan.SubscriberID, plan.DatabaseName, plan.DBUser, plan.DBPassword, plan.Active, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription plan: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO employees (employee_id, org_id, username, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, emp.EmployeeID, emp.OrgID, emp.Username, emp.Email, emp.Active, emp.CreatedAt, emp.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrEmployeeAlreadyExists
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit provisioning transaction: %w", err)
	}

	log.Info().
		Str("subscriber_id", sub.SubscriberID.String()).
		Str("database_name", plan.DatabaseName).
		Msg("Provisioned tenant records")

	return nil
}

// SetSubscriberActive flips a subscriber's active flag.
func (d *Directory) SetSubscriberActive(ctx context.Context, subscriberID uuid.UUID, active bool) error {
	query := `UPDATE subscribers SET active = $2, updated_at = $3 WHERE subscriber_id = $1`

	result, err := d.pool.Exec(ctx, query, subscriberID, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	if result.RowsAffected() == 0 {
		return directory.ErrSubscriberNotFound
	}

	log.Info().
		Str("subscriber_id", subscriberID.String()).
		Bool("active", active).
		Msg("Updated subscriber active flag")

	return nil
}

// SetEmployeeActive flips an employee's active flag.
func (d *Directory) SetEmployeeActive(ctx context.Context, employeeID uuid.UUID, active bool) error {
	query := `UPDATE employees SET active = $2, updated_at = $3 WHERE employee_id = $1`

	result, err := d.pool.Exec(ctx, query, employeeID, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	if result.RowsAffected() == 0 {
		return directory.ErrEmployeeNotFound
	}

	return nil
}

// SetPlanActive flips a plan's active flag.
func (d *Directory) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	query := `UPDATE subscription_plans SET active = $2, updated_at = $3 WHERE plan_id = $1`

	result, err := d.pool.Exec(ctx, query, planID, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update subscription plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return directory.ErrPlanNotFound
	}

	return nil
}
