// Package provision onboards new tenants: it creates the tenant database and
// its privileged role, installs the HR schema, seeds the first admin
// employee, and records the subscriber, plan, and employee routing rows in
// the metadata directory as one transaction.
package provision

import (
	"context"
	"crypto/rand"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/models"
	"github.com/talentwire/talentwire/internal/tenantpool"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// Request describes a tenant to onboard.
type Request struct {
	CompanyName   string
	AdminUsername string
	AdminEmail    string
	AdminFullName string
}

// Validate checks that the request is complete.
func (r *Request) Validate() error {
	if r.CompanyName == "" {
		return fmt.Errorf("company name is required")
	}
	if r.AdminUsername == "" {
		return fmt.Errorf("admin username is required")
	}
	if r.AdminEmail == "" {
		return fmt.Errorf("admin email is required")
	}
	return nil
}

// Result carries the generated identifiers and credentials. The admin
// password and database password are returned exactly once.
type Result struct {
	SubscriberID  uuid.UUID
	OrgID         uuid.UUID
	DatabaseName  string
	DBUser        string
	DBPassword    string
	AdminPassword string
}

// Provisioner onboards tenants. The admin pool must be connected with a role
// allowed to CREATE DATABASE and CREATE ROLE.
type Provisioner struct {
	admin *pgxpool.Pool
	dir   directory.Directory
	cfg   tenantpool.Config
}

// New creates a Provisioner.
func New(admin *pgxpool.Pool, dir directory.Directory, cfg tenantpool.Config) *Provisioner {
	cfg.ApplyDefaults()
	return &Provisioner{
		admin: admin,
		dir:   dir,
		cfg:   cfg,
	}
}

// CreateTenant onboards one tenant end to end. The database and role are
// created outside a transaction (CREATE DATABASE cannot run inside one); the
// directory rows are written last so a lookup never routes to a database that
// isn't ready. On failure the database and role are dropped best-effort.
func (p *Provisioner) CreateTenant(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provisioning request: %w", err)
	}

	subscriberID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscriber ID: %w", err)
	}
	orgID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate org ID: %w", err)
	}
	employeeID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate employee ID: %w", err)
	}

	suffix := strings.ToLower(base58.Encode(subscriberID[:]))
	result := &Result{
		SubscriberID:  subscriberID,
		OrgID:         orgID,
		DatabaseName:  "tenant_" + suffix,
		DBUser:        "tw_" + suffix,
		DBPassword:    randomToken(24),
		AdminPassword: randomToken(18),
	}

	if err := p.createDatabase(ctx, result); err != nil {
		return nil, err
	}

	if err := p.installSchema(ctx, result, employeeID, req); err != nil {
		p.dropDatabase(ctx, result)
		return nil, err
	}

	now := time.Now()
	err = p.dir.ProvisionTenant(ctx,
		&models.Subscriber{
			SubscriberID: subscriberID,
			OrgID:        orgID,
			Name:         req.CompanyName,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		&models.SubscriptionPlan{
			PlanID:       uuid.Must(uuid.NewV7()),
			SubscriberID: subscriberID,
			DatabaseName: result.DatabaseName,
			DBUser:       result.DBUser,
			DBPassword:   result.DBPassword,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		&models.DirectoryEmployee{
			EmployeeID: employeeID,
			OrgID:      orgID,
			Username:   req.AdminUsername,
			Email:      req.AdminEmail,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	)
	if err != nil {
		p.dropDatabase(ctx, result)
		return nil, fmt.Errorf("failed to record tenant in directory: %w", err)
	}

	log.Info().
		Str("subscriber_id", subscriberID.String()).
		Str("database", result.DatabaseName).
		Str("company", req.CompanyName).
		Msg("Tenant provisioned")

	return result, nil
}

func (p *Provisioner) createDatabase(ctx context.Context, result *Result) error {
	user := pgx.Identifier{result.DBUser}.Sanitize()
	db := pgx.Identifier{result.DatabaseName}.Sanitize()

	// password is machine-generated base58, safe to quote directly
	createRole := fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD '%s'", user, result.DBPassword)
	if _, err := p.admin.Exec(ctx, createRole); err != nil {
		return fmt.Errorf("failed to create tenant role: %w", err)
	}

	createDB := fmt.Sprintf("CREATE DATABASE %s OWNER %s", db, user)
	if _, err := p.admin.Exec(ctx, createDB); err != nil {
		if _, dropErr := p.admin.Exec(ctx, "DROP ROLE IF EXISTS "+user); dropErr != nil {
			log.Warn().Err(dropErr).Str("role", result.DBUser).Msg("Failed to drop orphaned tenant role")
		}
		return fmt.Errorf("failed to create tenant database: %w", err)
	}

	return nil
}

// dropDatabase removes a partially provisioned tenant. Best-effort: failures
// are logged, not returned, because the original provisioning error matters
// more to the caller.
func (p *Provisioner) dropDatabase(ctx context.Context, result *Result) {
	db := pgx.Identifier{result.DatabaseName}.Sanitize()
	user := pgx.Identifier{result.DBUser}.Sanitize()

	if _, err := p.admin.Exec(ctx, "DROP DATABASE IF EXISTS "+db); err != nil {
		log.Warn().Err(err).Str("database", result.DatabaseName).Msg("Failed to drop tenant database during cleanup")
		return
	}
	if _, err := p.admin.Exec(ctx, "DROP ROLE IF EXISTS "+user); err != nil {
		log.Warn().Err(err).Str("role", result.DBUser).Msg("Failed to drop tenant role during cleanup")
	}
}

// installSchema connects to the fresh tenant database as its owner, applies
// the HR schema, and seeds the first admin employee.
func (p *Provisioner) installSchema(ctx context.Context, result *Result, employeeID uuid.UUID, req Request) error {
	route := &models.TenantRoute{
		DatabaseName: result.DatabaseName,
		User:         result.DBUser,
		Password:     result.DBPassword,
	}

	pool, err := pgxpool.New(ctx, p.cfg.ConnString(route))
	if err != nil {
		return fmt.Errorf("failed to connect to tenant database: %w", err)
	}
	defer pool.Close()

	schema, err := schemaFS.ReadFile("migrations/1_tenant_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read tenant schema: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(result.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to install tenant schema: %w", err)
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO employees (
			employee_id, org_id, username, email, full_name, role_name,
			password_hash, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
	`, employeeID, result.OrgID, req.AdminUsername, req.AdminEmail, req.AdminFullName, "admin", string(hash), now)
	if err != nil {
		return fmt.Errorf("failed to seed admin employee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tenant schema: %w", err)
	}

	return nil
}

// randomToken returns a Base58 token with n bytes of entropy.
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base58.Encode(buf)
}
