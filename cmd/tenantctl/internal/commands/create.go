package commands

import (
	"context"
	"errors"
	"fmt"

	directorypg "github.com/talentwire/talentwire/internal/directory/postgres"
	"github.com/talentwire/talentwire/internal/logger"
	"github.com/talentwire/talentwire/internal/provision"
	"github.com/talentwire/talentwire/internal/tenantpool"
)

type CreateCmd struct {
	CompanyName   string `help:"company name of the new subscriber" required:""`
	AdminUsername string `help:"username of the first tenant administrator" required:""`
	AdminEmail    string `help:"email of the first tenant administrator" required:""`
	AdminFullName string `help:"full name of the first tenant administrator"`

	AdminConnString string `help:"connection string of a role allowed to CREATE DATABASE" env:"TALENTWIRE_ADMIN_CONN_STRING"`

	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
	Tenant   TenantFlags   `embed:"" prefix:"tenant-"`
}

func (c *CreateCmd) Validate() error {
	if c.AdminConnString == "" {
		return errors.New("admin connection string is required (--admin-conn-string or TALENTWIRE_ADMIN_CONN_STRING)")
	}
	return nil
}

func (c *CreateCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	adminPool, err := directorypg.NewPool(ctx, &directorypg.PoolConfig{
		ConnString: c.AdminConnString,
		MaxConns:   2,
		MinConns:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to connect as admin: %w", err)
	}
	defer adminPool.Close()

	metaPool, err := directorypg.NewPool(ctx, &directorypg.PoolConfig{
		ConnString: c.Metadata.ConnString,
		MaxConns:   c.Metadata.MaxConns,
		MinConns:   c.Metadata.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata pool: %w", err)
	}
	defer metaPool.Close()

	dir, err := directorypg.New(ctx, metaPool, directorypg.Config{AutoMigrate: c.Metadata.AutoMigrate})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata directory: %w", err)
	}

	prov := provision.New(adminPool, dir, tenantpool.Config{
		Host:           c.Tenant.Host,
		Port:           c.Tenant.Port,
		SSLMode:        c.Tenant.SSLMode,
		MaxConns:       c.Tenant.MaxConns,
		ConnectTimeout: c.Tenant.ConnectTimeout,
	})

	result, err := prov.CreateTenant(ctx, provision.Request{
		CompanyName:   c.CompanyName,
		AdminUsername: c.AdminUsername,
		AdminEmail:    c.AdminEmail,
		AdminFullName: c.AdminFullName,
	})
	if err != nil {
		return fmt.Errorf("failed to provision tenant: %w", err)
	}

	log.Info().
		Str("subscriber_id", result.SubscriberID.String()).
		Str("org_id", result.OrgID.String()).
		Str("database", result.DatabaseName).
		Msg("Tenant provisioned")

	// Credentials are printed once and not stored anywhere outside the
	// metadata directory.
	fmt.Printf("subscriber_id: %s\n", result.SubscriberID)
	fmt.Printf("org_id:        %s\n", result.OrgID)
	fmt.Printf("database:      %s\n", result.DatabaseName)
	fmt.Printf("db_user:       %s\n", result.DBUser)
	fmt.Printf("admin_user:    %s\n", c.AdminUsername)
	fmt.Printf("admin_pass:    %s\n", result.AdminPassword)

	return nil
}
