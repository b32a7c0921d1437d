package tenantpool

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentwire/talentwire/internal/models"
)

// DB is the query surface handed to business logic for a resolved tenant.
// *pgxpool.Pool satisfies it; tests substitute fakes via WithOpener.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Opener constructs a pool for a tenant route.
type Opener func(ctx context.Context, route *models.TenantRoute, cfg Config) (DB, error)

// Config holds settings shared by every tenant pool. The host and port are
// fixed for the deployment; database name and credentials are per-tenant data
// carried by the route.
type Config struct {
	// Host is the database server hosting the tenant databases.
	Host string

	// Port is the database server port. Default: 5432
	Port int

	// SSLMode is the libpq sslmode for tenant connections. Default: prefer
	SSLMode string

	// MaxConns bounds concurrent connections per tenant pool. Default: 10
	MaxConns int32

	// ConnectTimeout is the maximum time to wait for a connection (in seconds).
	// Default: 10
	ConnectTimeout int32
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 // 10 seconds
	}
}

// ConnString builds the connection string for a tenant route.
func (c *Config) ConnString(route *models.TenantRoute) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(route.User, route.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + route.DatabaseName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// OpenPool is the default Opener. It creates a bounded pgx pool against the
// tenant database and pings it to verify the route's credentials work.
func OpenPool(ctx context.Context, route *models.TenantRoute, cfg Config) (DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString(route))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tenant connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping tenant database: %w", err)
	}

	return pool, nil
}
