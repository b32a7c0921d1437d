package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"filippo.io/csrf"
	"github.com/rs/cors"
	"github.com/talentwire/talentwire/internal/directory"
	directorypg "github.com/talentwire/talentwire/internal/directory/postgres"
	httpmiddleware "github.com/talentwire/talentwire/internal/http"
	"github.com/talentwire/talentwire/internal/logger"
	"github.com/talentwire/talentwire/internal/resolver"
	"github.com/talentwire/talentwire/internal/server"
	"github.com/talentwire/talentwire/internal/telemetry"
	"github.com/talentwire/talentwire/internal/tenantpool"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8443" env:"TALENTWIRE_LISTEN"`
	Cert   string `help:"path to TLS cert file (serve plain HTTP when empty)" default:"" env:"TALENTWIRE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"TALENTWIRE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"TALENTWIRE_CORS_ORIGINS"`

	// Session configuration
	SessionSecret string        `help:"secret signing session tokens (min 32 bytes)" env:"TALENTWIRE_SESSION_SECRET"`
	SessionTTL    time.Duration `help:"session TTL" default:"24h" env:"TALENTWIRE_SESSION_TTL"`

	// Observability
	Tracing bool `help:"enable tracing and metrics export" default:"false" env:"TALENTWIRE_TRACING"`

	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
	Tenant   TenantFlags   `embed:"" prefix:"tenant-"`
}

// MetadataFlags configures the fixed-location metadata database.
type MetadataFlags struct {
	ConnString      string `help:"metadata database connection string" env:"TALENTWIRE_METADATA_CONN_STRING"`
	MaxConns        int32  `help:"maximum number of connections in the metadata pool" default:"10"`
	MinConns        int32  `help:"minimum number of connections in the metadata pool" default:"2"`
	MaxConnLifetime int32  `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32  `help:"maximum connection idle time in seconds" default:"1800"`
	AutoMigrate     bool   `help:"run metadata migrations on startup" default:"false" env:"TALENTWIRE_METADATA_AUTO_MIGRATE"`
}

func (f *MetadataFlags) Validate() error {
	if f.ConnString == "" {
		return errors.New("metadata connection string is required (--metadata-conn-string or TALENTWIRE_METADATA_CONN_STRING)")
	}
	return nil
}

// TenantFlags configures the shared settings of tenant pools. Database name
// and credentials are per-tenant data in the directory, not configuration.
type TenantFlags struct {
	Host           string `help:"database server hosting tenant databases" default:"localhost" env:"TALENTWIRE_TENANT_HOST"`
	Port           int    `help:"database server port" default:"5432" env:"TALENTWIRE_TENANT_PORT"`
	SSLMode        string `help:"sslmode for tenant connections" default:"prefer" env:"TALENTWIRE_TENANT_SSLMODE"`
	MaxConns       int32  `help:"maximum connections per tenant pool" default:"10"`
	ConnectTimeout int32  `help:"tenant connect timeout in seconds" default:"10"`
}

func (c *ServerCmd) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (--session-secret or TALENTWIRE_SESSION_SECRET)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "talentwire-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	metaPool, err := directorypg.NewPool(ctx, &directorypg.PoolConfig{
		ConnString:      c.Metadata.ConnString,
		MaxConns:        c.Metadata.MaxConns,
		MinConns:        c.Metadata.MinConns,
		MaxConnLifetime: c.Metadata.MaxConnLifetime,
		MaxConnIdleTime: c.Metadata.MaxConnIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata pool: %w", err)
	}
	defer metaPool.Close()

	var dir directory.Directory
	dir, err = directorypg.New(ctx, metaPool, directorypg.Config{AutoMigrate: c.Metadata.AutoMigrate})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata directory: %w", err)
	}
	log.Info().Msg("Metadata directory ready")

	registry := tenantpool.NewRegistry(tenantpool.Config{
		Host:           c.Tenant.Host,
		Port:           c.Tenant.Port,
		SSLMode:        c.Tenant.SSLMode,
		MaxConns:       c.Tenant.MaxConns,
		ConnectTimeout: c.Tenant.ConnectTimeout,
	})
	defer registry.Close()

	res := resolver.New(dir, registry)

	srv := server.New(res, server.Config{
		SessionSecret: []byte(c.SessionSecret),
		SessionTTL:    c.SessionTTL,
	})

	mux := http.NewServeMux()
	srv.Routes(mux)

	clientIPMiddleware := httpmiddleware.ClientIPMiddleware()
	accessLog := logger.AccessLog(log)

	inner := accessLog(clientIPMiddleware(mux))

	// CSRF protection for browser-facing pages; API and auth routes get CORS
	protection := csrf.New()
	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   c.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			corsWrapper.Handler(inner).ServeHTTP(w, r)
		} else {
			protection.Handler(inner).ServeHTTP(w, r)
		}
	})

	httpServer := configureHTTPServer(c.Listen, handler)

	if c.Cert == "" || c.Key == "" {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		return httpServer.ListenAndServe()
	}

	if _, err := os.Stat(c.Cert); err != nil {
		return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
	}
	if _, err := os.Stat(c.Key); err != nil {
		return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
	return httpServer.ListenAndServeTLS(c.Cert, c.Key)
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/auth/") ||
		path == "/health"
}
