package tenantpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/models"
	"github.com/talentwire/talentwire/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// Registry caches one connection pool per distinct tenant database for the
// life of the process. Concurrent first lookups for the same tenant share a
// single in-flight creation, so a new tenant never ends up with duplicate
// pools. Entries are replaced only when the route's credentials rotate and
// closed only by Close.
type Registry struct {
	cfg    Config
	opener Opener

	mu      sync.RWMutex
	entries map[string]*entry

	group singleflight.Group
}

type entry struct {
	db          DB
	fingerprint string
}

// NewRegistry creates a tenant pool registry. The registry is constructed once
// at startup and injected into the resolver; it is never implicitly reset.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	cfg.ApplyDefaults()

	r := &Registry{
		cfg:     cfg,
		opener:  OpenPool,
		entries: make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener replaces the pool opener. Used by tests to substitute fakes.
func WithOpener(opener Opener) Option {
	return func(r *Registry) {
		r.opener = opener
	}
}

// Get returns the pool for the tenant database named by the route, creating
// it on first use. A cache hit with a rotated credential fingerprint closes
// the stale pool and opens a replacement with the new credentials.
func (r *Registry) Get(ctx context.Context, route *models.TenantRoute) (DB, error) {
	if route == nil || route.DatabaseName == "" {
		return nil, fmt.Errorf("tenant route with database name is required")
	}

	metrics := telemetry.GetMetrics()
	fingerprint := route.CredentialFingerprint()

	r.mu.RLock()
	e, ok := r.entries[route.DatabaseName]
	r.mu.RUnlock()

	if ok && e.fingerprint == fingerprint {
		metrics.PoolCacheHitsTotal.Add(ctx, 1)
		return e.db, nil
	}

	v, err, _ := r.group.Do(route.DatabaseName, func() (any, error) {
		// Another caller may have finished creation while we waited.
		r.mu.RLock()
		e, ok := r.entries[route.DatabaseName]
		r.mu.RUnlock()

		if ok && e.fingerprint == fingerprint {
			return e.db, nil
		}

		metrics.PoolCacheMissesTotal.Add(ctx, 1)

		db, err := r.opener(ctx, route, r.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open tenant pool for %s: %w", route.DatabaseName, err)
		}

		r.mu.Lock()
		old := r.entries[route.DatabaseName]
		r.entries[route.DatabaseName] = &entry{db: db, fingerprint: fingerprint}
		r.mu.Unlock()

		if old != nil {
			metrics.PoolRotationsTotal.Add(ctx, 1)
			log.Info().
				Str("database", route.DatabaseName).
				Msg("Tenant credentials rotated, replacing pool")
			old.db.Close()
		} else {
			metrics.TenantPoolsOpen.Add(ctx, 1)
			log.Info().
				Str("database", route.DatabaseName).
				Msg("Opened tenant pool")
		}

		return db, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(DB), nil
}

// Len returns the number of cached tenant pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close closes every cached pool. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.entries {
		e.db.Close()
		delete(r.entries, name)
	}
}
