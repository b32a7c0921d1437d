// Package resolver orchestrates tenant resolution: it takes an identity,
// queries the metadata directory for the tenant route, and returns the cached
// or newly created pool for that tenant database. Business logic issues its
// own SQL against the returned pool.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/session"
	"github.com/talentwire/talentwire/internal/telemetry"
	"github.com/talentwire/talentwire/internal/tenantpool"
)

var (
	// ErrInvalidIdentity means the caller supplied no usable identity.
	// Surfaced as "please log in"; never retried.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrNoActiveSubscription is the expected business condition when an
	// identity has no active three-way match in the directory.
	ErrNoActiveSubscription = directory.ErrNoActiveSubscription

	// ErrUnavailable covers metadata query failures and tenant pool
	// construction failures. The cause is kept for server-side logs; callers
	// must surface a generic system error, never the wrapped detail.
	ErrUnavailable = errors.New("tenant resolution unavailable")
)

// Identity is a raw identifier supplied on the pre-login path.
type Identity struct {
	Kind  directory.IdentityKind
	Value string
}

// Resolver resolves identities to tenant database pools.
type Resolver struct {
	dir   directory.Directory
	pools *tenantpool.Registry
}

// New creates a resolver over the given directory and pool registry.
func New(dir directory.Directory, pools *tenantpool.Registry) *Resolver {
	return &Resolver{
		dir:   dir,
		pools: pools,
	}
}

// Resolve maps an identity to its tenant pool. Resolution is idempotent for a
// fixed metadata state: the same identity yields a pool for the same tenant
// database every time, and repeat resolutions return the cached pool.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (tenantpool.DB, error) {
	metrics := telemetry.GetMetrics()
	started := time.Now()

	// Fail fast before touching the directory.
	if id.Value == "" || !id.Kind.Valid() {
		metrics.ResolutionFailuresTotal.Add(ctx, 1)
		return nil, ErrInvalidIdentity
	}

	metrics.ResolutionsTotal.Add(ctx, 1)

	route, err := r.dir.LookupRoute(ctx, id.Kind, id.Value)
	if err != nil {
		metrics.ResolutionFailuresTotal.Add(ctx, 1)
		if errors.Is(err, directory.ErrNoActiveSubscription) {
			return nil, ErrNoActiveSubscription
		}
		log.Error().Err(err).Str("kind", string(id.Kind)).Msg("Metadata directory lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	db, err := r.pools.Get(ctx, route)
	if err != nil {
		metrics.ResolutionFailuresTotal.Add(ctx, 1)
		log.Error().Err(err).Str("database", route.DatabaseName).Msg("Tenant pool creation failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.ResolutionDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	return db, nil
}

// ResolveClaims maps verified session claims to the tenant pool. Claims must
// carry a non-empty organization and username; absence is a hard failure, not
// a silent default.
func (r *Resolver) ResolveClaims(ctx context.Context, claims *session.Claims) (tenantpool.DB, error) {
	if claims == nil || claims.OrgID == "" || claims.Username == "" {
		return nil, ErrInvalidIdentity
	}

	return r.Resolve(ctx, Identity{Kind: directory.IdentityUsername, Value: claims.Username})
}
