package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/directory/memory"
	"github.com/talentwire/talentwire/internal/models"
	"github.com/talentwire/talentwire/internal/session"
	"github.com/talentwire/talentwire/internal/tenantpool"
)

type fakeDB struct{}

func (fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeDB) Ping(ctx context.Context) error                                { return nil }
func (fakeDB) Close()                                                        {}

func fakeOpener(ctx context.Context, route *models.TenantRoute, cfg tenantpool.Config) (tenantpool.DB, error) {
	return &fakeDB{}, nil
}

// countingDirectory wraps a directory and counts LookupRoute calls.
type countingDirectory struct {
	directory.Directory
	lookups atomic.Int64
	err     error
}

func (d *countingDirectory) LookupRoute(ctx context.Context, kind directory.IdentityKind, identity string) (*models.TenantRoute, error) {
	d.lookups.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.Directory.LookupRoute(ctx, kind, identity)
}

func seededDirectory(t *testing.T) *memory.Directory {
	t.Helper()
	ctx := context.Background()

	dir := memory.New()
	subscriberID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())

	err := dir.ProvisionTenant(ctx,
		&models.Subscriber{
			SubscriberID: subscriberID,
			OrgID:        orgID,
			Name:         "Acme Staffing",
			Active:       true,
			CreatedAt:    time.Now(),
		},
		&models.SubscriptionPlan{
			PlanID:       uuid.Must(uuid.NewV7()),
			SubscriberID: subscriberID,
			DatabaseName: "tenant_acme",
			DBUser:       "tw_acme",
			DBPassword:   "pw",
			Active:       true,
		},
		&models.DirectoryEmployee{
			EmployeeID: uuid.Must(uuid.NewV7()),
			OrgID:      orgID,
			Username:   "jdoe",
			Email:      "jdoe@acme.example",
			Active:     true,
		})
	require.NoError(t, err)

	return dir
}

func newTestResolver(t *testing.T, dir directory.Directory) *Resolver {
	t.Helper()
	pools := tenantpool.NewRegistry(tenantpool.Config{Host: "localhost"}, tenantpool.WithOpener(fakeOpener))
	t.Cleanup(pools.Close)
	return New(dir, pools)
}

func TestResolve(t *testing.T) {
	t.Run("known identity resolves to a pool", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))

		db, err := r.Resolve(context.Background(), Identity{Kind: directory.IdentityUsername, Value: "jdoe"})
		require.NoError(t, err)
		require.NotNil(t, db)
	})

	t.Run("resolution is idempotent", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))
		ctx := context.Background()
		id := Identity{Kind: directory.IdentityUsername, Value: "jdoe"}

		first, err := r.Resolve(ctx, id)
		require.NoError(t, err)

		second, err := r.Resolve(ctx, id)
		require.NoError(t, err)

		require.Same(t, first.(*fakeDB), second.(*fakeDB))
	})

	t.Run("username and email converge on the same pool", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))
		ctx := context.Background()

		byUsername, err := r.Resolve(ctx, Identity{Kind: directory.IdentityUsername, Value: "jdoe"})
		require.NoError(t, err)

		byEmail, err := r.Resolve(ctx, Identity{Kind: directory.IdentityEmail, Value: "jdoe@acme.example"})
		require.NoError(t, err)

		require.Same(t, byUsername.(*fakeDB), byEmail.(*fakeDB))
	})

	t.Run("unknown identity maps to no active subscription", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))

		_, err := r.Resolve(context.Background(), Identity{Kind: directory.IdentityUsername, Value: "nobody"})
		require.ErrorIs(t, err, ErrNoActiveSubscription)
	})

	t.Run("empty identity fails without touching the directory", func(t *testing.T) {
		counting := &countingDirectory{Directory: seededDirectory(t)}
		r := newTestResolver(t, counting)

		_, err := r.Resolve(context.Background(), Identity{Kind: directory.IdentityUsername, Value: ""})
		require.ErrorIs(t, err, ErrInvalidIdentity)
		require.EqualValues(t, 0, counting.lookups.Load())
	})

	t.Run("invalid identity kind fails without touching the directory", func(t *testing.T) {
		counting := &countingDirectory{Directory: seededDirectory(t)}
		r := newTestResolver(t, counting)

		_, err := r.Resolve(context.Background(), Identity{Kind: "phone", Value: "555-0100"})
		require.ErrorIs(t, err, ErrInvalidIdentity)
		require.EqualValues(t, 0, counting.lookups.Load())
	})

	t.Run("directory outage maps to unavailable", func(t *testing.T) {
		counting := &countingDirectory{
			Directory: seededDirectory(t),
			err:       errors.New("dial tcp: connection refused"),
		}
		r := newTestResolver(t, counting)

		_, err := r.Resolve(context.Background(), Identity{Kind: directory.IdentityUsername, Value: "jdoe"})
		require.ErrorIs(t, err, ErrUnavailable)
		require.NotErrorIs(t, err, ErrNoActiveSubscription)
		require.NotErrorIs(t, err, ErrInvalidIdentity)
	})

	t.Run("pool creation failure maps to unavailable", func(t *testing.T) {
		pools := tenantpool.NewRegistry(tenantpool.Config{Host: "localhost"},
			tenantpool.WithOpener(func(ctx context.Context, route *models.TenantRoute, cfg tenantpool.Config) (tenantpool.DB, error) {
				return nil, errors.New("connection refused")
			}))
		t.Cleanup(pools.Close)
		r := New(seededDirectory(t), pools)

		_, err := r.Resolve(context.Background(), Identity{Kind: directory.IdentityUsername, Value: "jdoe"})
		require.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestResolveClaims(t *testing.T) {
	t.Run("claims resolve by username", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))

		db, err := r.ResolveClaims(context.Background(), &session.Claims{
			OrgID:      uuid.Must(uuid.NewV7()).String(),
			EmployeeID: uuid.Must(uuid.NewV7()).String(),
			Username:   "jdoe",
		})
		require.NoError(t, err)
		require.NotNil(t, db)
	})

	t.Run("nil claims", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))

		_, err := r.ResolveClaims(context.Background(), nil)
		require.ErrorIs(t, err, ErrInvalidIdentity)
	})

	t.Run("missing org claim", func(t *testing.T) {
		counting := &countingDirectory{Directory: seededDirectory(t)}
		r := newTestResolver(t, counting)

		_, err := r.ResolveClaims(context.Background(), &session.Claims{Username: "jdoe"})
		require.ErrorIs(t, err, ErrInvalidIdentity)
		require.EqualValues(t, 0, counting.lookups.Load())
	})

	t.Run("missing username claim", func(t *testing.T) {
		r := newTestResolver(t, seededDirectory(t))

		_, err := r.ResolveClaims(context.Background(), &session.Claims{OrgID: "org"})
		require.ErrorIs(t, err, ErrInvalidIdentity)
	})
}
