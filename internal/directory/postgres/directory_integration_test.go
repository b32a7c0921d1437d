//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/talentwire/talentwire/internal/directory"
	"github.com/talentwire/talentwire/internal/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Directory, *pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "metadata",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/metadata?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	dir, err := New(ctx, pool, Config{AutoMigrate: true})
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return dir, pool, cleanup
}

func provisionActiveTenant(t *testing.T, ctx context.Context, dir *Directory) (uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	subscriberID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	planID := uuid.Must(uuid.NewV7())
	employeeID := uuid.Must(uuid.NewV7())

	err := dir.ProvisionTenant(ctx,
		&models.Subscriber{
			SubscriberID: subscriberID,
			OrgID:        orgID,
			Name:         "Acme Staffing",
			Active:       true,
			CreatedAt:    time.Now(),
		},
		&models.SubscriptionPlan{
			PlanID:       planID,
			SubscriberID: subscriberID,
			DatabaseName: "tenant_acme",
			DBUser:       "tw_acme",
			DBPassword:   "pw",
			Active:       true,
		},
		&models.DirectoryEmployee{
			EmployeeID: employeeID,
			OrgID:      orgID,
			Username:   "jdoe",
			Email:      "jdoe@acme.example",
			Active:     true,
		})
	require.NoError(t, err)

	return subscriberID, planID, employeeID
}

func TestIntegration_LookupRoute(t *testing.T) {
	ctx := context.Background()
	dir, pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	subscriberID, planID, employeeID := provisionActiveTenant(t, ctx, dir)

	t.Run("active chain resolves by username", func(t *testing.T) {
		route, err := dir.LookupRoute(ctx, directory.IdentityUsername, "jdoe")
		require.NoError(t, err)
		require.Equal(t, "tenant_acme", route.DatabaseName)
		require.Equal(t, "tw_acme", route.User)
		require.Equal(t, "pw", route.Password)
	})

	t.Run("username and email converge", func(t *testing.T) {
		byUsername, err := dir.LookupRoute(ctx, directory.IdentityUsername, "jdoe")
		require.NoError(t, err)

		byEmail, err := dir.LookupRoute(ctx, directory.IdentityEmail, "jdoe@acme.example")
		require.NoError(t, err)

		require.Equal(t, byUsername.DatabaseName, byEmail.DatabaseName)
	})

	t.Run("unknown identity", func(t *testing.T) {
		_, err := dir.LookupRoute(ctx, directory.IdentityUsername, "nobody")
		require.ErrorIs(t, err, directory.ErrNoActiveSubscription)
	})

	t.Run("failed lookup holds no connection", func(t *testing.T) {
		_, err := dir.LookupRoute(ctx, directory.IdentityUsername, "nobody")
		require.ErrorIs(t, err, directory.ErrNoActiveSubscription)

		// The lookup is scoped to a single acquire/release.
		require.EqualValues(t, 0, pool.Stat().AcquiredConns())
	})

	t.Run("inactive employee blocks the route", func(t *testing.T) {
		require.NoError(t, dir.SetEmployeeActive(ctx, employeeID, false))
		defer func() { require.NoError(t, dir.SetEmployeeActive(ctx, employeeID, true)) }()

		_, err := dir.LookupRoute(ctx, directory.IdentityUsername, "jdoe")
		require.ErrorIs(t, err, directory.ErrNoActiveSubscription)
	})

	t.Run("inactive subscriber blocks the route", func(t *testing.T) {
		require.NoError(t, dir.SetSubscriberActive(ctx, subscriberID, false))
		defer func() { require.NoError(t, dir.SetSubscriberActive(ctx, subscriberID, true)) }()

		_, err := dir.LookupRoute(ctx, directory.IdentityUsername, "jdoe")
		require.ErrorIs(t, err, directory.ErrNoActiveSubscription)
	})

	t.Run("inactive plan blocks the route", func(t *testing.T) {
		require.NoError(t, dir.SetPlanActive(ctx, planID, false))
		defer func() { require.NoError(t, dir.SetPlanActive(ctx, planID, true)) }()

		_, err := dir.LookupRoute(ctx, directory.IdentityUsername, "jdoe")
		require.ErrorIs(t, err, directory.ErrNoActiveSubscription)
	})
}

func TestIntegration_DirectoryWrites(t *testing.T) {
	ctx := context.Background()
	dir, _, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("duplicate subscriber name", func(t *testing.T) {
		first := &models.Subscriber{
			SubscriberID: uuid.Must(uuid.NewV7()),
			OrgID:        uuid.Must(uuid.NewV7()),
			Name:         "Globex",
			Active:       true,
		}
		require.NoError(t, dir.CreateSubscriber(ctx, first))

		dup := &models.Subscriber{
			SubscriberID: uuid.Must(uuid.NewV7()),
			OrgID:        uuid.Must(uuid.NewV7()),
			Name:         "Globex",
			Active:       true,
		}
		err := dir.CreateSubscriber(ctx, dup)
		require.ErrorIs(t, err, directory.ErrSubscriberAlreadyExists)
	})

	t.Run("plan requires an existing subscriber", func(t *testing.T) {
		err := dir.CreatePlan(ctx, &models.SubscriptionPlan{
			PlanID:       uuid.Must(uuid.NewV7()),
			SubscriberID: uuid.Must(uuid.NewV7()),
			DatabaseName: "tenant_orphan",
			DBUser:       "tw_orphan",
			DBPassword:   "pw",
			Active:       true,
		})
		require.ErrorIs(t, err, directory.ErrSubscriberNotFound)
	})

	t.Run("provision rolls back on conflict", func(t *testing.T) {
		_, _, _ = provisionActiveTenant(t, ctx, dir)

		before, err := dir.ListSubscribers(ctx)
		require.NoError(t, err)

		conflicting := uuid.Must(uuid.NewV7())
		err = dir.ProvisionTenant(ctx,
			&models.Subscriber{
				SubscriberID: conflicting,
				OrgID:        uuid.Must(uuid.NewV7()),
				Name:         "Clash Inc",
				Active:       true,
			},
			&models.SubscriptionPlan{
				PlanID:       uuid.Must(uuid.NewV7()),
				SubscriberID: conflicting,
				DatabaseName: "tenant_clash",
				DBUser:       "tw_clash",
				DBPassword:   "pw",
				Active:       true,
			},
			&models.DirectoryEmployee{
				EmployeeID: uuid.Must(uuid.NewV7()),
				OrgID:      uuid.Must(uuid.NewV7()),
				Username:   "jdoe", // already taken
				Email:      "jdoe@clash.example",
				Active:     true,
			})
		require.ErrorIs(t, err, directory.ErrEmployeeAlreadyExists)

		after, err := dir.ListSubscribers(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before), "no partial records after rollback")
	})
}
