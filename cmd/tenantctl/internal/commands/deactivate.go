package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	directorypg "github.com/talentwire/talentwire/internal/directory/postgres"
	"github.com/talentwire/talentwire/internal/logger"
)

type DeactivateCmd struct {
	SubscriberID string `help:"subscriber to deactivate" required:""`

	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
}

func (c *DeactivateCmd) Run(globals *Globals) error {
	return setSubscriberActive(globals, c.Metadata, c.SubscriberID, false)
}

type ActivateCmd struct {
	SubscriberID string `help:"subscriber to reactivate" required:""`

	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
}

func (c *ActivateCmd) Run(globals *Globals) error {
	return setSubscriberActive(globals, c.Metadata, c.SubscriberID, true)
}

func setSubscriberActive(globals *Globals, meta MetadataFlags, subscriberID string, active bool) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	id, err := uuid.Parse(subscriberID)
	if err != nil {
		return fmt.Errorf("invalid subscriber id: %w", err)
	}

	metaPool, err := directorypg.NewPool(ctx, &directorypg.PoolConfig{
		ConnString: meta.ConnString,
		MaxConns:   meta.MaxConns,
		MinConns:   meta.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata pool: %w", err)
	}
	defer metaPool.Close()

	dir, err := directorypg.New(ctx, metaPool, directorypg.Config{AutoMigrate: meta.AutoMigrate})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata directory: %w", err)
	}

	if err := dir.SetSubscriberActive(ctx, id, active); err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	log.Info().Str("subscriber_id", subscriberID).Bool("active", active).Msg("Subscriber updated")
	return nil
}
