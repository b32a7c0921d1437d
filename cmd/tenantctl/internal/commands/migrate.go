package commands

import (
	"context"
	"fmt"

	directorypg "github.com/talentwire/talentwire/internal/directory/postgres"
	"github.com/talentwire/talentwire/internal/logger"
)

type MigrateCmd struct {
	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
}

func (c *MigrateCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	metaPool, err := directorypg.NewPool(ctx, &directorypg.PoolConfig{
		ConnString: c.Metadata.ConnString,
		MaxConns:   c.Metadata.MaxConns,
		MinConns:   c.Metadata.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata pool: %w", err)
	}
	defer metaPool.Close()

	if _, err := directorypg.New(ctx, metaPool, directorypg.Config{AutoMigrate: true}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Metadata schema is up to date")
	return nil
}
