package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	directorypg "github.com/talentwire/talentwire/internal/directory/postgres"
	"github.com/talentwire/talentwire/internal/logger"
)

type ListCmd struct {
	Metadata MetadataFlags `embed:"" prefix:"metadata-"`
}

func (c *ListCmd) Run(globals *Globals) error {
	logger.Setup(globals.Debug)
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

	dir, err := directorypg.New(ctx, metaPool, directorypg.Config{AutoMigrate: c.Metadata.AutoMigrate})
	if err != nil {
		return fmt.Errorf("failed to initialize metadata directory: %w", err)
	}

	subs, err := dir.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSCRIBER ID\tORG ID\tNAME\tACTIVE\tCREATED")
	for _, sub := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			sub.SubscriberID, sub.OrgID, sub.Name, sub.Active,
			sub.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
