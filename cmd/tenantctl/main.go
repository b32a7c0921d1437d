package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/talentwire/talentwire/cmd/tenantctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag

		Create     commands.CreateCmd     `cmd:"" help:"Provision a new tenant"`
		List       commands.ListCmd       `cmd:"" help:"List subscribers"`
		Deactivate commands.DeactivateCmd `cmd:"" help:"Deactivate a subscriber"`
		Activate   commands.ActivateCmd   `cmd:"" help:"Reactivate a subscriber"`
		Migrate    commands.MigrateCmd    `cmd:"" help:"Run metadata schema migrations"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
