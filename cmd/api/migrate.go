package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/streamlinecare/internal/adapters/database"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/streamlinecare/pkg/config"
)

var errMemoryDriver = errors.New("this command requires STORAGE_DRIVER=postgres")

func newMigrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), c.cfg)
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return errMemoryDriver
	}

	client, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	applied, err := database.NewMigrator(client, log.Logger).Up(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("applied", applied).Msg("migrations complete")
	return nil
}
