package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/streamlinecare/internal/adapters/cache"
	"github.com/zatekoja/streamlinecare/internal/adapters/database"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/streamlinecare/pkg/config"
	"github.com/zatekoja/streamlinecare/seed"
)

func newSeedCommand(c *cli) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the reference hospitals and doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedCatalog(cmd.Context(), c.cfg, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop cached catalog entries so the new rows are served immediately")
	return cmd
}

func seedCatalog(ctx context.Context, cfg *config.Config, reset bool) error {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return errMemoryDriver
	}

	fixture, err := seed.Load()
	if err != nil {
		return err
	}

	client, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := seed.Apply(ctx, database.NewCatalogWriter(client), fixture); err != nil {
		return err
	}
	log.Info().
		Int("hospitals", len(fixture.Hospitals)).
		Int("doctors", len(fixture.Doctors)).
		Msg("catalog seeded")

	if !reset {
		return nil
	}
	redisClient := connectRedis(ctx, cfg)
	if redisClient == nil {
		log.Warn().Msg("--reset requested but Redis is unavailable; cached entries expire on their own")
		return nil
	}
	defer redisClient.Close()

	if err := database.InvalidateCatalog(ctx, cache.NewRedisAdapter(redisClient)); err != nil {
		return err
	}
	log.Info().Str("pattern", database.CatalogCachePattern).Msg("catalog cache cleared")
	return nil
}
