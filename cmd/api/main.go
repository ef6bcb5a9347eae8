package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
	"github.com/zatekoja/streamlinecare/pkg/config"
)

// cli carries state shared by every subcommand
type cli struct {
	configDir string
	cfg       *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "api",
		Short:         "StreamlineCare hospital appointment booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(c.configDir)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			c.cfg = cfg
			return observability.InitLogger(cfg.OTEL.ServiceName, cfg.AppEnv, cfg.Log.Level, cfg.Log.File)
		},
	}

	root.PersistentFlags().StringVar(&c.configDir, "config-dir", ".", "directory containing an optional config.yaml")

	root.AddCommand(
		newServeCommand(c),
		newMigrateCommand(c),
		newSeedCommand(c),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
