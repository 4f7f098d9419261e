package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/logger"
)

type rootOptions struct {
	cfg *config.Config
	log *logrus.Logger
	// memory swaps every store for the in-process one
	memory bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront API with session carts synced to accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = logger.New(cfg.LogLevel)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.memory, "memory", false, "use in-memory stores instead of MySQL, Redis and MongoDB")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
