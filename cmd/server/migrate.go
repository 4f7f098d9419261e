package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the MySQL tables and the MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.memory {
				opts.log.Info("in-memory stores need no migration")
				return nil
			}
			ctx := cmd.Context()
			st, err := openStores(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.mysql.Migrate(ctx); err != nil {
				return err
			}
			opts.log.Info("mysql schema applied")

			if st.mongo != nil {
				if err := st.mongo.EnsureIndexes(ctx); err != nil {
					return err
				}
				opts.log.Info("mongo indexes ensured")
			}
			return nil
		},
	}
}
