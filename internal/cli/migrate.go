package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/charsheets/internal/storage/sqlstore"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadServerConfig()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			dialect, err := sqlstore.ParseDialect(c.StorageType)
			if err != nil {
				out.PrintMessage(fmt.Sprintf("Storage %s has no schema to migrate", c.StorageType))
				return nil
			}

			store, err := sqlstore.Open(cmd.Context(), dialect, c.DatabaseDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			out.PrintMessage(fmt.Sprintf("Migrations applied (%s)", dialect))
			return nil
		},
	}
}
