package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bakery-bookings/internal/database"
	"github.com/iliyamo/bakery-bookings/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for MySQL and the configured reservation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			applied, err := database.MigrateMySQL(ctx, a.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "mysql: %d applied %v\n", len(applied), applied)

			switch a.cfg.Store.Backend {
			case repository.BackendPostgres, repository.BackendMongo:
				// openStore applies the Postgres schema or ensures the Mongo indexes
				if err := a.openStore(ctx, true); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: schema ready\n", a.cfg.Store.Backend)
			}
			return nil
		},
	}
}
