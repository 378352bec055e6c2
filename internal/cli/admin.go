package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bakery-bookings/internal/repository"
	"github.com/iliyamo/bakery-bookings/internal/utils"
)

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account, or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.CheckPasswordPolicy(password); err != nil {
				return err
			}
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			id, err := repository.NewUserRepo(a.db).UpsertAdmin(ctx, username, email, password, a.cfg.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready (id=%d)\n", email, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
