package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/auth"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/render"
	"github.com/facilita/notifier/internal/service"
	"github.com/facilita/notifier/internal/storage"
)

// NewUserCmd returns the "user" command group that manages users in the
// server database directly.
func NewUserCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage portal users in the server database",
	}
	cmd.AddCommand(newUserAddCmd(cfg), newUserListCmd(cfg), newUserTokenCmd(cfg))
	return cmd
}

func withUserService(cfg *config.AppConfig, fn func(service.UserService) error) error {
	db, _, err := storage.NewSQLiteDB(cfg.ServerDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	return fn(service.NewUserService(storage.NewSQLiteUserStore(db)))
}

func newUserAddCmd(cfg *config.AppConfig) *cobra.Command {
	var u model.User
	var role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print an access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u.Role = model.Role(role)
			u.Active = true
			return withUserService(cfg, func(users service.UserService) error {
				created, err := users.Create(cmd.Context(), u)
				if err != nil {
					return fmt.Errorf("creating user: %w", err)
				}
				token, err := auth.NewTokens(cfg.JWTAccessSecret, cfg.JWTAccessTTL).Issue(created.ID)
				if err != nil {
					return fmt.Errorf("issuing token: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created user %s <%s> (%s)\n", created.Name, created.Email, created.ID)
				fmt.Fprintf(out, "Access token (valid %s):\n%s\n", cfg.JWTAccessTTL, token)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&u.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", string(model.RoleCollaborator), "Role: SUPERADMIN, ADMIN or COLLABORATOR")
	cmd.Flags().StringVar(&u.CompanyID, "company", "", "Company id")
	cmd.Flags().StringVar(&u.UnitID, "unit", "", "Unit id")
	cmd.Flags().StringVar(&u.SectorID, "sector", "", "Sector id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUserService(cfg, func(users service.UserService) error {
				list, err := users.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing users: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.Users(list))
				return nil
			})
		},
	}
}

func newUserTokenCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a new access token for an active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cfg, func(users service.UserService) error {
				u, err := users.GetActive(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				token, err := auth.NewTokens(cfg.JWTAccessSecret, cfg.JWTAccessTTL).Issue(u.ID)
				if err != nil {
					return fmt.Errorf("issuing token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}
