package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/models"
	"movieshare-backend/internal/services"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts and their roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	usersCmd.AddCommand(newUsersCreateCommand(ctx))
	usersCmd.AddCommand(newUsersPromoteCommand(ctx))

	return usersCmd
}

func newUsersCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		handleFlag   string
		emailFlag    string
		passwordFlag string
		roleFlag     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, e.g. to seed the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.ValidRole(roleFlag) {
				return fmt.Errorf("unknown role %q", roleFlag)
			}

			return ctx.withDB(func(db *database.DB) error {
				// No tokens are issued here, so the signing secret is
				// not needed.
				service := services.NewAuthService(db, "", ctx.ensureLogger())

				req := &dto.RegisterUserRequest{
					Handle:   handleFlag,
					Email:    emailFlag,
					Password: passwordFlag,
				}
				user, err := service.CreateUser(cmd.Context(), req, models.UserRole(roleFlag))
				if err != nil {
					return err
				}
				fmt.Printf("created %s account %q (%s)\n", user.Role, user.Handle, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&handleFlag, "handle", "", "Account handle (required)")
	cmd.Flags().StringVar(&emailFlag, "email", "", "Contact email")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "Initial password (required)")
	cmd.Flags().StringVar(&roleFlag, "role", string(models.UserRoleStandard), "Account role (standard, moderator, admin)")
	cmd.MarkFlagRequired("handle")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUsersPromoteCommand(ctx *commandContext) *cobra.Command {
	var roleFlag string

	cmd := &cobra.Command{
		Use:   "promote <handle>",
		Short: "Change an existing account's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.ValidRole(roleFlag) {
				return fmt.Errorf("unknown role %q", roleFlag)
			}

			return ctx.withDB(func(db *database.DB) error {
				service := services.NewAuthService(db, "", ctx.ensureLogger())
				if err := service.SetRole(cmd.Context(), args[0], models.UserRole(roleFlag)); err != nil {
					return err
				}
				fmt.Printf("user %q is now %s\n", args[0], roleFlag)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&roleFlag, "role", string(models.UserRoleModerator), "New role (standard, moderator, admin)")

	return cmd
}
