package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movieshare-backend/internal/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *database.DB) error {
				if err := database.Migrate(db); err != nil {
					return err
				}
				fmt.Printf("database schema is current (%s)\n", db.Driver)
				return nil
			})
		},
	}
}
