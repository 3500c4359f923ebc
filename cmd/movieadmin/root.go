package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var verboseFlag bool

	ctx := newCommandContext(&verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "movieadmin",
		Short:         "Operate the movie sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log service activity while running commands")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newMoviesCommand(ctx))
	rootCmd.AddCommand(newUsersCommand(ctx))

	return rootCmd
}
