package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/models"
	"movieshare-backend/internal/services"
)

// cliReviewer is the identity stamped on CLI moderation actions.
var cliReviewer = services.Viewer{Handle: "movieadmin", Role: models.UserRoleAdmin}

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	moviesCmd := &cobra.Command{
		Use:   "movies",
		Short: "Inspect and review uploaded movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	moviesCmd.AddCommand(newMoviesListCommand(ctx))
	moviesCmd.AddCommand(newMoviesReviewCommand(ctx, "approve", models.MovieStatusApproved))
	moviesCmd.AddCommand(newMoviesReviewCommand(ctx, "reject", models.MovieStatusRejected))

	return moviesCmd
}

func newMoviesListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movies, optionally filtered by review status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(db *database.DB) error {
				// The CLI only does metadata work, so the file-store
				// deps stay nil.
				service := services.NewMovieService(db, nil, nil, nil, ctx.ensureLogger())

				movies, err := service.List(cmd.Context(), cliReviewer, &dto.MovieQuery{Status: statusFlag})
				if err != nil {
					return err
				}
				if len(movies) == 0 {
					fmt.Println("no movies found")
					return nil
				}

				rows := make([][]string, 0, len(movies))
				for _, m := range movies {
					rows = append(rows, []string{
						m.ID.String(),
						m.Title,
						m.Owner,
						m.Status,
						humanize.IBytes(uint64(m.SizeBytes)),
						strconv.FormatInt(m.ViewCount, 10),
						humanize.Time(m.UploadedAt),
					})
				}
				fmt.Println(renderTable(
					[]string{"ID", "Title", "Owner", "Status", "Size", "Views", "Uploaded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by review status (pending, approved, rejected)")

	return cmd
}

func newMoviesReviewCommand(ctx *commandContext, verb string, status models.MovieStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <movie-id>",
		Short: fmt.Sprintf("Mark a pending movie as %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid movie id %q: %w", args[0], err)
			}

			return ctx.withDB(func(db *database.DB) error {
				service := services.NewMovieService(db, nil, nil, nil, ctx.ensureLogger())
				if err := service.SetStatus(cmd.Context(), cliReviewer, movieID, status); err != nil {
					return err
				}
				fmt.Printf("movie %s %s\n", movieID, status)
				return nil
			})
		},
	}
}
