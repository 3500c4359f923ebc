package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/models"
)

var ErrAlreadyRated = errors.New("movie already rated by this user")

type RatingService struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRatingService(db *database.DB, logger *slog.Logger) *RatingService {
	return &RatingService{db: db, logger: logger}
}

// Rate records the viewer's score for a movie. One rating per user per
// movie; repeats are rejected with ErrAlreadyRated.
func (s *RatingService) Rate(ctx context.Context, rater Viewer, movieID uuid.UUID, req *dto.CreateRatingRequest) (*dto.RatingResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := s.movieExists(ctx, movieID); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		ID:        uuid.New(),
		MovieID:   movieID,
		UserID:    rater.ID,
		Score:     req.Score,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}

	query := s.db.Rebind(`
		insert into ratings (id, movie_id, user_id, score, comment, created_at)
		values (?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		rating.ID, rating.MovieID, rating.UserID, rating.Score, rating.Comment, rating.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyRated
		}
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}

	s.logger.Info("movie rated", "movie_id", movieID, "score", req.Score, "rater", rater.Handle)
	resp := dto.NewRatingResponse(rating, rater.Handle)
	return &resp, nil
}

// ListForMovie returns a movie's ratings, newest first.
func (s *RatingService) ListForMovie(ctx context.Context, movieID uuid.UUID) ([]dto.RatingResponse, error) {
	if err := s.movieExists(ctx, movieID); err != nil {
		return nil, err
	}

	type ratingRow struct {
		models.Rating
		RaterHandle *string `db:"rater_handle"`
	}

	var rows []ratingRow
	query := s.db.Rebind(`
		select r.*, u.handle as rater_handle
		from ratings r
		left join users u on u.id = r.user_id
		where r.movie_id = ?
		order by r.created_at desc
	`)
	if err := s.db.SelectContext(ctx, &rows, query, movieID); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	out := make([]dto.RatingResponse, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		rater := ""
		if row.RaterHandle != nil {
			rater = *row.RaterHandle
		}
		out = append(out, dto.NewRatingResponse(&row.Rating, rater))
	}
	return out, nil
}

func (s *RatingService) movieExists(ctx context.Context, movieID uuid.UUID) error {
	var exists bool
	query := s.db.Rebind("select exists (select 1 from movies where id = ?)")
	if err := s.db.GetContext(ctx, &exists, query, movieID); err != nil {
		return fmt.Errorf("failed to check movie: %w", err)
	}
	if !exists {
		return ErrMovieNotFound
	}
	return nil
}
