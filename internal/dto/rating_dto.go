package dto

import (
	"time"

	"github.com/google/uuid"

	"movieshare-backend/internal/models"
)

type CreateRatingRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" conform:"trim" validate:"max=1000"`
}

type RatingResponse struct {
	ID        uuid.UUID `json:"id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	Rater     string    `json:"rater,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRatingResponse(rating *models.Rating, rater string) RatingResponse {
	return RatingResponse{
		ID:        rating.ID,
		Score:     rating.Score,
		Comment:   rating.Comment,
		Rater:     rater,
		CreatedAt: rating.CreatedAt,
	}
}
