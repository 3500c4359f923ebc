package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a single user's verdict on a movie. The database enforces
// one rating per (movie, user) pair.
type Rating struct {
	ID uuid.UUID `db:"id" json:"id"`

	MovieID uuid.UUID `db:"movie_id" json:"movie_id"`
	UserID  uuid.UUID `db:"user_id" json:"user_id"`

	Score   int    `db:"score" json:"score"`
	Comment string `db:"comment" json:"comment"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
