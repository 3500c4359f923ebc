package models

import "github.com/google/uuid"

type TagKind string

const (
	TagKindLanguage TagKind = "language"
	TagKindGenre    TagKind = "genre"
)

// MovieTag is one label attached to a movie, such as a language or a
// genre. A movie holds at most one row per (kind, label) pair.
type MovieTag struct {
	ID uuid.UUID `db:"id" json:"id"`

	MovieID uuid.UUID `db:"movie_id" json:"movie_id"`
	Kind    TagKind   `db:"kind" json:"kind"`
	Label   string    `db:"label" json:"label"`
}
