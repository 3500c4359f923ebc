package dto

import (
	"time"

	"github.com/google/uuid"

	"movieshare-backend/internal/models"
)

// UploadMovieRequest carries the multipart form fields of an upload.
type UploadMovieRequest struct {
	Title       string   `conform:"trim" validate:"required,min=1,max=200"`
	Description string   `conform:"trim" validate:"max=2000"`
	Language    string   `conform:"trim" validate:"required,min=2,max=64"`
	Genres      []string `validate:"max=8,dive,min=2,max=64"`
}

// UpdateMovieRequest carries a partial metadata edit. Nil fields are
// left untouched; a non-nil empty genre list clears the genres.
type UpdateMovieRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Language    *string   `json:"language" validate:"omitempty,min=2,max=64"`
	Genres      *[]string `json:"genres" validate:"omitempty,max=8,dive,min=2,max=64"`
}

// Empty reports whether the edit contains no changes at all.
func (r *UpdateMovieRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Language == nil && r.Genres == nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" conform:"trim,lower" validate:"required,oneof=approved rejected"`
}

// MovieQuery narrows the gallery listing.
type MovieQuery struct {
	// Search matches movie titles case-insensitively.
	Search string
	// Language keeps only movies tagged with this language.
	Language string
	// Status keeps only movies in this review status.
	Status string
}

type MovieResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Filename      string    `json:"filename"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	DurationSecs  float64   `json:"duration_secs"`
	Status        string    `json:"status"`
	Owner         string    `json:"owner,omitempty"`
	Languages     []string  `json:"languages"`
	Genres        []string  `json:"genres"`
	ViewCount     int64     `json:"view_count"`
	DownloadCount int64     `json:"download_count"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// NewMovieResponse assembles the API shape of a movie. The owner
// handle is empty once the uploader's account is gone.
func NewMovieResponse(movie *models.Movie, owner string, languages, genres []string) MovieResponse {
	resp := MovieResponse{
		ID:            movie.ID,
		Title:         movie.Title,
		Description:   movie.Description,
		Filename:      movie.Filename,
		SizeBytes:     movie.SizeBytes,
		DurationSecs:  movie.DurationSecs,
		Status:        string(movie.Status),
		Owner:         owner,
		Languages:     languages,
		Genres:        genres,
		ViewCount:     movie.ViewCount,
		DownloadCount: movie.DownloadCount,
		UploadedAt:    movie.UploadedAt,
	}
	if movie.Thumbnail != nil {
		resp.Thumbnail = *movie.Thumbnail
	}
	if resp.Languages == nil {
		resp.Languages = []string{}
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	return resp
}
