package models

import (
	"time"

	"github.com/google/uuid"
)

type MovieStatus string

const (
	MovieStatusPending  MovieStatus = "pending"
	MovieStatusApproved MovieStatus = "approved"
	MovieStatusRejected MovieStatus = "rejected"
)

// ValidStatus reports whether s names a known review status.
func ValidStatus(s string) bool {
	switch MovieStatus(s) {
	case MovieStatusPending, MovieStatusApproved, MovieStatusRejected:
		return true
	}
	return false
}

type Movie struct {
	ID uuid.UUID `db:"id" json:"id"`

	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Filename    string  `db:"filename" json:"filename"`
	Thumbnail   *string `db:"thumbnail" json:"thumbnail,omitempty"`

	SizeBytes    int64       `db:"size_bytes" json:"size_bytes"`
	DurationSecs float64     `db:"duration_secs" json:"duration_secs"`
	Status       MovieStatus `db:"status" json:"status"`

	// UserID is nil once the uploader's account has been deleted.
	UserID *uuid.UUID `db:"user_id" json:"user_id,omitempty"`

	ViewCount     int64 `db:"view_count" json:"view_count"`
	DownloadCount int64 `db:"download_count" json:"download_count"`

	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
