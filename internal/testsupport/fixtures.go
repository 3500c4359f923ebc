package testsupport

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/models"
)

// DefaultPassword is the plaintext behind every fixture user's hash.
const DefaultPassword = "password123"

// CreateUser inserts a user and returns it. The password is
// DefaultPassword, hashed with the minimum bcrypt cost to keep tests
// fast.
func CreateUser(t testing.TB, db *database.DB, handle string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword: %v", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Handle:       handle,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	query := db.Rebind(`
		INSERT INTO users (id, handle, email, password_hash, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := db.Exec(query, user.ID, user.Handle, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt); err != nil {
		t.Fatalf("insert user %q: %v", handle, err)
	}
	return user
}

// CreateMovie inserts a movie row without touching the file store. The
// owner may be nil for orphaned movies.
func CreateMovie(t testing.TB, db *database.DB, owner *models.User, title string, status models.MovieStatus) *models.Movie {
	t.Helper()

	movie := &models.Movie{
		ID:           uuid.New(),
		Title:        title,
		Filename:     uuid.New().String() + "_" + "test.mp4",
		SizeBytes:    1024,
		DurationSecs: 120,
		Status:       status,
		UploadedAt:   time.Now().UTC(),
	}
	if owner != nil {
		movie.UserID = &owner.ID
	}

	query := db.Rebind(`
		INSERT INTO movies (id, title, description, filename, size_bytes, duration_secs, status, user_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := db.Exec(query,
		movie.ID, movie.Title, movie.Description, movie.Filename,
		movie.SizeBytes, movie.DurationSecs, movie.Status, movie.UserID, movie.UploadedAt,
	); err != nil {
		t.Fatalf("insert movie %q: %v", title, err)
	}
	return movie
}

// AddTag attaches a language or genre tag to a movie.
func AddTag(t testing.TB, db *database.DB, movieID uuid.UUID, kind models.TagKind, label string) {
	t.Helper()

	query := db.Rebind(`
		INSERT INTO movie_tags (id, movie_id, kind, label)
		VALUES (?, ?, ?, ?)`)
	if _, err := db.Exec(query, uuid.New(), movieID, kind, label); err != nil {
		t.Fatalf("insert %s tag %q: %v", kind, label, err)
	}
}
