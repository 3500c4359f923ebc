package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	base := t.TempDir()
	store, err := New(filepath.Join(base, "videos"), filepath.Join(base, "thumbnails"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestNew_CreatesDirectories(t *testing.T) {
	base := t.TempDir()
	videoDir := filepath.Join(base, "media", "videos")
	thumbnailDir := filepath.Join(base, "media", "thumbnails")

	_, err := New(videoDir, thumbnailDir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, dir := range []string{videoDir, thumbnailDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory %s should exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s should be a directory", dir)
		}
	}
}

func TestSpoolVideo(t *testing.T) {
	store := setupTestStore(t)
	data := []byte("fake video bytes")

	tmpPath, size, err := store.SpoolVideo(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SpoolVideo failed: %v", err)
	}

	if size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), size)
	}
	if filepath.Dir(tmpPath) != store.videoDir {
		t.Errorf("spool file should live in video dir, got %s", tmpPath)
	}
	if !strings.HasPrefix(filepath.Base(tmpPath), ".upload-") {
		t.Errorf("spool file should use temp prefix, got %s", filepath.Base(tmpPath))
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		t.Fatalf("failed to read spool file: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("spool file content mismatch")
	}
}

func TestPromoteVideo(t *testing.T) {
	store := setupTestStore(t)
	data := []byte("promoted content")

	tmpPath, _, err := store.SpoolVideo(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SpoolVideo failed: %v", err)
	}

	if err := store.PromoteVideo(tmpPath, "movie.mp4"); err != nil {
		t.Fatalf("PromoteVideo failed: %v", err)
	}

	// Temp file is gone, final file is readable.
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("spool file should be gone after promote")
	}

	f, err := store.OpenVideo("movie.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("failed to read promoted file: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("promoted file content mismatch")
	}
}

func TestPromoteVideo_UnsafeName(t *testing.T) {
	store := setupTestStore(t)

	tmpPath, _, err := store.SpoolVideo(strings.NewReader("x"))
	if err != nil {
		t.Fatalf("SpoolVideo failed: %v", err)
	}
	defer store.Discard(tmpPath)

	err = store.PromoteVideo(tmpPath, "../escape.mp4")
	if !errors.Is(err, ErrUnsafeName) {
		t.Errorf("expected ErrUnsafeName, got %v", err)
	}

	// The spool file must survive a failed promote.
	if _, err := os.Stat(tmpPath); err != nil {
		t.Errorf("spool file should still exist: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	store := setupTestStore(t)

	tmpPath, _, err := store.SpoolVideo(strings.NewReader("discard me"))
	if err != nil {
		t.Fatalf("SpoolVideo failed: %v", err)
	}

	if err := store.Discard(tmpPath); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("spool file should be gone after discard")
	}

	// Second discard is a no-op.
	if err := store.Discard(tmpPath); err != nil {
		t.Errorf("second Discard should not error, got: %v", err)
	}
}

func TestDiscard_EmptyPath(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Discard(""); err != nil {
		t.Errorf("Discard with empty path should not error, got: %v", err)
	}
}

func TestSaveThumbnail(t *testing.T) {
	store := setupTestStore(t)
	data := []byte("jpeg bytes")

	size, err := store.SaveThumbnail("movie.jpg", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SaveThumbnail failed: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), size)
	}

	f, err := store.OpenThumbnail("movie.jpg")
	if err != nil {
		t.Fatalf("OpenThumbnail failed: %v", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("failed to read thumbnail: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("thumbnail content mismatch")
	}

	// No spool leftovers in the thumbnail dir.
	entries, err := os.ReadDir(store.thumbnailDir)
	if err != nil {
		t.Fatalf("failed to list thumbnail dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 file in thumbnail dir, got %d", len(entries))
	}
}

func TestSaveThumbnail_UnsafeName(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SaveThumbnail("a b.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrUnsafeName) {
		t.Errorf("expected ErrUnsafeName, got %v", err)
	}
}

func TestOpenVideo_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.OpenVideo("missing.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveVideo(t *testing.T) {
	store := setupTestStore(t)

	tmpPath, _, err := store.SpoolVideo(strings.NewReader("remove me"))
	if err != nil {
		t.Fatalf("SpoolVideo failed: %v", err)
	}
	if err := store.PromoteVideo(tmpPath, "doomed.mp4"); err != nil {
		t.Fatalf("PromoteVideo failed: %v", err)
	}

	if err := store.RemoveVideo("doomed.mp4"); err != nil {
		t.Fatalf("RemoveVideo failed: %v", err)
	}
	if _, err := store.OpenVideo("doomed.mp4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}

	// Removing again is a no-op.
	if err := store.RemoveVideo("doomed.mp4"); err != nil {
		t.Errorf("second RemoveVideo should not error, got: %v", err)
	}
}

func TestVideoPath_RejectsTraversal(t *testing.T) {
	store := setupTestStore(t)

	for _, name := range []string{"", "../../etc/passwd", "a/b.mp4", "a b.mp4", ".hidden"} {
		if _, err := store.VideoPath(name); !errors.Is(err, ErrUnsafeName) {
			t.Errorf("VideoPath(%q) should reject unsafe name, got %v", name, err)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"movie.mp4", "movie.mp4"},
		{"My Movie (2024).mp4", "My_Movie__2024_.mp4"},
		{"a/b/c.mp4", "c.mp4"},
		{"..", ""},
		{".", ""},
		{".hidden", "hidden"},
		{"...dots", "dots"},
		{"naïve.mkv", "na_ve.mkv"},
		{"  spaced.mp4  ", "spaced.mp4"},
		{"under_score-dash.mp4", "under_score-dash.mp4"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.input); got != tt.expected {
			t.Errorf("SafeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSafeName_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 200) + ".mp4"

	got := SafeName(long)
	if len(got) != maxNameLen {
		t.Errorf("expected truncated length %d, got %d", maxNameLen, len(got))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("truncation should keep the extension, got %q", got)
	}
}

func TestNewName(t *testing.T) {
	name := NewName("My Movie.mp4")

	if !strings.HasSuffix(name, "_My_Movie.mp4") {
		t.Errorf("expected sanitized suffix, got %q", name)
	}

	// The prefix is a parseable UUID.
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		t.Fatalf("expected underscore separator in %q", name)
	}
	if _, err := uuid.Parse(prefix); err != nil {
		t.Errorf("prefix %q should be a UUID: %v", prefix, err)
	}

	// Two uploads of the same file never collide.
	if NewName("My Movie.mp4") == name {
		t.Error("NewName should be unique per call")
	}
}

func TestNewName_EmptyOriginal(t *testing.T) {
	name := NewName("")

	if !strings.HasSuffix(name, "_file") {
		t.Errorf("expected placeholder suffix for empty original, got %q", name)
	}
}
