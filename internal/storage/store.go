// Package storage owns the on-disk layout of uploaded videos and their
// thumbnails. Files are spooled to a temp name first and renamed into
// place only once fully written, so readers never see partial files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the named file is not in the store.
	ErrNotFound = errors.New("file not found in store")
	// ErrUnsafeName means the name would escape the store directory.
	ErrUnsafeName = errors.New("unsafe file name")
)

type Store struct {
	videoDir     string
	thumbnailDir string
}

// New creates the media directories if needed and returns a store
// rooted at them.
func New(videoDir, thumbnailDir string) (*Store, error) {
	for _, dir := range []string{videoDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create media directory %s: %w", dir, err)
		}
	}
	return &Store{videoDir: videoDir, thumbnailDir: thumbnailDir}, nil
}

// SpoolVideo streams r into a temporary file in the video directory and
// returns its path and the byte count. The caller either promotes the
// temp file with PromoteVideo or removes it with Discard.
func (s *Store) SpoolVideo(r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.videoDir, ".upload-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}

	buf := make([]byte, 1*1024*1024) // 1MB
	size, err := io.CopyBuffer(f, r, buf)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("spool upload: %w", err)
	}

	return f.Name(), size, nil
}

// PromoteVideo renames a spooled temp file to its final name.
func (s *Store) PromoteVideo(tmpPath, name string) error {
	finalPath, err := s.VideoPath(name)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("promote %s: %w", name, err)
	}
	return nil
}

// Discard removes a spooled temp file. Already gone is fine.
func (s *Store) Discard(tmpPath string) error {
	if tmpPath == "" {
		return nil
	}
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard spool file: %w", err)
	}
	return nil
}

// SaveThumbnail writes r as the named thumbnail, spooling through a
// temp file like videos do.
func (s *Store) SaveThumbnail(name string, r io.Reader) (int64, error) {
	finalPath, err := s.ThumbnailPath(name)
	if err != nil {
		return 0, err
	}

	f, err := os.CreateTemp(s.thumbnailDir, ".thumb-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create thumbnail spool file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return 0, fmt.Errorf("write thumbnail: %w", err)
	}

	if err := os.Rename(f.Name(), finalPath); err != nil {
		os.Remove(f.Name())
		return 0, fmt.Errorf("promote thumbnail %s: %w", name, err)
	}
	return size, nil
}

func (s *Store) OpenVideo(name string) (*os.File, error) {
	return s.open(s.VideoPath, name)
}

func (s *Store) OpenThumbnail(name string) (*os.File, error) {
	return s.open(s.ThumbnailPath, name)
}

// RemoveVideo deletes the named video. Already gone is fine.
func (s *Store) RemoveVideo(name string) error {
	return s.remove(s.VideoPath, name)
}

// RemoveThumbnail deletes the named thumbnail. Already gone is fine.
func (s *Store) RemoveThumbnail(name string) error {
	return s.remove(s.ThumbnailPath, name)
}

// VideoPath returns the absolute path for a stored video name. The
// name must be a plain file name that survives SafeName unchanged.
func (s *Store) VideoPath(name string) (string, error) {
	return join(s.videoDir, name)
}

// ThumbnailPath returns the absolute path for a stored thumbnail name.
func (s *Store) ThumbnailPath(name string) (string, error) {
	return join(s.thumbnailDir, name)
}

func (s *Store) open(pathFn func(string) (string, error), name string) (*os.File, error) {
	path, err := pathFn(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (s *Store) remove(pathFn func(string) (string, error), name string) error {
	path, err := pathFn(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func join(dir, name string) (string, error) {
	if name == "" || SafeName(name) != name {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafeName)
	}
	return filepath.Join(dir, name), nil
}

// NewName builds a unique stored name for an upload: a fresh UUID
// joined to the sanitized original base name. The UUID prevents
// collisions; the suffix keeps the original extension and a
// human-readable hint.
func NewName(original string) string {
	base := SafeName(filepath.Base(original))
	if base == "" {
		base = "file"
	}
	return uuid.New().String() + "_" + base
}

const maxNameLen = 128

// SafeName reduces a file name to characters safe for direct use on
// disk: ASCII letters, digits, dot, dash and underscore. Path
// separators and anything else become underscores, leading dots are
// stripped, and overlong names are truncated.
func SafeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if len(cleaned) > maxNameLen {
		// Keep the extension when truncating.
		ext := filepath.Ext(cleaned)
		if len(ext) >= maxNameLen {
			ext = ""
		}
		cleaned = cleaned[:maxNameLen-len(ext)] + ext
	}
	return cleaned
}
