package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"movieshare-backend/internal/config"
	"movieshare-backend/internal/media"
	"movieshare-backend/internal/storage"
)

// MustOpenStore creates a media store rooted in a temp directory.
func MustOpenStore(t testing.TB) *storage.Store {
	t.Helper()

	base := t.TempDir()
	store, err := storage.New(filepath.Join(base, "videos"), filepath.Join(base, "thumbnails"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return store
}

// NewConfig returns a config suitable for service tests. It is built
// directly rather than through Load so tests stay independent of the
// process environment.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	return &config.Config{
		Host:           "localhost",
		Port:           "8080",
		JWTSecret:      "test-secret",
		VideoDir:       filepath.Join(base, "videos"),
		ThumbnailDir:   filepath.Join(base, "thumbnails"),
		MaxUploadBytes: 1 << 30,
		AllowedExtensions: map[string]struct{}{
			".mp4":  {},
			".mkv":  {},
			".webm": {},
		},
	}
}

// StubProcessor implements media.Processor without invoking ffmpeg.
type StubProcessor struct {
	Result   media.ProbeResult
	ProbeErr error
	ThumbErr error
}

func (p *StubProcessor) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	if p.ProbeErr != nil {
		return media.ProbeResult{}, p.ProbeErr
	}
	if p.Result == (media.ProbeResult{}) {
		return media.ProbeResult{
			DurationSecs: 120,
			Width:        1280,
			Height:       720,
			FormatName:   "matroska,webm",
			VideoStreams: 1,
			AudioStreams: 1,
		}, nil
	}
	return p.Result, nil
}

func (p *StubProcessor) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	if p.ThumbErr != nil {
		return p.ThumbErr
	}
	return os.WriteFile(outPath, []byte("thumbnail"), 0o644)
}
