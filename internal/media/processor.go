// Package media inspects uploaded videos and renders their thumbnails
// through the ffmpeg tool suite.
package media

import (
	"context"
	"errors"
)

// ErrProcessing wraps every failure to inspect or transform a video,
// so callers can map the whole class to one upload error.
var ErrProcessing = errors.New("media processing failed")

// ProbeResult is the subset of container metadata the app keeps.
type ProbeResult struct {
	DurationSecs float64
	Width        int
	Height       int
	FormatName   string
	VideoStreams int
	AudioStreams int
}

// Processor inspects uploaded files and produces thumbnails. The
// ffmpeg-backed implementation is the only real one; tests substitute
// their own.
type Processor interface {
	// Probe inspects the file at path and returns its metadata. Files
	// without a video stream fail with ErrProcessing.
	Probe(ctx context.Context, path string) (ProbeResult, error)
	// Thumbnail renders a still from the first frame of videoPath into
	// outPath.
	Thumbnail(ctx context.Context, videoPath, outPath string) error
}
