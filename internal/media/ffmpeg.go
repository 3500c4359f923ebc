package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Thumbnails are rendered at a fixed gallery size.
const (
	thumbnailWidth  = 320
	thumbnailHeight = 240
)

// FFmpeg runs the ffprobe and ffmpeg binaries. Each invocation gets
// its own deadline on top of the caller's context.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

func NewFFmpeg(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, timeout: timeout}
}

// Available verifies both binaries can be executed. Called once at
// startup so a missing install surfaces before the first upload.
func (p *FFmpeg) Available(ctx context.Context) error {
	for _, binary := range []string{p.ffmpegPath, p.ffprobePath} {
		runCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := exec.CommandContext(runCtx, binary, "-version").Run()
		cancel()
		if err != nil {
			return fmt.Errorf("run %s: %w", binary, err)
		}
	}
	return nil
}

func (p *FFmpeg) Probe(ctx context.Context, path string) (ProbeResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.ffprobePath,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: ffprobe: %v: %s",
			ErrProcessing, err, strings.TrimSpace(string(output)))
	}

	result, err := parseProbeOutput(output)
	if err != nil {
		return ProbeResult{}, err
	}
	if result.VideoStreams == 0 {
		return ProbeResult{}, fmt.Errorf("%w: no video stream found", ErrProcessing)
	}
	return result, nil
}

func (p *FFmpeg) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.ffmpegPath, thumbnailArgs(videoPath, outPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outPath)
		return fmt.Errorf("%w: ffmpeg thumbnail: %v: %s",
			ErrProcessing, err, strings.TrimSpace(string(output)))
	}

	// ffmpeg can exit zero without writing anything, e.g. for a
	// container with metadata but no decodable frames.
	if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
		os.Remove(outPath)
		return fmt.Errorf("%w: ffmpeg produced no thumbnail", ErrProcessing)
	}
	return nil
}

// thumbnailArgs extracts the first frame, scaled to the gallery size.
func thumbnailArgs(videoPath, outPath string) []string {
	return []string{
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", thumbnailWidth, thumbnailHeight),
		"-q:v", "4",
		outPath,
	}
}

type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

func parseProbeOutput(output []byte) (ProbeResult, error) {
	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrProcessing, err)
	}

	result := ProbeResult{
		DurationSecs: parseFloat(payload.Format.Duration),
		FormatName:   payload.Format.FormatName,
	}
	for _, stream := range payload.Streams {
		switch {
		case strings.EqualFold(stream.CodecType, "video"):
			result.VideoStreams++
			if result.Width == 0 {
				result.Width = stream.Width
				result.Height = stream.Height
			}
		case strings.EqualFold(stream.CodecType, "audio"):
			result.AudioStreams++
		}
	}
	return result, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
