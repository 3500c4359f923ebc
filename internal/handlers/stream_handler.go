package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"movieshare-backend/internal/services"
	"movieshare-backend/utils/response"
)

// StreamHandler serves the stored bytes: range-capable playback,
// whole-file downloads and thumbnail images.
type StreamHandler struct {
	service *services.MovieService
	logger  *slog.Logger
}

func NewStreamHandler(service *services.MovieService, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{service: service, logger: logger}
}

// StreamMovie plays a stored video. Range requests get 206 partial
// responses; a request for the start of the file counts as a view.
func (h *StreamHandler) StreamMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	viewer, ok := viewerFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	filename := r.PathValue("filename")
	if filename == "" {
		response.BadRequest(w, "'filename' not present in path")
		return
	}

	file, movie, err := h.service.ResolveStream(r.Context(), viewer, filename)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			response.NotFound(w, "Movie not found")
			return
		}
		h.logger.Error("failed to resolve stream", "error", err)
		response.InternalError(w)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.logger.Error("failed to stat movie file", "error", err)
		response.InternalError(w)
		return
	}

	if startOfPlayback(r) {
		if err := h.service.RecordView(r.Context(), movie.ID); err != nil {
			h.logger.Warn("failed to record view", "movie_id", movie.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", videoContentType(movie.Filename))
	http.ServeContent(w, r, movie.Filename, info.ModTime(), file)
}

// DownloadMovie sends the whole file as an attachment.
func (h *StreamHandler) DownloadMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	viewer, ok := viewerFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	movieID, err := movieIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid movie id")
		return
	}

	file, movie, err := h.service.OpenMovieFile(r.Context(), viewer, movieID)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			response.NotFound(w, "Movie not found")
			return
		}
		h.logger.Error("failed to open movie file", "error", err)
		response.InternalError(w)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.logger.Error("failed to stat movie file", "error", err)
		response.InternalError(w)
		return
	}

	if err := h.service.RecordDownload(r.Context(), movie.ID); err != nil {
		h.logger.Warn("failed to record download", "movie_id", movie.ID, "error", err)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", movie.Filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, movie.Filename, info.ModTime(), file)
}

// GetThumbnail serves a poster image.
func (h *StreamHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	viewer, ok := viewerFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	filename := r.PathValue("filename")
	if filename == "" {
		response.BadRequest(w, "'filename' not present in path")
		return
	}

	file, err := h.service.OpenThumbnail(r.Context(), viewer, filename)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			response.NotFound(w, "Thumbnail not found")
			return
		}
		h.logger.Error("failed to open thumbnail", "error", err)
		response.InternalError(w)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.logger.Error("failed to stat thumbnail", "error", err)
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", imageContentType(filename))
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

// startOfPlayback reports whether the request reads the file from the
// beginning, which is what the view counter measures.
func startOfPlayback(r *http.Request) bool {
	rangeHeader := r.Header.Get("Range")
	return rangeHeader == "" || strings.HasPrefix(rangeHeader, "bytes=0-")
}

func videoContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".flv":
		return "video/x-flv"
	case ".wmv":
		return "video/x-ms-wmv"
	case ".mpg", ".mpeg":
		return "video/mpeg"
	default:
		return "application/octet-stream"
	}
}

func imageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
