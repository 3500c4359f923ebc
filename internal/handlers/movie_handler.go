package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/media"
	"movieshare-backend/internal/middleware"
	"movieshare-backend/internal/models"
	"movieshare-backend/internal/services"
	"movieshare-backend/utils/response"
)

// Posters uploaded on their own are capped well below the video limit.
const thumbnailMaxBytes = 10 * 1024 * 1024 // 10MB

type MovieHandler struct {
	service        *services.MovieService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewMovieHandler(service *services.MovieService, maxUploadBytes int64, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{service: service, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	viewer, ok := viewerFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	params := r.URL.Query()
	q := &dto.MovieQuery{
		Search:   params.Get("search"),
		Language: params.Get("language"),
		Status:   params.Get("status"),
	}

	movies, err := h.service.List(r.Context(), viewer, q)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			response.BadRequest(w, "Unknown review status")
			return
		}
		h.logger.Error("failed to list movies", "error", err)
		response.InternalError(w)
		return
	}

	response.Success(w, movies, "")
}

func (h *MovieHandler) UploadMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	viewer, ok := viewerFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 * 1024 * 1024); err != nil {
		if maxBytesExceeded(err) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
			return
		}
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("movie")
	if err != nil {
		response.BadRequest(w, "No movie file provided")
		return
	}
	defer file.Close()

	in := &services.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Language:    r.FormValue("language"),
		Genres:      r.Form["genre"],
		FileName:    header.Filename,
		File:        file,
	}

	if thumb, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		in.Thumbnail = thumb
		in.ThumbnailName = thumbHeader.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		response.BadRequest(w, "Invalid thumbnail upload")
		return
	}

	movie, err := h.service.Upload(r.Context(), viewer, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadExtension):
			response.BadRequest(w, "File type not allowed")
		case maxBytesExceeded(err):
			response.Error(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
		case errors.Is(err, media.ErrProcessing):
			h.logger.Warn("upload failed processing", "error", err, "uploader", viewer.Handle)
			response.Error(w, http.StatusUnprocessableEntity, "Could not process video file")
		case dto.IsValidationError(err):
			response.BadRequest(w, dto.ValidationMessage(err))
		default:
			h.logger.Error("failed to upload movie", "error", err)
			response.InternalError(w)
		}
		return
	}

	response.Created(w, movie, "Movie uploaded successfully")
}

func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
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

	movie, err := h.service.Get(r.Context(), viewer, movieID)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			response.NotFound(w, "Movie not found")
			return
		}
		h.logger.Error("failed to get movie", "error", err)
		response.InternalError(w)
		return
	}

	response.Success(w, movie, "")
}

func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
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

	var req dto.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	movie, err := h.service.Update(r.Context(), viewer, movieID, &req)
	if err != nil {
		h.writeMovieError(w, err, "failed to update movie")
		return
	}

	response.Success(w, movie, "Movie updated successfully")
}

func (h *MovieHandler) ReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
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

	r.Body = http.MaxBytesReader(w, r.Body, thumbnailMaxBytes)

	if err := r.ParseMultipartForm(8 * 1024 * 1024); err != nil {
		if maxBytesExceeded(err) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Thumbnail exceeds the size limit")
			return
		}
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		response.BadRequest(w, "No thumbnail file provided")
		return
	}
	defer file.Close()

	movie, err := h.service.ReplaceThumbnail(r.Context(), viewer, movieID, header.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrBadExtension) {
			response.BadRequest(w, "File type not allowed")
			return
		}
		h.writeMovieError(w, err, "failed to replace thumbnail")
		return
	}

	response.Success(w, movie, "Thumbnail updated successfully")
}

func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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

	if err := h.service.Delete(r.Context(), viewer, movieID); err != nil {
		h.writeMovieError(w, err, "failed to delete movie")
		return
	}

	response.Success(w, nil, "Movie deleted successfully")
}

// SetMovieStatus resolves a pending movie's review. Moderator access
// is enforced by the route middleware.
func (h *MovieHandler) SetMovieStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := dto.Validate(&req); err != nil {
		response.BadRequest(w, dto.ValidationMessage(err))
		return
	}

	if err := h.service.SetStatus(r.Context(), viewer, movieID, models.MovieStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, services.ErrMovieNotFound):
			response.NotFound(w, "Movie not found")
		case errors.Is(err, services.ErrAlreadyReviewed):
			response.Conflict(w, "Movie has already been reviewed")
		case errors.Is(err, services.ErrInvalidStatus):
			response.BadRequest(w, "Unknown review status")
		default:
			h.logger.Error("failed to set movie status", "error", err)
			response.InternalError(w)
		}
		return
	}

	response.Success(w, nil, fmt.Sprintf("Movie %s", req.Status))
}

func (h *MovieHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	languages, err := h.service.Languages(r.Context())
	if err != nil {
		h.logger.Error("failed to list languages", "error", err)
		response.InternalError(w)
		return
	}

	response.Success(w, languages, "")
}

// writeMovieError maps the shared movie service errors; callers handle
// their endpoint-specific ones first.
func (h *MovieHandler) writeMovieError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, services.ErrMovieNotFound):
		response.NotFound(w, "Movie not found")
	case errors.Is(err, services.ErrNotOwner):
		response.Error(w, http.StatusForbidden, "Not the owner of this movie")
	case dto.IsValidationError(err):
		response.BadRequest(w, dto.ValidationMessage(err))
	default:
		h.logger.Error(logMsg, "error", err)
		response.InternalError(w)
	}
}

func viewerFromRequest(r *http.Request) (services.Viewer, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return services.Viewer{}, false
	}
	return services.Viewer{ID: claims.UserID, Handle: claims.Handle, Role: claims.Role}, true
}

func movieIDFromPath(r *http.Request) (uuid.UUID, error) {
	id := r.PathValue("id")
	if id == "" {
		return uuid.Nil, fmt.Errorf("'id' not present in path")
	}
	return uuid.Parse(id)
}

func maxBytesExceeded(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
