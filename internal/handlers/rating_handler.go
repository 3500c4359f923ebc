package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/services"
	"movieshare-backend/utils/response"
)

type RatingHandler struct {
	service *services.RatingService
	logger  *slog.Logger
}

func NewRatingHandler(service *services.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{service: service, logger: logger}
}

func (h *RatingHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
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

	var req dto.CreateRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rating, err := h.service.Rate(r.Context(), viewer, movieID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMovieNotFound):
			response.NotFound(w, "Movie not found")
		case errors.Is(err, services.ErrAlreadyRated):
			response.Conflict(w, "You have already rated this movie")
		case dto.IsValidationError(err):
			response.BadRequest(w, dto.ValidationMessage(err))
		default:
			h.logger.Error("failed to rate movie", "error", err)
			response.InternalError(w)
		}
		return
	}

	response.Created(w, rating, "Rating recorded")
}

func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	movieID, err := movieIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid movie id")
		return
	}

	ratings, err := h.service.ListForMovie(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			response.NotFound(w, "Movie not found")
			return
		}
		h.logger.Error("failed to list ratings", "error", err)
		response.InternalError(w)
		return
	}

	response.Success(w, ratings, "")
}
