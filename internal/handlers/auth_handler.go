package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/middleware"
	"movieshare-backend/internal/services"
	"movieshare-backend/utils/response"
)

type AuthHandler struct {
	service *services.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req dto.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHandleTaken):
			response.Conflict(w, "Handle is already taken")
		case dto.IsValidationError(err):
			response.BadRequest(w, dto.ValidationMessage(err))
		default:
			h.logger.Error("failed to register user", "error", err)
			response.InternalError(w)
		}
		return
	}

	response.Created(w, dto.NewUserResponse(user), "User registered successfully")
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req dto.LoginUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			response.Error(w, http.StatusUnauthorized, "Invalid handle or password")
		case errors.Is(err, services.ErrAccountDisabled):
			response.Error(w, http.StatusUnauthorized, "Account is deactivated")
		case dto.IsValidationError(err):
			response.BadRequest(w, dto.ValidationMessage(err))
		default:
			h.logger.Error("failed to login user", "error", err)
			response.InternalError(w)
		}
		return
	}

	setSessionCookie(w, token)

	response.Success(w, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, "User logged in successfully")
}

func (h *AuthHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	clearSessionCookie(w)
	response.Success(w, nil, "User logged out successfully")
}

func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		h.logger.Error("failed to get user", "error", err)
		response.InternalError(w)
		return
	}

	response.Success(w, dto.NewUserResponse(user), "")
}

// DeactivateMe disables the calling account and ends its session.
func (h *AuthHandler) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.Deactivate(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		h.logger.Error("failed to deactivate user", "error", err)
		response.InternalError(w)
		return
	}

	clearSessionCookie(w)
	response.Success(w, nil, "Account deactivated")
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
