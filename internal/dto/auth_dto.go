package dto

import (
	"time"

	"github.com/google/uuid"

	"movieshare-backend/internal/models"
)

type RegisterUserRequest struct {
	Handle   string `json:"handle" conform:"trim" validate:"required,min=3,max=32,handle"`
	Email    string `json:"email" conform:"trim,email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type LoginUserRequest struct {
	Handle   string `json:"handle" conform:"trim" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Handle      string     `json:"handle"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func NewUserResponse(user *models.User) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Handle:      user.Handle,
		Role:        string(user.Role),
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	return resp
}
