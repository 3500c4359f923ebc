package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrHandleTaken        = errors.New("handle is already taken")
	ErrAccountDisabled    = errors.New("account is deactivated")
)

// Sessions outlive the login by this much.
const tokenTTL = 24 * time.Hour

type AuthService struct {
	db        *database.DB
	jwtSecret string
	logger    *slog.Logger
}

func NewAuthService(db *database.DB, jwtSecret string, logger *slog.Logger) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret, logger: logger}
}

// Register creates a standard account from a signup request.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterUserRequest) (*models.User, error) {
	return s.CreateUser(ctx, req, models.UserRoleStandard)
}

// CreateUser creates an account with an explicit role. The admin CLI
// uses it to seed moderator and admin accounts.
func (s *AuthService) CreateUser(ctx context.Context, req *dto.RegisterUserRequest, role models.UserRole) (*models.User, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := dto.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Handle:       req.Handle,
		PasswordHash: string(bytes),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	query := s.db.Rebind(`
		insert into users (id, handle, email, password_hash, role, is_active, created_at)
		values (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		user.ID, user.Handle, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrHandleTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", "handle", user.Handle, "role", user.Role)
	return user, nil
}

// Login checks the credentials and returns a signed session token
// along with the account. Disabled accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginUserRequest) (string, *models.User, error) {
	if err := dto.Validate(req); err != nil {
		return "", nil, err
	}

	var user models.User
	query := s.db.Rebind("select * from users where handle = ?")
	if err := s.db.GetContext(ctx, &user, query, req.Handle); err != nil {
		if database.IsNoRows(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, ErrAccountDisabled
	}

	now := time.Now().UTC()
	update := s.db.Rebind("update users set last_login_at = ? where id = ?")
	if _, err := s.db.ExecContext(ctx, update, now, user.ID); err != nil {
		return "", nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": user.ID.String(),
		"handle": user.Handle,
		"role":   string(user.Role),
		"exp":    now.Add(tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("user logged in", "handle", user.Handle)
	return tokenString, &user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	query := s.db.Rebind("select * from users where id = ?")
	if err := s.db.GetContext(ctx, &user, query, userID); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Deactivate disables the account without deleting it, so uploaded
// movies keep their owner.
func (s *AuthService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	query := s.db.Rebind("update users set is_active = ? where id = ?")
	result, err := s.db.ExecContext(ctx, query, false, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("user deactivated", "user_id", userID)
	return nil
}

// SetRole changes an account's role, keyed by handle for CLI use.
func (s *AuthService) SetRole(ctx context.Context, handle string, role models.UserRole) error {
	query := s.db.Rebind("update users set role = ? where handle = ?")
	result, err := s.db.ExecContext(ctx, query, role, handle)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("user role changed", "handle", handle, "role", role)
	return nil
}
