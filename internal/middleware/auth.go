package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/models"
	"movieshare-backend/utils/response"
)

type contextKey string

const userContextKey contextKey = "user"

type UserClaims struct {
	UserID uuid.UUID       `json:"userID"`
	Handle string          `json:"handle"`
	Role   models.UserRole `json:"role"`
}

type AuthMiddleware struct {
	db        *database.DB
	jwtSecret string
}

func NewAuthMiddleware(db *database.DB, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{db: db, jwtSecret: jwtSecret}
}

// RequireAuth admits requests carrying a valid token in the session
// cookie or an Authorization bearer header, and rejects tokens of
// deactivated accounts. The claims land in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			response.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := m.validateToken(tokenString)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// Deactivation must take effect before the token expires.
		var active bool
		query := m.db.Rebind("SELECT is_active FROM users WHERE id = ?")
		if err := m.db.GetContext(r.Context(), &active, query, claims.UserID); err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !active {
			response.Error(w, http.StatusUnauthorized, "Account is deactivated")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// RequireModerator admits moderators and admins only.
func (m *AuthMiddleware) RequireModerator(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r.Context())
		if claims == nil || !claims.Role.CanModerate() {
			response.Error(w, http.StatusForbidden, "Moderator access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin admits admins only.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r.Context())
		if claims == nil || claims.Role != models.UserRoleAdmin {
			response.Error(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (m *AuthMiddleware) validateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrInvalidKey
	}

	userIDStr, ok := mapClaims["userID"].(string)
	if !ok {
		return nil, jwt.ErrInvalidKey
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	handle, ok := mapClaims["handle"].(string)
	if !ok {
		return nil, jwt.ErrInvalidKey
	}
	role, ok := mapClaims["role"].(string)
	if !ok {
		return nil, jwt.ErrInvalidKey
	}

	return &UserClaims{
		UserID: userID,
		Handle: handle,
		Role:   models.UserRole(role),
	}, nil
}

// WithUser returns a context carrying the claims, as RequireAuth
// leaves them for handlers.
func WithUser(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetUserFromContext(ctx context.Context) *UserClaims {
	claims, ok := ctx.Value(userContextKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}
