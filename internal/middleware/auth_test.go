package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"movieshare-backend/internal/models"
	"movieshare-backend/internal/testsupport"
	"movieshare-backend/utils/response"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, user *models.User, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": user.ID.String(),
		"handle": user.Handle,
		"role":   string(user.Role),
		"exp":    time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// claimsProbe is a terminal handler that records what RequireAuth put
// in the context.
type claimsProbe struct {
	claims *UserClaims
}

func (p *claimsProbe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.claims = GetUserFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}

func TestRequireAuth_Cookie(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	alice := testsupport.CreateUser(t, db, "alice", models.UserRoleStandard)
	mw := NewAuthMiddleware(db, testSecret)

	probe := &claimsProbe{}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, alice, time.Hour)})
	rec := httptest.NewRecorder()

	mw.RequireAuth(probe).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if probe.claims == nil {
		t.Fatal("claims should be in the request context")
	}
	if probe.claims.UserID != alice.ID {
		t.Errorf("expected user id %s, got %s", alice.ID, probe.claims.UserID)
	}
	if probe.claims.Handle != "alice" {
		t.Errorf("expected handle alice, got %q", probe.claims.Handle)
	}
	if probe.claims.Role != models.UserRoleStandard {
		t.Errorf("expected standard role, got %s", probe.claims.Role)
	}
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	alice := testsupport.CreateUser(t, db, "alice", models.UserRoleStandard)
	mw := NewAuthMiddleware(db, testSecret)

	probe := &claimsProbe{}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, alice, time.Hour))
	rec := httptest.NewRecorder()

	mw.RequireAuth(probe).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if probe.claims == nil || probe.claims.Handle != "alice" {
		t.Errorf("expected alice's claims, got %+v", probe.claims)
	}
}

func TestRequireAuth_CookieWinsOverHeader(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	alice := testsupport.CreateUser(t, db, "alice", models.UserRoleStandard)
	bob := testsupport.CreateUser(t, db, "bob", models.UserRoleStandard)
	mw := NewAuthMiddleware(db, testSecret)

	probe := &claimsProbe{}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, alice, time.Hour)})
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, bob, time.Hour))
	rec := httptest.NewRecorder()

	mw.RequireAuth(probe).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if probe.claims == nil || probe.claims.Handle != "alice" {
		t.Errorf("cookie should take precedence, got %+v", probe.claims)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	alice := testsupport.CreateUser(t, db, "alice", models.UserRoleStandard)
	mw := NewAuthMiddleware(db, testSecret)

	ghost := &models.User{ID: uuid.New(), Handle: "ghost", Role: models.UserRoleStandard}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		message string
	}{
		{
			"no token",
			func(r *http.Request) {},
			"Not authenticated",
		},
		{
			"garbage token",
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
			},
			"Invalid or expired token",
		},
		{
			"wrong secret",
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, "other-secret", alice, time.Hour)})
			},
			"Invalid or expired token",
		},
		{
			"expired token",
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, alice, -time.Hour)})
			},
			"Invalid or expired token",
		},
		{
			"token for deleted account",
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, ghost, time.Hour)})
			},
			"Invalid or expired token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &claimsProbe{}
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			mw.RequireAuth(probe).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, resp.Error)
			}
			if probe.claims != nil {
				t.Error("handler should not run on rejection")
			}
		})
	}
}

func TestRequireAuth_DeactivatedAccount(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	alice := testsupport.CreateUser(t, db, "alice", models.UserRoleStandard)
	mw := NewAuthMiddleware(db, testSecret)

	// A still-valid token must stop working the moment the account is
	// deactivated.
	token := signToken(t, testSecret, alice, time.Hour)
	if _, err := db.Exec(db.Rebind("UPDATE users SET is_active = ? WHERE id = ?"), false, alice.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()

	mw.RequireAuth(&claimsProbe{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "Account is deactivated" {
		t.Errorf("expected deactivation message, got %q", resp.Error)
	}
}

func TestRequireModerator(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	mw := NewAuthMiddleware(db, testSecret)

	standard := testsupport.CreateUser(t, db, "user", models.UserRoleStandard)
	moderator := testsupport.CreateUser(t, db, "mod", models.UserRoleModerator)
	admin := testsupport.CreateUser(t, db, "root", models.UserRoleAdmin)

	tests := []struct {
		user *models.User
		code int
	}{
		{standard, http.StatusForbidden},
		{moderator, http.StatusOK},
		{admin, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/api/movies/x/status", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, tt.user, time.Hour)})
		rec := httptest.NewRecorder()

		mw.RequireModerator(&claimsProbe{}).ServeHTTP(rec, req)

		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.user.Handle, tt.code, rec.Code)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	mw := NewAuthMiddleware(db, testSecret)

	moderator := testsupport.CreateUser(t, db, "mod", models.UserRoleModerator)
	admin := testsupport.CreateUser(t, db, "root", models.UserRoleAdmin)

	tests := []struct {
		user *models.User
		code int
	}{
		{moderator, http.StatusForbidden},
		{admin, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodDelete, "/api/admin/thing", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, tt.user, time.Hour)})
		rec := httptest.NewRecorder()

		mw.RequireAdmin(&claimsProbe{}).ServeHTTP(rec, req)

		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.user.Handle, tt.code, rec.Code)
		}
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if claims := GetUserFromContext(req.Context()); claims != nil {
		t.Errorf("expected nil claims on a bare context, got %+v", claims)
	}
}
