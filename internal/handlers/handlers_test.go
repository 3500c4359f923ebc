package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/middleware"
	"movieshare-backend/internal/models"
	"movieshare-backend/internal/services"
	"movieshare-backend/internal/storage"
	"movieshare-backend/internal/testsupport"
	"movieshare-backend/utils/response"
)

const testVideoContent = "fake video bytes"

// testEnv mounts every handler on a mux with the server's route
// patterns, minus the auth middleware: tests place claims into the
// request context themselves.
type testEnv struct {
	db        *database.DB
	store     *storage.Store
	movies    *services.MovieService
	processor *testsupport.StubProcessor
	mux       *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testsupport.MustOpenDB(t)
	cfg := testsupport.NewConfig(t)
	store, err := storage.New(cfg.VideoDir, cfg.ThumbnailDir)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	logger := testsupport.NewLogger()

	processor := &testsupport.StubProcessor{}
	authService := services.NewAuthService(db, cfg.JWTSecret, logger)
	movieService := services.NewMovieService(db, store, processor, cfg, logger)
	ratingService := services.NewRatingService(db, logger)

	authHandler := NewAuthHandler(authService, logger)
	movieHandler := NewMovieHandler(movieService, cfg.MaxUploadBytes, logger)
	ratingHandler := NewRatingHandler(ratingService, logger)
	streamHandler := NewStreamHandler(movieService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.RegisterUser)
	mux.HandleFunc("POST /api/auth/login", authHandler.LoginUser)
	mux.HandleFunc("POST /api/auth/logout", authHandler.LogoutUser)
	mux.HandleFunc("GET /api/auth/me", authHandler.GetMe)
	mux.HandleFunc("DELETE /api/auth/me", authHandler.DeactivateMe)
	mux.HandleFunc("GET /api/movies", movieHandler.ListMovies)
	mux.HandleFunc("POST /api/movies", movieHandler.UploadMovie)
	mux.HandleFunc("GET /api/movies/languages", movieHandler.ListLanguages)
	mux.HandleFunc("GET /api/movies/{id}", movieHandler.GetMovie)
	mux.HandleFunc("PATCH /api/movies/{id}", movieHandler.UpdateMovie)
	mux.HandleFunc("DELETE /api/movies/{id}", movieHandler.DeleteMovie)
	mux.HandleFunc("PUT /api/movies/{id}/thumbnail", movieHandler.ReplaceThumbnail)
	mux.HandleFunc("POST /api/movies/{id}/status", movieHandler.SetMovieStatus)
	mux.HandleFunc("POST /api/movies/{id}/ratings", ratingHandler.CreateRating)
	mux.HandleFunc("GET /api/movies/{id}/ratings", ratingHandler.ListRatings)
	mux.HandleFunc("GET /api/movies/{id}/download", streamHandler.DownloadMovie)
	mux.HandleFunc("GET /api/stream/{filename}", streamHandler.StreamMovie)
	mux.HandleFunc("GET /api/thumbnails/{filename}", streamHandler.GetThumbnail)

	return &testEnv{db: db, store: store, movies: movieService, processor: processor, mux: mux}
}

// do serves the request as the given user; nil means unauthenticated.
func (e *testEnv) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	if user != nil {
		claims := &middleware.UserClaims{UserID: user.ID, Handle: user.Handle, Role: user.Role}
		req = req.WithContext(middleware.WithUser(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// uploadMovie pushes a small English drama through the upload endpoint
// and returns its API shape. The stored bytes are testVideoContent.
func (e *testEnv) uploadMovie(t *testing.T, owner *models.User, title string) dto.MovieResponse {
	t.Helper()

	fields := url.Values{}
	fields.Set("title", title)
	fields.Set("language", "english")
	fields.Add("genre", "drama")
	body, contentType := multipartBody(t, fields, "movie", "movie.mp4", []byte(testVideoContent))
	req := httptest.NewRequest(http.MethodPost, "/api/movies", body)
	req.Header.Set("Content-Type", contentType)

	rec := e.do(t, req, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload %q failed: status %d, body %s", title, rec.Code, rec.Body.String())
	}
	var movie dto.MovieResponse
	decodeData(t, rec, &movie)
	return movie
}

// approve flips a movie to approved directly in the database.
func (e *testEnv) approve(t *testing.T, movieID uuid.UUID) {
	t.Helper()

	query := e.db.Rebind("UPDATE movies SET status = 'approved' WHERE id = ?")
	if _, err := e.db.Exec(query, movieID); err != nil {
		t.Fatalf("approve movie: %v", err)
	}
}

// counters reads a movie's view and download counts.
func (e *testEnv) counters(t *testing.T, movieID uuid.UUID) (views, downloads int64) {
	t.Helper()

	query := e.db.Rebind("SELECT view_count, download_count FROM movies WHERE id = ?")
	if err := e.db.QueryRow(query, movieID).Scan(&views, &downloads); err != nil {
		t.Fatalf("read counters: %v", err)
	}
	return views, downloads
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartBody builds a form with the given fields plus, when
// fileField is set, one file part holding content.
func multipartBody(t *testing.T, fields url.Values, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, values := range fields {
		for _, value := range values {
			if err := mw.WriteField(field, value); err != nil {
				t.Fatalf("write form field %s: %v", field, err)
			}
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// decodeData unmarshals the success envelope's payload into data (when
// non-nil) and returns the envelope message.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, data any) string {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	if !envelope.Success {
		t.Fatalf("expected a success envelope, got %s", rec.Body.String())
	}
	if data != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
	}
	return envelope.Message
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response %q: %v", rec.Body.String(), err)
	}
	if resp.Success {
		t.Fatalf("expected an error envelope, got %s", rec.Body.String())
	}
	return resp
}

// wantError asserts the status code and envelope of a failed request.
func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	resp := decodeErrorBody(t, rec)
	if resp.Error != message {
		t.Errorf("expected error %q, got %q", message, resp.Error)
	}
	if resp.Code != status {
		t.Errorf("expected code %d in the body, got %d", status, resp.Code)
	}
}
