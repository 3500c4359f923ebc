package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movieshare-backend/internal/config"
	"movieshare-backend/internal/database"
	"movieshare-backend/internal/handlers"
	"movieshare-backend/internal/logging"
	"movieshare-backend/internal/media"
	"movieshare-backend/internal/middleware"
	"movieshare-backend/internal/services"
	"movieshare-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info("database ready", "driver", db.Driver)

	store, err := storage.New(cfg.VideoDir, cfg.ThumbnailDir)
	if err != nil {
		log.Fatalf("Failed to prepare media directories: %v", err)
	}

	processor := media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, cfg.ProcessTimeout)
	if err := processor.Available(context.Background()); err != nil {
		logger.Warn("ffmpeg tools unavailable, uploads will fail processing", "error", err)
	}

	authService := services.NewAuthService(db, cfg.JWTSecret, logger)
	movieService := services.NewMovieService(db, store, processor, cfg, logger)
	ratingService := services.NewRatingService(db, logger)

	authMiddleware := middleware.NewAuthMiddleware(db, cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(authService, logger)
	movieHandler := handlers.NewMovieHandler(movieService, cfg.MaxUploadBytes, logger)
	ratingHandler := handlers.NewRatingHandler(ratingService, logger)
	streamHandler := handlers.NewStreamHandler(movieService, logger)

	router := http.NewServeMux()

	router.HandleFunc("POST /api/auth/register", authHandler.RegisterUser)
	router.HandleFunc("POST /api/auth/login", authHandler.LoginUser)

	router.Handle("POST /api/auth/logout", authMiddleware.RequireAuth(http.HandlerFunc(authHandler.LogoutUser)))
	router.Handle("GET /api/auth/me", authMiddleware.RequireAuth(http.HandlerFunc(authHandler.GetMe)))
	router.Handle("DELETE /api/auth/me", authMiddleware.RequireAuth(http.HandlerFunc(authHandler.DeactivateMe)))

	router.Handle("GET /api/movies", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.ListMovies)))
	router.Handle("POST /api/movies", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.UploadMovie)))
	router.Handle("GET /api/movies/languages", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.ListLanguages)))
	router.Handle("GET /api/movies/{id}", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.GetMovie)))
	router.Handle("PATCH /api/movies/{id}", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.UpdateMovie)))
	router.Handle("DELETE /api/movies/{id}", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.DeleteMovie)))
	router.Handle("PUT /api/movies/{id}/thumbnail", authMiddleware.RequireAuth(http.HandlerFunc(movieHandler.ReplaceThumbnail)))
	router.Handle("POST /api/movies/{id}/status", authMiddleware.RequireModerator(http.HandlerFunc(movieHandler.SetMovieStatus)))

	router.Handle("POST /api/movies/{id}/ratings", authMiddleware.RequireAuth(http.HandlerFunc(ratingHandler.CreateRating)))
	router.Handle("GET /api/movies/{id}/ratings", authMiddleware.RequireAuth(http.HandlerFunc(ratingHandler.ListRatings)))

	router.Handle("GET /api/movies/{id}/download", authMiddleware.RequireAuth(http.HandlerFunc(streamHandler.DownloadMovie)))
	router.Handle("GET /api/stream/{filename}", authMiddleware.RequireAuth(http.HandlerFunc(streamHandler.StreamMovie)))
	router.Handle("GET /api/thumbnails/{filename}", authMiddleware.RequireAuth(http.HandlerFunc(streamHandler.GetThumbnail)))

	handler := middleware.RequestLogger(logger)(corsMiddleware(cfg.CORSOrigin, router))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Serve in a goroutine so the signal wait below can drive shutdown.
	go func() {
		logger.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must name the exact origin, because of http-only cookies.
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
