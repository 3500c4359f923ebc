// Package config loads runtime settings from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultExtensions lists the video container formats accepted for upload.
const DefaultExtensions = ".mp4,.mkv,.avi,.mov,.webm,.flv,.wmv,.m4v,.mpg,.mpeg"

type Config struct {
	Host string
	Port string

	// DatabaseURL is either a Postgres URL/DSN or a path to a SQLite
	// database file.
	DatabaseURL string
	JWTSecret   string
	CORSOrigin  string

	VideoDir     string
	ThumbnailDir string

	MaxUploadBytes    int64
	AllowedExtensions map[string]struct{}

	FFmpegPath     string
	FFprobePath    string
	ProcessTimeout time.Duration

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	maxUpload, err := parseBytes(getEnv("MAX_UPLOAD_BYTES", ""), 1<<30)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}

	processTimeout, err := parseDuration(getEnv("PROCESS_TIMEOUT", ""), 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESS_TIMEOUT: %w", err)
	}

	mediaRoot := getEnv("MEDIA_DIR", "data")

	return &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getDatabaseURL(),
		JWTSecret:         jwtSecret,
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:5173"),
		VideoDir:          getEnv("VIDEO_DIR", filepath.Join(mediaRoot, "videos")),
		ThumbnailDir:      getEnv("THUMBNAIL_DIR", filepath.Join(mediaRoot, "thumbnails")),
		MaxUploadBytes:    maxUpload,
		AllowedExtensions: parseExtensions(getEnv("ALLOWED_EXTENSIONS", DefaultExtensions)),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
		ProcessTimeout:    processTimeout,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", ""),
	}, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// ExtensionAllowed reports whether the file name carries an accepted
// video extension. Matching is case-insensitive.
func (c *Config) ExtensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := c.AllowedExtensions[ext]
	return ok
}

// DatabaseURL resolves the database location the same way Load does,
// without requiring the rest of the server environment. The admin CLI
// uses it.
func DatabaseURL() string {
	_ = godotenv.Load()
	return getDatabaseURL()
}

// getDatabaseURL resolves the storage backend. Preference order:
// an explicit DATABASE_URL, a Postgres DSN assembled from DB_* parts,
// and finally a local SQLite file so the app runs with zero setup.
func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	if os.Getenv("DB_HOST") != "" {
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := getEnv("DB_PASSWORD", "postgres")
		dbname := getEnv("DB_NAME", "movieshare")
		sslmode := getEnv("DB_SSLMODE", "disable")

		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode,
		)
	}

	return getEnv("SQLITE_PATH", "movies.db")
}

func parseExtensions(list string) map[string]struct{} {
	exts := make(map[string]struct{})
	for _, raw := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return exts
}

func parseBytes(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
