package main

import (
	"fmt"
	"log/slog"
	"os"

	"movieshare-backend/internal/config"
	"movieshare-backend/internal/database"
	"movieshare-backend/internal/logging"
)

// commandContext holds what every subcommand needs: a logger tuned to
// the verbosity flag and a way to reach the database.
type commandContext struct {
	verbose *bool
	logger  *slog.Logger
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose}
}

func (c *commandContext) ensureLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}

	level := "warn"
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: "text"})
	if err != nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	c.logger = logger
	return c.logger
}

// withDB opens a connection for the duration of one command.
func (c *commandContext) withDB(fn func(*database.DB) error) error {
	db, err := database.Init(config.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
