package testsupport

import (
	"io"
	"log/slog"
)

// NewLogger returns a logger that swallows everything, keeping service
// chatter out of test output.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
