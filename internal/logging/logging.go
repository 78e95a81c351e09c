// Package logging routes zerolog output to a file, since the terminal
// belongs to the UI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup opens (appending) the log file at path, sets the global level and
// installs the file as the global logger's output. The returned closer
// must be closed on exit.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = New(f)
	return f, nil
}

// SetupOrFallback is Setup for a log location that may be unusable, such
// as a cache dir under a regular file. It retries with the same file name
// under fallbackDir and then discards output, so startup can carry on.
// warning is empty when path itself was used. Only a bad level is an error.
func SetupOrFallback(path, fallbackDir, level string) (closer io.Closer, warning string, err error) {
	if _, err := ParseLevel(level); err != nil {
		return nil, "", err
	}
	closer, err = Setup(path, level)
	if err == nil {
		return closer, "", nil
	}
	first := err

	alt := filepath.Join(fallbackDir, filepath.Base(path))
	if closer, err = Setup(alt, level); err == nil {
		log.Warn().Err(first).Str("wanted", path).Msg("log file unavailable, using fallback")
		return closer, fmt.Sprintf("Logging to %s: %v", alt, first), nil
	}

	lvl, _ := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)
	log.Logger = New(io.Discard)
	return nopCloser{}, fmt.Sprintf("Logging disabled: %v", first), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a timestamped logger writing JSON lines to w.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("app", "mrtea").Logger()
}

// ParseLevel accepts zerolog level names, case-insensitively. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
