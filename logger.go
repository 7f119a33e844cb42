package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a logger writing to path. The terminal belongs to the
// TUI, so an empty path disables logging. The returned closer releases the
// log file.
func NewLogger(path, levelStr string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}

	level, levelErr := zerolog.ParseLevel(levelStr)
	if levelErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), io.NopCloser(nil), fmt.Errorf("failed to open log file: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}
	log := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	if levelErr != nil {
		log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
	}
	return log, f, nil
}
