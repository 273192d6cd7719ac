// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05"

type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// New returns a logger and a closer for any file it opened. Console format
// writes human readable lines, json writes one object per line.
func New(cfg Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	level := ParseLevel(cfg.Level, zerolog.InfoLevel)
	zerolog.ErrorFieldName = "err"

	var closer io.Closer = nopCloser{}
	out := stderr
	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f
	}

	var w io.Writer = out
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat, NoColor: out != os.Stderr}
	}
	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

func ParseLevel(raw string, fallback zerolog.Level) zerolog.Level {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return fallback
	}
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return lvl
}

// Component tags a logger with the emitting package.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
