// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the log level and output format
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig logs JSON at info
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatJSON}
}

// Validate reports an unknown level or format
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", FormatJSON, FormatText:
		return nil
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing to w. The text format is colourised for
// terminals; json suits log collectors.
func New(w io.Writer, cfg Config, prefix string) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := ParseLevel(cfg.Level)

	if strings.ToLower(cfg.Format) == FormatText {
		handler := log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(level),
			Prefix:          prefix,
		})
		return slog.New(handler), nil
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	if prefix != "" {
		logger = logger.With(slog.String("service", prefix))
	}
	return logger, nil
}
