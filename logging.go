package mealprep

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogHandler builds the slog handler described by cfg: colored text through tint,
// or JSON lines for machine consumption.
func NewLogHandler(cfg LogConfig, w io.Writer) (slog.Handler, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}), nil
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// SetupLogging installs the handler for cfg as the default logger.
func SetupLogging(cfg LogConfig, w io.Writer) error {
	h, err := NewLogHandler(cfg, w)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(h))
	return nil
}
