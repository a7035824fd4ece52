package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// NewLogger writes JSON to w, or colored text down to debug level in
// development.
func NewLogger(w io.Writer) *slog.Logger {
	if Development() {
		return slog.New(tint.NewHandler(w, &tint.Options{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// LogLevel parses LOG_LEVEL, defaulting to info.
func LogLevel() (logrus.Level, error) {
	s, ok := os.LookupEnv("LOG_LEVEL")
	if !ok || s == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

// SetupLogrus configures the engine log: colored text in development, JSON
// otherwise, at LOG_LEVEL. When LOG_FILE is set entries are mirrored into a
// rotating JSON file.
func SetupLogrus(log *logrus.Logger) error {
	level, err := LogLevel()
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if Development() {
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	filename, ok := os.LookupEnv("LOG_FILE")
	if !ok || filename == "" {
		return nil
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   filename,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      level,
		Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
	})
	if err != nil {
		return fmt.Errorf("unable to create log file hook: %w", err)
	}
	log.AddHook(hook)
	return nil
}
