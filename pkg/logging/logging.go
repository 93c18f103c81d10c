// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/rustyeddy/forecast/config"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w (stderr when nil). LOG_LEVEL, when set
// to a valid level, overrides cfg.Level; an invalid level falls back to
// info.
func New(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	if w == nil {
		w = os.Stderr
	}
	logger.SetOutput(w)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if env, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = env
	}
	logger.SetLevel(level)
	return logger
}
