// internal/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus logger writing timestamped text to stdout.
// The level comes from LOG_LEVEL and falls back to info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	return log
}

func parseLevel(raw string) logrus.Level {
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
