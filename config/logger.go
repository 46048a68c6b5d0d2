package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the shared logrus logger. Output is JSON so log lines can
// be shipped to a collector without extra parsing.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
