package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/anoideaopen/feeledger/core/config"
	"github.com/sirupsen/logrus"
)

const defaultLevel = logrus.WarnLevel

var (
	lg   *logrus.Logger
	once sync.Once
)

// Logger returns the logger for the ledger, configured from the service
// configuration.
func Logger() *logrus.Logger {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			lg = New("", "")
			lg.WithError(err).Warn("logging configuration not loaded, using defaults")
			return
		}
		lg = FromConfig(cfg)
	})
	return lg
}

// FromConfig builds a logger with the logging settings of cfg.
func FromConfig(cfg *config.Config) *logrus.Logger {
	return New(cfg.LoggingLevel, cfg.LoggingFormat)
}

// New builds a logger writing to stderr. Unknown levels fall back to warning,
// format is "json" or anything else for text.
func New(levelStr, formatStr string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = defaultLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(formatStr, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000 MST",
		})
	}

	return l
}
