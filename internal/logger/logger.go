// Package logger wraps logrus with the defaults used across the service.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a component-scoped logrus entry.
type Logger struct {
	*logrus.Entry
}

// Config selects level and output format.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

var root = logrus.New()

// Setup configures the process-wide base logger.
func Setup(cfg Config) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	root.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		root.SetFormatter(&logrus.JSONFormatter{})
	} else {
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output != nil {
		root.SetOutput(cfg.Output)
	} else {
		root.SetOutput(os.Stdout)
	}
}

// NewDefault returns a logger tagged with the component name.
func NewDefault(component string) *Logger {
	return &Logger{Entry: root.WithField("component", component)}
}

// New wraps an existing logrus logger, mostly for tests.
func New(l *logrus.Logger, component string) *Logger {
	if l == nil {
		l = root
	}
	return &Logger{Entry: l.WithField("component", component)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(l)}
}
