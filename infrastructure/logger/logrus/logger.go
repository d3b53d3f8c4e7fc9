// ABOUTME: Logger implementation backed by logrus
// ABOUTME: Provides structured logging with configurable level and JSON or text output

package logrus

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger implements interfaces.Logger using logrus
type Logger struct {
	entry *logrus.Entry
}

// Options configures a Logger
type Options struct {
	// Level is debug, info, warn or error; unknown values fall back to info
	Level string

	// Format is json or text
	Format string

	// Output defaults to stdout
	Output io.Writer
}

// New creates a logrus-backed logger
func New(opts Options) *Logger {
	l := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(opts.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Error(msg)
}
