// Package logger configures logrus for diagnostics on stderr.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at the given level. format "json"
// selects the JSON formatter; anything else gets text with full timestamps.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(w io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.Warnf("invalid log level %q, defaulting to info", level)
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that drops everything; used by tests and library callers.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LeveledAdapter exposes a logrus logger through the key/value interface
// expected by retryablehttp.
type LeveledAdapter struct {
	entry *logrus.Entry
}

// Leveled wraps l; the adapter tags every line with component=http.
func Leveled(l logrus.FieldLogger) *LeveledAdapter {
	return &LeveledAdapter{entry: l.WithField("component", "http")}
}

func (a *LeveledAdapter) with(kv []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return a.entry.WithFields(fields)
}

func (a *LeveledAdapter) Error(msg string, kv ...interface{}) { a.with(kv).Error(msg) }
func (a *LeveledAdapter) Warn(msg string, kv ...interface{})  { a.with(kv).Warn(msg) }
func (a *LeveledAdapter) Info(msg string, kv ...interface{})  { a.with(kv).Info(msg) }
func (a *LeveledAdapter) Debug(msg string, kv ...interface{}) { a.with(kv).Debug(msg) }
