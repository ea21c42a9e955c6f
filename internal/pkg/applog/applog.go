// Package applog is the process-wide structured logger, a direct,
// field-aware wrapper over sirupsen/logrus in the style of
// hivemind/server.go's logger.Info(...) calls.
package applog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel parses and applies a level name ("debug", "info", "warn", "error").
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// Fields is a shorthand for a contextual field set, e.g. the wallet/agent/
// transaction id a log line pertains to.
type Fields = logrus.Fields

// With returns an entry pre-populated with fields.
func With(fields Fields) *logrus.Entry {
	return base.WithFields(fields)
}

func Info(format string, args ...any)  { base.Infof(format, args...) }
func Warn(format string, args ...any)  { base.Warnf(format, args...) }
func Error(format string, args ...any) { base.Errorf(format, args...) }
func Debug(format string, args ...any) { base.Debugf(format, args...) }
